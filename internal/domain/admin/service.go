package admin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sharespace/sharespace-api/internal/domain/coin"
	"github.com/sharespace/sharespace-api/internal/domain/listing"
	"github.com/sharespace/sharespace-api/internal/domain/notify"
	"github.com/sharespace/sharespace-api/internal/domain/user"
)

// ListingModerator is the listing side of moderation
type ListingModerator interface {
	ListByStatus(ctx context.Context, status listing.Status, limit, offset int) ([]*listing.Listing, int, error)
	Approve(ctx context.Context, id int64, ttl time.Duration) (*listing.Listing, error)
	Reject(ctx context.Context, id int64, reason string) (*listing.Listing, error)
	SetHidden(ctx context.Context, id int64, hidden bool) error
}

// CoinAdmin is the wallet and pricing side of administration
type CoinAdmin interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*coin.Transaction, int, error)
	AdminAdjust(ctx context.Context, userID uuid.UUID, delta int64, reason string, adminID uuid.UUID) (*coin.Transaction, error)
	Reward(ctx context.Context, userID uuid.UUID, coins int64, reason string, adminID uuid.UUID) (*coin.Transaction, error)
	Pricing(ctx context.Context) (*coin.BaseRate, []coin.PricingTier, error)
	ListTiers(ctx context.Context) ([]coin.PricingTier, error)
	UpdateBaseRate(ctx context.Context, coinsPer1000, minTopup int64) (*coin.BaseRate, error)
	CreateTier(ctx context.Context, tier *coin.PricingTier) error
	UpdateTier(ctx context.Context, id uuid.UUID, apply func(*coin.PricingTier)) (*coin.PricingTier, error)
	DeactivateTier(ctx context.Context, id uuid.UUID) error
}

// SessionRevoker signs a user out of every device
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// Service implements admin operations that span domains
type Service struct {
	listings   ListingModerator
	coins      CoinAdmin
	users      user.Repository
	sessions   SessionRevoker
	notifier   coin.Notifier
	listingTTL time.Duration
}

// NewService creates admin service. sessions and notifier may be nil.
func NewService(listings ListingModerator, coins CoinAdmin, users user.Repository, sessions SessionRevoker, notifier coin.Notifier, listingTTL time.Duration) *Service {
	return &Service{
		listings:   listings,
		coins:      coins,
		users:      users,
		sessions:   sessions,
		notifier:   notifier,
		listingTTL: listingTTL,
	}
}

// ApproveListing publishes a pending listing until now + the listing TTL
func (s *Service) ApproveListing(ctx context.Context, adminID uuid.UUID, id int64) (*listing.Listing, error) {
	l, err := s.listings.Approve(ctx, id, s.listingTTL)
	if err != nil {
		return nil, err
	}
	audit(ctx, adminID, "listing.approve").Int64("listing_id", id).Msg("Admin action")
	s.notifyOwner(ctx, l)
	return l, nil
}

// RejectListing returns a pending listing to its owner
func (s *Service) RejectListing(ctx context.Context, adminID uuid.UUID, id int64, reason string) (*listing.Listing, error) {
	l, err := s.listings.Reject(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	audit(ctx, adminID, "listing.reject").Int64("listing_id", id).Str("reason", reason).Msg("Admin action")
	s.notifyOwner(ctx, l)
	return l, nil
}

// SetListingHidden hides or restores a listing
func (s *Service) SetListingHidden(ctx context.Context, adminID uuid.UUID, id int64, hidden bool) error {
	if err := s.listings.SetHidden(ctx, id, hidden); err != nil {
		return err
	}
	action := "listing.unhide"
	if hidden {
		action = "listing.hide"
	}
	audit(ctx, adminID, action).Int64("listing_id", id).Msg("Admin action")
	return nil
}

// SetUserBanned bans or unbans a member. Banning revokes every refresh token.
func (s *Service) SetUserBanned(ctx context.Context, adminID, userID uuid.UUID, banned bool) error {
	if banned && adminID == userID {
		return ErrCannotBanSelf
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return user.ErrUserNotFound
	}
	if banned && u.IsAdmin() {
		return ErrCannotBanAdmin
	}

	if err := s.users.SetBanned(ctx, userID, banned); err != nil {
		return err
	}
	if banned && s.sessions != nil {
		if err := s.sessions.RevokeAll(ctx, userID); err != nil {
			return err
		}
	}

	action := "user.unban"
	if banned {
		action = "user.ban"
	}
	audit(ctx, adminID, action).Str("user_id", userID.String()).Msg("Admin action")
	return nil
}

func (s *Service) notifyOwner(ctx context.Context, l *listing.Listing) {
	if s.notifier == nil {
		return
	}
	data := map[string]any{
		"listing_id": l.ID,
		"status":     string(l.Status),
	}
	if l.RejectReason.Valid {
		data["reason"] = l.RejectReason.String
	}
	s.notifier.Publish(ctx, l.OwnerID, notify.EventListingModerated, data)
}

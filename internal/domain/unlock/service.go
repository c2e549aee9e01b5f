package unlock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sharespace/sharespace-api/internal/domain/coin"
	"github.com/sharespace/sharespace-api/internal/domain/listing"
	"github.com/sharespace/sharespace-api/internal/domain/notify"
)

// ListingReader loads listings for unlocking
type ListingReader interface {
	Get(ctx context.Context, id int64) (*listing.Listing, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*listing.Listing, error)
}

// Result is what an unlock call reveals
type Result struct {
	ListingID       int64            `json:"listing_id"`
	Contact         *listing.Contact `json:"contact"`
	CoinsSpent      int64            `json:"coins_spent"`
	BalanceAfter    *int64           `json:"balance_after,omitempty"`
	AlreadyUnlocked bool             `json:"already_unlocked"`
}

// Service handles unlock business logic
type Service struct {
	repo     Repository
	listings ListingReader
	cost     int64
	notifier coin.Notifier
}

// NewService creates unlock service. notifier may be nil.
func NewService(repo Repository, listings ListingReader, cost int64, notifier coin.Notifier) *Service {
	return &Service{
		repo:     repo,
		listings: listings,
		cost:     cost,
		notifier: notifier,
	}
}

// Cost returns the coins charged per unlock
func (s *Service) Cost() int64 {
	return s.cost
}

// HasUnlocked reports whether userID already paid for listingID
func (s *Service) HasUnlocked(ctx context.Context, userID uuid.UUID, listingID int64) (bool, error) {
	return s.repo.HasUnlocked(ctx, userID, listingID)
}

// Unlock reveals a listing's contacts to userID, charging the unlock cost once.
// Owners see their own contacts for free.
func (s *Service) Unlock(ctx context.Context, userID uuid.UUID, listingID int64) (*Result, error) {
	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}

	result := &Result{ListingID: l.ID, Contact: listing.ContactFromEntity(l)}
	if l.IsOwnedBy(userID) {
		result.AlreadyUnlocked = true
		return result, nil
	}
	if !l.IsPubliclyVisible() {
		return nil, listing.ErrListingNotFound
	}

	unlocked, err := s.repo.HasUnlocked(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	if unlocked {
		result.AlreadyUnlocked = true
		return result, nil
	}

	u, debit, err := s.repo.Create(ctx, userID, listingID, s.cost)
	if errors.Is(err, ErrAlreadyUnlocked) {
		result.AlreadyUnlocked = true
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	result.CoinsSpent = u.CoinsSpent
	if debit != nil {
		balance := debit.BalanceAfter
		result.BalanceAfter = &balance
		if s.notifier != nil {
			s.notifier.Publish(ctx, userID, notify.EventBalanceUpdated, map[string]any{
				"type":          string(debit.Type),
				"amount":        debit.Amount,
				"balance_after": debit.BalanceAfter,
			})
		}
	}

	log.Info().
		Str("user_id", userID.String()).
		Int64("listing_id", listingID).
		Int64("coins_spent", u.CoinsSpent).
		Msg("Listing unlocked")
	return result, nil
}

// UnlockedListing pairs an unlock with the listing it opened
type UnlockedListing struct {
	Unlock  *Unlock
	Listing *listing.Listing
}

// ListMine returns the caller's unlocks, newest first. Listings that no
// longer exist are skipped.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]UnlockedListing, int, error) {
	unlocks, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if len(unlocks) == 0 {
		return []UnlockedListing{}, total, nil
	}

	ids := make([]int64, len(unlocks))
	for i, u := range unlocks {
		ids[i] = u.ListingID
	}
	listings, err := s.listings.ListByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[int64]*listing.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}

	out := make([]UnlockedListing, 0, len(unlocks))
	for _, u := range unlocks {
		l, ok := byID[u.ListingID]
		if !ok {
			continue
		}
		out = append(out, UnlockedListing{Unlock: u, Listing: l})
	}
	return out, total, nil
}

package admin

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sharespace/sharespace-api/internal/domain/coin"
	"github.com/sharespace/sharespace-api/internal/domain/listing"
	"github.com/sharespace/sharespace-api/internal/domain/user"
)

type fakeListings struct {
	mu    sync.Mutex
	items map[int64]*listing.Listing
}

func (f *fakeListings) get(id int64) (*listing.Listing, error) {
	l, ok := f.items[id]
	if !ok {
		return nil, listing.ErrListingNotFound
	}
	return l, nil
}

func (f *fakeListings) ListByStatus(_ context.Context, status listing.Status, limit, offset int) ([]*listing.Listing, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*listing.Listing
	for _, l := range f.items {
		if l.Status == status {
			out = append(out, l)
		}
	}
	total := len(out)
	if offset >= total {
		return []*listing.Listing{}, total, nil
	}
	return out[offset:min(offset+limit, total)], total, nil
}

func (f *fakeListings) Approve(_ context.Context, id int64, ttl time.Duration) (*listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.get(id)
	if err != nil {
		return nil, err
	}
	if l.Status != listing.StatusPending {
		return nil, listing.ErrInvalidTransition
	}
	l.Status = listing.StatusApproved
	l.ExpiresAt = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	return l, nil
}

func (f *fakeListings) Reject(_ context.Context, id int64, reason string) (*listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.get(id)
	if err != nil {
		return nil, err
	}
	if l.Status != listing.StatusPending {
		return nil, listing.ErrInvalidTransition
	}
	l.Status = listing.StatusRejected
	l.RejectReason = sql.NullString{String: reason, Valid: true}
	return l, nil
}

func (f *fakeListings) SetHidden(_ context.Context, id int64, hidden bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.get(id)
	if err != nil {
		return err
	}
	l.IsHidden = hidden
	return nil
}

type fakeCoins struct {
	balances map[uuid.UUID]int64
	tiers    []coin.PricingTier
	rate     coin.BaseRate
	adjusted []coin.Entry
}

func (f *fakeCoins) GetBalance(_ context.Context, userID uuid.UUID) (int64, error) {
	b, ok := f.balances[userID]
	if !ok {
		return 0, coin.ErrUserNotFound
	}
	return b, nil
}

func (f *fakeCoins) ListTransactions(_ context.Context, userID uuid.UUID, limit, offset int) ([]*coin.Transaction, int, error) {
	return []*coin.Transaction{}, 0, nil
}

func (f *fakeCoins) apply(userID uuid.UUID, txType coin.TxType, amount int64, adminID uuid.UUID) (*coin.Transaction, error) {
	b, ok := f.balances[userID]
	if !ok {
		return nil, coin.ErrUserNotFound
	}
	if b+amount < 0 {
		return nil, coin.ErrInsufficientCoins
	}
	f.balances[userID] = b + amount
	f.adjusted = append(f.adjusted, coin.Entry{UserID: userID, Type: txType, Amount: amount, CreatedBy: &adminID})
	return &coin.Transaction{ID: uuid.New(), UserID: userID, Type: txType, Amount: amount, BalanceAfter: b + amount}, nil
}

func (f *fakeCoins) AdminAdjust(_ context.Context, userID uuid.UUID, delta int64, _ string, adminID uuid.UUID) (*coin.Transaction, error) {
	if delta == 0 {
		return nil, coin.ErrInvalidAmount
	}
	return f.apply(userID, coin.TxAdminAdjustment, delta, adminID)
}

func (f *fakeCoins) Reward(_ context.Context, userID uuid.UUID, coins int64, _ string, adminID uuid.UUID) (*coin.Transaction, error) {
	return f.apply(userID, coin.TxReward, coins, adminID)
}

func (f *fakeCoins) Pricing(context.Context) (*coin.BaseRate, []coin.PricingTier, error) {
	rate := f.rate
	return &rate, f.tiers, nil
}

func (f *fakeCoins) ListTiers(context.Context) ([]coin.PricingTier, error) {
	return f.tiers, nil
}

func (f *fakeCoins) UpdateBaseRate(_ context.Context, coinsPer1000, minTopup int64) (*coin.BaseRate, error) {
	f.rate = coin.BaseRate{CoinsPer1000: coinsPer1000, MinTopup: minTopup}
	rate := f.rate
	return &rate, nil
}

func (f *fakeCoins) CreateTier(_ context.Context, tier *coin.PricingTier) error {
	tier.ID = uuid.New()
	f.tiers = append(f.tiers, *tier)
	return nil
}

func (f *fakeCoins) UpdateTier(_ context.Context, id uuid.UUID, apply func(*coin.PricingTier)) (*coin.PricingTier, error) {
	for i := range f.tiers {
		if f.tiers[i].ID == id {
			apply(&f.tiers[i])
			tier := f.tiers[i]
			return &tier, nil
		}
	}
	return nil, coin.ErrTierNotFound
}

func (f *fakeCoins) DeactivateTier(_ context.Context, id uuid.UUID) error {
	for i := range f.tiers {
		if f.tiers[i].ID == id {
			f.tiers[i].IsActive = false
			return nil
		}
	}
	return coin.ErrTierNotFound
}

type fakeUsers struct {
	users map[uuid.UUID]*user.User
}

func (f *fakeUsers) Create(_ context.Context, u *user.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	return f.users[id], nil
}

func (f *fakeUsers) GetByEmail(context.Context, string) (*user.User, error) {
	return nil, nil
}

func (f *fakeUsers) SetBanned(_ context.Context, id uuid.UUID, banned bool) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.IsBanned = banned
	return nil
}

type fakeSessions struct {
	revoked []uuid.UUID
}

func (f *fakeSessions) RevokeAll(_ context.Context, userID uuid.UUID) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

type published struct {
	userID    uuid.UUID
	eventType string
	data      any
}

type fakeNotifier struct {
	events []published
}

func (f *fakeNotifier) Publish(_ context.Context, userID uuid.UUID, eventType string, data any) {
	f.events = append(f.events, published{userID, eventType, data})
}

type fixture struct {
	listings *fakeListings
	coins    *fakeCoins
	users    *fakeUsers
	sessions *fakeSessions
	notifier *fakeNotifier
	service  *Service
	adminID  uuid.UUID
	ownerID  uuid.UUID
}

const testTTL = 30 * 24 * time.Hour

func newFixture() *fixture {
	f := &fixture{
		listings: &fakeListings{items: map[int64]*listing.Listing{}},
		coins:    &fakeCoins{balances: map[uuid.UUID]int64{}, rate: coin.BaseRate{CoinsPer1000: 1, MinTopup: 10000}},
		users:    &fakeUsers{users: map[uuid.UUID]*user.User{}},
		sessions: &fakeSessions{},
		notifier: &fakeNotifier{},
		adminID:  uuid.New(),
		ownerID:  uuid.New(),
	}
	f.users.users[f.adminID] = &user.User{ID: f.adminID, Role: user.RoleAdmin}
	f.users.users[f.ownerID] = &user.User{ID: f.ownerID, Role: user.RoleMember}
	f.coins.balances[f.ownerID] = 50
	f.service = NewService(f.listings, f.coins, f.users, f.sessions, f.notifier, testTTL)
	return f
}

func (f *fixture) addListing(id int64, status listing.Status) *listing.Listing {
	l := &listing.Listing{ID: id, OwnerID: f.ownerID, Title: "Bếp chung Quận 3", Status: status}
	f.listings.items[id] = l
	return l
}

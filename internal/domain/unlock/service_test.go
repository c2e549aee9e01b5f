package unlock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sharespace/sharespace-api/internal/domain/coin"
	"github.com/sharespace/sharespace-api/internal/domain/listing"
	"github.com/sharespace/sharespace-api/internal/domain/notify"
)

type unlockKey struct {
	userID    uuid.UUID
	listingID int64
}

type fakeRepository struct {
	mu       sync.Mutex
	unlocks  map[unlockKey]*Unlock
	order    []*Unlock
	balances map[uuid.UUID]int64
	// raceOnCreate simulates a concurrent unlock committing first
	raceOnCreate bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		unlocks:  map[unlockKey]*Unlock{},
		balances: map[uuid.UUID]int64{},
	}
}

func (f *fakeRepository) Create(_ context.Context, userID uuid.UUID, listingID int64, cost int64) (*Unlock, *coin.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := unlockKey{userID, listingID}
	if _, ok := f.unlocks[key]; ok || f.raceOnCreate {
		return nil, nil, ErrAlreadyUnlocked
	}
	next := f.balances[userID] - cost
	if next < 0 {
		return nil, nil, coin.ErrInsufficientCoins
	}
	f.balances[userID] = next

	u := &Unlock{ID: uuid.New(), UserID: userID, ListingID: listingID, CoinsSpent: cost, CreatedAt: time.Now()}
	f.unlocks[key] = u
	f.order = append([]*Unlock{u}, f.order...)

	var debit *coin.Transaction
	if cost > 0 {
		debit = &coin.Transaction{ID: uuid.New(), UserID: userID, Type: coin.TxUnlock, Amount: -cost, BalanceAfter: next}
	}
	return u, debit, nil
}

func (f *fakeRepository) HasUnlocked(_ context.Context, userID uuid.UUID, listingID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.unlocks[unlockKey{userID, listingID}]
	return ok, nil
}

func (f *fakeRepository) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Unlock, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []*Unlock
	for _, u := range f.order {
		if u.UserID == userID {
			mine = append(mine, u)
		}
	}
	total := len(mine)
	if offset >= total {
		return []*Unlock{}, total, nil
	}
	return mine[offset:min(offset+limit, total)], total, nil
}

type fakeListings struct {
	items map[int64]*listing.Listing
}

func (f *fakeListings) Get(_ context.Context, id int64) (*listing.Listing, error) {
	l, ok := f.items[id]
	if !ok {
		return nil, listing.ErrListingNotFound
	}
	return l, nil
}

func (f *fakeListings) ListByIDs(_ context.Context, ids []int64) ([]*listing.Listing, error) {
	var out []*listing.Listing
	for _, id := range ids {
		if l, ok := f.items[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

type published struct {
	userID    uuid.UUID
	eventType string
}

type fakeNotifier struct {
	events []published
}

func (f *fakeNotifier) Publish(_ context.Context, userID uuid.UUID, eventType string, _ any) {
	f.events = append(f.events, published{userID, eventType})
}

type fixture struct {
	repo     *fakeRepository
	listings *fakeListings
	notifier *fakeNotifier
	service  *Service
	owner    uuid.UUID
}

const testCost = 10

func newFixture() *fixture {
	f := &fixture{
		repo:     newFakeRepository(),
		listings: &fakeListings{items: map[int64]*listing.Listing{}},
		notifier: &fakeNotifier{},
		owner:    uuid.New(),
	}
	f.service = NewService(f.repo, f.listings, testCost, f.notifier)
	return f
}

func (f *fixture) addListing(id int64, status listing.Status, hidden bool) *listing.Listing {
	l := &listing.Listing{
		ID:           id,
		OwnerID:      f.owner,
		Title:        "Góc bếp chia sẻ",
		Status:       status,
		IsHidden:     hidden,
		ContactName:  "Chị Lan",
		ContactPhone: "0901234567",
	}
	f.listings.items[id] = l
	return l
}

func TestUnlockChargesOnce(t *testing.T) {
	f := newFixture()
	f.addListing(1, listing.StatusApproved, false)
	buyer := uuid.New()
	f.repo.balances[buyer] = 25

	first, err := f.service.Unlock(context.Background(), buyer, 1)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if first.AlreadyUnlocked || first.CoinsSpent != testCost || first.BalanceAfter == nil || *first.BalanceAfter != 15 {
		t.Fatalf("first unlock = %+v", first)
	}
	if first.Contact == nil || first.Contact.Phone != "0901234567" {
		t.Fatalf("contact not revealed: %+v", first.Contact)
	}

	second, err := f.service.Unlock(context.Background(), buyer, 1)
	if err != nil {
		t.Fatalf("second Unlock: %v", err)
	}
	if !second.AlreadyUnlocked || second.CoinsSpent != 0 || second.Contact == nil {
		t.Fatalf("second unlock = %+v", second)
	}
	if f.repo.balances[buyer] != 15 {
		t.Fatalf("balance = %d, want 15", f.repo.balances[buyer])
	}

	if len(f.notifier.events) != 1 || f.notifier.events[0].eventType != notify.EventBalanceUpdated {
		t.Fatalf("events = %+v", f.notifier.events)
	}

	ok, err := f.service.HasUnlocked(context.Background(), buyer, 1)
	if err != nil || !ok {
		t.Fatalf("HasUnlocked = %v, %v", ok, err)
	}
}

func TestUnlockOwnerNeverPays(t *testing.T) {
	f := newFixture()
	f.addListing(1, listing.StatusDraft, false)

	result, err := f.service.Unlock(context.Background(), f.owner, 1)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !result.AlreadyUnlocked || result.CoinsSpent != 0 || result.Contact == nil {
		t.Fatalf("result = %+v", result)
	}
	if len(f.repo.unlocks) != 0 {
		t.Fatal("owner unlock should not be recorded")
	}
}

func TestUnlockRejectsNonPublicListings(t *testing.T) {
	tests := []struct {
		name   string
		status listing.Status
		hidden bool
		want   error
	}{
		{"draft", listing.StatusDraft, false, listing.ErrListingNotFound},
		{"pending", listing.StatusPending, false, listing.ErrListingNotFound},
		{"rejected", listing.StatusRejected, false, listing.ErrListingNotFound},
		{"hidden", listing.StatusApproved, true, listing.ErrListingNotFound},
		{"expired", listing.StatusExpired, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.addListing(7, tt.status, tt.hidden)
			buyer := uuid.New()
			f.repo.balances[buyer] = 100

			_, err := f.service.Unlock(context.Background(), buyer, 7)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUnlockMissingListing(t *testing.T) {
	f := newFixture()
	if _, err := f.service.Unlock(context.Background(), uuid.New(), 404); !errors.Is(err, listing.ErrListingNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnlockInsufficientCoins(t *testing.T) {
	f := newFixture()
	f.addListing(1, listing.StatusApproved, false)
	buyer := uuid.New()
	f.repo.balances[buyer] = testCost - 1

	if _, err := f.service.Unlock(context.Background(), buyer, 1); !errors.Is(err, coin.ErrInsufficientCoins) {
		t.Fatalf("err = %v, want ErrInsufficientCoins", err)
	}
	if len(f.notifier.events) != 0 {
		t.Fatal("no event expected for a failed unlock")
	}
}

func TestUnlockConcurrentWinnerCounts(t *testing.T) {
	f := newFixture()
	f.addListing(1, listing.StatusApproved, false)
	f.repo.raceOnCreate = true

	result, err := f.service.Unlock(context.Background(), uuid.New(), 1)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !result.AlreadyUnlocked || result.CoinsSpent != 0 {
		t.Fatalf("result = %+v", result)
	}
}

func TestUnlockFreeWhenCostIsZero(t *testing.T) {
	f := newFixture()
	f.service = NewService(f.repo, f.listings, 0, nil)
	f.addListing(1, listing.StatusApproved, false)

	result, err := f.service.Unlock(context.Background(), uuid.New(), 1)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if result.BalanceAfter != nil || result.CoinsSpent != 0 || result.AlreadyUnlocked {
		t.Fatalf("result = %+v", result)
	}
}

func TestListMineSkipsMissingListings(t *testing.T) {
	f := newFixture()
	f.addListing(1, listing.StatusApproved, false)
	f.addListing(2, listing.StatusApproved, false)
	buyer := uuid.New()
	f.repo.balances[buyer] = 100

	for _, id := range []int64{1, 2} {
		if _, err := f.service.Unlock(context.Background(), buyer, id); err != nil {
			t.Fatal(err)
		}
	}
	delete(f.listings.items, 1)

	items, total, err := f.service.ListMine(context.Background(), buyer, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 1 || items[0].Listing.ID != 2 {
		t.Fatalf("items = %+v, total = %d", items, total)
	}
}

package coin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sharespace/sharespace-api/internal/pkg/gateway"
)

type fakePricing struct {
	rate  *BaseRate
	tiers []PricingTier
	err   error

	invalidated int
	updated     []*PricingTier
}

func (f *fakePricing) GetBaseRate(context.Context) (*BaseRate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rate, nil
}

func (f *fakePricing) GetActiveTiers(context.Context) ([]PricingTier, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tiers, nil
}

func (f *fakePricing) Invalidate(context.Context) { f.invalidated++ }

func (f *fakePricing) ListTiers(context.Context) ([]PricingTier, error) { return f.tiers, nil }

func (f *fakePricing) GetTier(_ context.Context, id uuid.UUID) (*PricingTier, error) {
	for _, t := range f.tiers {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, ErrTierNotFound
}

func (f *fakePricing) UpdateBaseRate(_ context.Context, coinsPer1000, minTopup int64) (*BaseRate, error) {
	f.rate = &BaseRate{CoinsPer1000: coinsPer1000, MinTopup: minTopup}
	return f.rate, nil
}

func (f *fakePricing) CreateTier(_ context.Context, tier *PricingTier) error {
	tier.ID = uuid.New()
	f.tiers = append(f.tiers, *tier)
	return nil
}

func (f *fakePricing) UpdateTier(_ context.Context, tier *PricingTier) error {
	f.updated = append(f.updated, tier)
	return nil
}

func (f *fakePricing) DeactivateTier(_ context.Context, id uuid.UUID) error {
	for i := range f.tiers {
		if f.tiers[i].ID == id {
			f.tiers[i].IsActive = false
			return nil
		}
	}
	return ErrTierNotFound
}

// fakeLedger mimics the store guarantees: one credit per topup reference,
// balances never negative.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
	txs      []*Transaction
	topups   map[string]*Transaction
	failWith error

	lastOffset int
}

func newFakeLedger(users ...uuid.UUID) *fakeLedger {
	l := &fakeLedger{balances: map[uuid.UUID]int64{}, topups: map[string]*Transaction{}}
	for _, u := range users {
		l.balances[u] = 0
	}
	return l
}

func (l *fakeLedger) apply(entry Entry) (*Transaction, error) {
	balance, ok := l.balances[entry.UserID]
	if !ok {
		return nil, ErrUserNotFound
	}
	next := balance + entry.Amount
	if next < 0 {
		return nil, ErrInsufficientCoins
	}
	l.balances[entry.UserID] = next
	t := &Transaction{
		ID:           uuid.New(),
		UserID:       entry.UserID,
		Type:         entry.Type,
		Amount:       entry.Amount,
		BalanceAfter: next,
		Metadata:     entry.Metadata,
		CreatedAt:    time.Now(),
	}
	t.Reference.String, t.Reference.Valid = entry.Reference, entry.Reference != ""
	l.txs = append(l.txs, t)
	return t, nil
}

func (l *fakeLedger) CreditIfNotSettled(_ context.Context, userID uuid.UUID, coins int64, reference string, metadata JSONMap) (*Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	if _, ok := l.topups[reference]; ok {
		return nil, ErrAlreadySettled
	}
	t, err := l.apply(Entry{UserID: userID, Type: TxTopup, Amount: coins, Reference: reference, Metadata: metadata})
	if err != nil {
		return nil, err
	}
	l.topups[reference] = t
	return t, nil
}

func (l *fakeLedger) GetTopupByReference(_ context.Context, reference string) (*Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.topups[reference], nil
}

func (l *fakeLedger) Apply(_ context.Context, entry Entry) (*Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.apply(entry)
}

func (l *fakeLedger) GetBalance(_ context.Context, userID uuid.UUID) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.balances[userID]
	if !ok {
		return 0, ErrUserNotFound
	}
	return b, nil
}

func (l *fakeLedger) ListTransactions(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastOffset = offset
	var mine []*Transaction
	for i := len(l.txs) - 1; i >= 0; i-- {
		if l.txs[i].UserID == userID {
			mine = append(mine, l.txs[i])
		}
	}
	total := len(mine)
	if offset >= total {
		return []*Transaction{}, total, nil
	}
	return mine[offset:min(offset+limit, total)], total, nil
}

type fakeGateway struct {
	mu     sync.Mutex
	orders map[string]*gateway.Order
	err    error
	calls  int
}

func (g *fakeGateway) CheckOrderStatus(_ context.Context, orderID string) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	o, ok := g.orders[orderID]
	if !ok {
		return nil, gateway.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

type published struct {
	userID    uuid.UUID
	eventType string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []published
}

func (n *fakeNotifier) Publish(_ context.Context, userID uuid.UUID, eventType string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, published{userID, eventType})
}

var errBoom = errors.New("boom")

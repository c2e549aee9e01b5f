package listing

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type fakeRepository struct {
	mu       sync.Mutex
	nextID   int64
	listings map[int64]*Listing
	failWith error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{listings: map[int64]*Listing{}}
}

func (f *fakeRepository) put(l *Listing) *Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l.ID == 0 {
		f.nextID++
		l.ID = f.nextID
	} else if l.ID > f.nextID {
		f.nextID = l.ID
	}
	cp := *l
	f.listings[l.ID] = &cp
	return l
}

func (f *fakeRepository) Create(_ context.Context, l *Listing) error {
	if f.failWith != nil {
		return f.failWith
	}
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	f.put(l)
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id int64) (*Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	l, ok := f.listings[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeRepository) Update(_ context.Context, l *Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.listings[l.ID]; !ok {
		return ErrListingNotFound
	}
	cp := *l
	f.listings[l.ID] = &cp
	return nil
}

func (f *fakeRepository) UpdateStatus(_ context.Context, id int64, status Status, rejectReason *string, expiresAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return ErrListingNotFound
	}
	l.Status = status
	l.RejectReason.Valid = rejectReason != nil
	if rejectReason != nil {
		l.RejectReason.String = *rejectReason
	}
	if expiresAt != nil {
		l.ExpiresAt.Time, l.ExpiresAt.Valid = *expiresAt, true
	}
	return nil
}

func (f *fakeRepository) SetHidden(_ context.Context, id int64, hidden bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return ErrListingNotFound
	}
	l.IsHidden = hidden
	return nil
}

func (f *fakeRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Listing
	for _, l := range f.listings {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b *Listing) int { return int(b.ID - a.ID) })
	return out, nil
}

func (f *fakeRepository) ListByStatus(_ context.Context, status Status, limit, offset int) ([]*Listing, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Listing
	for _, l := range f.listings {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepository) ListByIDs(_ context.Context, ids []int64) ([]*Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Listing
	for _, id := range ids {
		if l, ok := f.listings[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRepository) AppendImage(_ context.Context, id int64, url string, maxImages int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok || len(l.Images) >= maxImages {
		return ErrTooManyImages
	}
	l.Images = append(l.Images, url)
	return nil
}

func (f *fakeRepository) SearchCandidates(_ context.Context, _ CandidateQuery) ([]*Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Listing, 0, len(f.listings))
	for _, l := range f.listings {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeRepository) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, l := range f.listings {
		if l.Status == StatusApproved && l.ExpiresAt.Valid && !l.ExpiresAt.Time.After(now) {
			l.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

type unlockKey struct {
	userID    uuid.UUID
	listingID int64
}

type fakeUnlocks map[unlockKey]bool

func (f fakeUnlocks) HasUnlocked(_ context.Context, userID uuid.UUID, listingID int64) (bool, error) {
	return f[unlockKey{userID, listingID}], nil
}

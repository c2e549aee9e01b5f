package listing

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sharespace/sharespace-api/internal/pkg/imaging"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryStorage) Put(_ context.Context, key string, reader io.Reader, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) GetURL(key string) string {
	return "https://cdn.example.test/" + key
}

func approvedListing(owner uuid.UUID) *Listing {
	return &Listing{
		OwnerID:      owner,
		Title:        "Văn phòng chia sẻ Quận 1",
		Status:       StatusApproved,
		OldProvince:  "Hồ Chí Minh",
		ContactName:  "Lan",
		ContactPhone: "0901234567",
	}
}

func TestCreateListing(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil, nil)
	owner := uuid.New()

	l, err := svc.Create(context.Background(), owner, &CreateListingRequest{
		Title: "Phòng họp", Address: "1 Lê Lợi", SpaceType: []string{"meeting_room"},
		PriceMin: 100000, PriceMax: 200000, OldProvince: "Hà Nội",
		ContactName: "Minh", ContactPhone: "0900000000",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == 0 || l.Status != StatusDraft {
		t.Fatalf("got id=%d status=%s, want draft with id", l.ID, l.Status)
	}

	l, err = svc.Create(context.Background(), owner, &CreateListingRequest{Title: "Phòng họp 2", Submit: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.Status != StatusPending {
		t.Fatalf("status = %s, want pending", l.Status)
	}

	_, err = svc.Create(context.Background(), owner, &CreateListingRequest{PriceMin: 500, PriceMax: 100})
	if !errors.Is(err, ErrInvalidPriceRange) {
		t.Fatalf("err = %v, want ErrInvalidPriceRange", err)
	}
}

func TestGetByIDContactReveal(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	buyer := uuid.New()
	stranger := uuid.New()
	l := repo.put(approvedListing(owner))
	unlocks := fakeUnlocks{{buyer, l.ID}: true}
	svc := NewService(repo, unlocks, nil, nil)

	tests := []struct {
		name       string
		viewer     *Viewer
		wantReveal bool
	}{
		{"anonymous", nil, false},
		{"stranger", &Viewer{UserID: stranger}, false},
		{"unlocked buyer", &Viewer{UserID: buyer}, true},
		{"owner", &Viewer{UserID: owner}, true},
		{"admin", &Viewer{UserID: stranger, IsAdmin: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetByID(context.Background(), l.ID, tt.viewer)
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if got := resp.Contact != nil; got != tt.wantReveal {
				t.Fatalf("contact revealed = %v, want %v", got, tt.wantReveal)
			}
			if tt.wantReveal && resp.Contact.Phone != "0901234567" {
				t.Fatalf("phone = %q", resp.Contact.Phone)
			}
		})
	}
}

func TestGetByIDHidesInvisibleListings(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	draft := approvedListing(owner)
	draft.Status = StatusDraft
	repo.put(draft)
	hidden := approvedListing(owner)
	hidden.IsHidden = true
	repo.put(hidden)
	svc := NewService(repo, nil, nil, nil)

	for _, id := range []int64{draft.ID, hidden.ID, 999} {
		if _, err := svc.GetByID(context.Background(), id, &Viewer{UserID: uuid.New()}); !errors.Is(err, ErrListingNotFound) {
			t.Fatalf("id %d: err = %v, want ErrListingNotFound", id, err)
		}
		if id == 999 {
			continue
		}
		if _, err := svc.GetByID(context.Background(), id, &Viewer{UserID: owner}); err != nil {
			t.Fatalf("owner must see own listing %d: %v", id, err)
		}
	}
}

func TestUpdateSendsApprovedBackToModeration(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	l := repo.put(approvedListing(owner))
	svc := NewService(repo, nil, nil, nil)

	title := "Văn phòng mới"
	updated, err := svc.Update(context.Background(), l.ID, owner, &UpdateListingRequest{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != StatusPending || updated.Title != title {
		t.Fatalf("got status=%s title=%q", updated.Status, updated.Title)
	}

	if _, err := svc.Update(context.Background(), l.ID, uuid.New(), &UpdateListingRequest{Title: &title}); !errors.Is(err, ErrNotListingOwner) {
		t.Fatalf("err = %v, want ErrNotListingOwner", err)
	}

	low, high := int64(900), int64(100)
	if _, err := svc.Update(context.Background(), l.ID, owner, &UpdateListingRequest{PriceMin: &low, PriceMax: &high}); !errors.Is(err, ErrInvalidPriceRange) {
		t.Fatalf("err = %v, want ErrInvalidPriceRange", err)
	}
}

func TestModerationTransitions(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	l := approvedListing(owner)
	l.Status = StatusDraft
	repo.put(l)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, l.ID, time.Hour); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approving a draft: err = %v", err)
	}
	if _, err := svc.Submit(ctx, l.ID, owner); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Submit(ctx, l.ID, owner); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double submit: err = %v", err)
	}

	rejected, err := svc.Reject(ctx, l.ID, "missing photos")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != StatusRejected || rejected.RejectReason.String != "missing photos" {
		t.Fatalf("unexpected reject result %+v", rejected)
	}

	if _, err := svc.Submit(ctx, l.ID, owner); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	approved, err := svc.Approve(ctx, l.ID, 24*time.Hour)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !approved.ExpiresAt.Valid || time.Until(approved.ExpiresAt.Time) < 23*time.Hour {
		t.Fatalf("expires_at not set: %+v", approved.ExpiresAt)
	}
}

func TestDeleteHidesListing(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	l := repo.put(approvedListing(owner))
	svc := NewService(repo, nil, nil, nil)

	if err := svc.Delete(context.Background(), l.ID, uuid.New()); !errors.Is(err, ErrNotListingOwner) {
		t.Fatalf("err = %v, want ErrNotListingOwner", err)
	}
	if err := svc.Delete(context.Background(), l.ID, owner); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), l.ID)
	if !got.IsHidden {
		t.Fatal("listing should be hidden after delete")
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	l := repo.put(approvedListing(owner))
	store := &memoryStorage{}
	svc := NewService(repo, nil, store, imaging.NewProcessor(imaging.DefaultConfig()))

	url, err := svc.UploadImage(context.Background(), l.ID, owner, bytes.NewReader(testPNG(t, 800, 600)))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.example.test/listings/") {
		t.Fatalf("url = %q", url)
	}
	if len(store.objects) != 2 {
		t.Fatalf("stored %d objects, want display and thumbnail", len(store.objects))
	}
	got, _ := repo.GetByID(context.Background(), l.ID)
	if len(got.Images) != 1 || got.Images[0] != url {
		t.Fatalf("images = %v", got.Images)
	}

	if _, err := svc.UploadImage(context.Background(), l.ID, owner, strings.NewReader("not an image")); err == nil {
		t.Fatal("expected error for non-image upload")
	}
}

func TestUploadImageWithoutStorage(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, nil, nil)
	if _, err := svc.UploadImage(context.Background(), 1, uuid.New(), strings.NewReader("x")); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("err = %v, want ErrStorageUnavailable", err)
	}
}

func TestExpiryWorkerRunOnce(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	due := approvedListing(owner)
	due.ExpiresAt.Time, due.ExpiresAt.Valid = time.Now().Add(-time.Minute), true
	repo.put(due)
	fresh := approvedListing(owner)
	fresh.ExpiresAt.Time, fresh.ExpiresAt.Valid = time.Now().Add(time.Hour), true
	repo.put(fresh)

	w := NewExpiryWorker(repo, time.Minute)
	if n := w.RunOnce(); n != 1 {
		t.Fatalf("expired %d listings, want 1", n)
	}
	got, _ := repo.GetByID(context.Background(), due.ID)
	if got.Status != StatusExpired || !got.IsPubliclyVisible() {
		t.Fatalf("expired listing must stay visible, got %+v", got.Status)
	}
}

func TestSessions(t *testing.T) {
	l := &Listing{TimeSlots: []string{"Ngày thường|Sáng", "Cuối tuần|Tối", "Chiều"}}
	got := l.Sessions()
	want := []string{"Sáng", "Tối"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Sessions() = %v, want %v", got, want)
	}
}

package unlock

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sharespace/sharespace-api/internal/domain/listing"
	"github.com/sharespace/sharespace-api/internal/middleware"
)

func asUser(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), userID, "member")))
		})
	}
}

func newTestRouter(h *Handler, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.With(asUser(userID)).Post("/listings/{id}/unlock", h.Unlock)
	r.Mount("/unlocks", h.Routes(asUser(userID)))
	return r
}

func TestUnlockHandlerStatuses(t *testing.T) {
	f := newFixture()
	f.addListing(1, listing.StatusApproved, false)
	f.addListing(2, listing.StatusPending, false)
	rich, poor := uuid.New(), uuid.New()
	f.repo.balances[rich] = 100

	tests := []struct {
		name   string
		user   uuid.UUID
		path   string
		status int
	}{
		{"unlocked", rich, "/listings/1/unlock", http.StatusOK},
		{"not public", rich, "/listings/2/unlock", http.StatusNotFound},
		{"bad id", rich, "/listings/abc/unlock", http.StatusBadRequest},
		{"insufficient coins", poor, "/listings/1/unlock", http.StatusConflict},
	}

	h := NewHandler(f.service)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(h, tt.user).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestListMineHandlerRevealsContacts(t *testing.T) {
	f := newFixture()
	f.addListing(1, listing.StatusApproved, false)
	buyer := uuid.New()
	f.repo.balances[buyer] = 100
	if _, err := f.service.Unlock(t.Context(), buyer, 1); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	newTestRouter(NewHandler(f.service), buyer).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unlocks/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data []UnlockedListingResponse `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Meta.Total != 1 || len(body.Data) != 1 {
		t.Fatalf("body = %+v", body)
	}
	if body.Data[0].Listing.Contact == nil || body.Data[0].CoinsSpent != testCost {
		t.Fatalf("entry = %+v", body.Data[0])
	}
}

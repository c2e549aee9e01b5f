package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sharespace/sharespace-api/internal/domain/coin"
	"github.com/sharespace/sharespace-api/internal/domain/listing"
	"github.com/sharespace/sharespace-api/internal/middleware"
)

func asAdmin(adminID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), adminID, middleware.RoleAdmin)))
		})
	}
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestRoutesRegistered(t *testing.T) {
	r := NewHandler(newFixture().service).Routes()

	patterns := map[string]bool{}
	if err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		patterns[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk routes: %v", err)
	}

	for _, want := range []string{
		"GET /listings/",
		"POST /listings/{id}/approve",
		"POST /listings/{id}/reject",
		"POST /listings/{id}/hide",
		"POST /listings/{id}/unhide",
		"POST /users/{id}/ban",
		"POST /users/{id}/unban",
		"GET /users/{id}/coins",
		"POST /users/{id}/coins/adjust",
		"GET /pricing/",
		"PUT /pricing/base-rate",
		"POST /pricing/tiers",
		"PUT /pricing/tiers/{id}",
		"DELETE /pricing/tiers/{id}",
	} {
		if !patterns[want] {
			t.Errorf("route %q not registered", want)
		}
	}
}

func TestNonAdminIsForbidden(t *testing.T) {
	f := newFixture()
	member := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), f.ownerID, "member")))
		})
	}
	r := NewHandler(f.service).Routes(member, middleware.RequireAdmin())

	rec := serve(r, http.MethodGet, "/listings/", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestListingModerationHandlers(t *testing.T) {
	f := newFixture()
	f.addListing(1, listing.StatusPending)
	f.addListing(2, listing.StatusPending)
	f.addListing(3, listing.StatusApproved)
	r := NewHandler(f.service).Routes(asAdmin(f.adminID))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"list pending", http.MethodGet, "/listings/?status=pending", "", http.StatusOK},
		{"list bad status", http.MethodGet, "/listings/?status=archived", "", http.StatusBadRequest},
		{"approve", http.MethodPost, "/listings/1/approve", "", http.StatusOK},
		{"approve twice", http.MethodPost, "/listings/1/approve", "", http.StatusConflict},
		{"reject without reason", http.MethodPost, "/listings/2/reject", `{}`, http.StatusUnprocessableEntity},
		{"reject", http.MethodPost, "/listings/2/reject", `{"reason":"Thiếu ảnh"}`, http.StatusOK},
		{"hide", http.MethodPost, "/listings/3/hide", "", http.StatusOK},
		{"hide missing", http.MethodPost, "/listings/42/hide", "", http.StatusNotFound},
		{"bad id", http.MethodPost, "/listings/x/approve", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(r, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	if !f.listings.items[3].IsHidden {
		t.Fatal("listing 3 should be hidden")
	}
}

func TestCoinHandlers(t *testing.T) {
	f := newFixture()
	r := NewHandler(f.service).Routes(asAdmin(f.adminID))
	owner := f.ownerID.String()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"adjust up", http.MethodPost, "/users/" + owner + "/coins/adjust", `{"amount":25,"reason":"goodwill"}`, http.StatusOK},
		{"adjust below zero", http.MethodPost, "/users/" + owner + "/coins/adjust", `{"amount":-500,"reason":"chargeback"}`, http.StatusConflict},
		{"adjust zero", http.MethodPost, "/users/" + owner + "/coins/adjust", `{"amount":0,"reason":"noop"}`, http.StatusUnprocessableEntity},
		{"reward", http.MethodPost, "/users/" + owner + "/coins/reward", `{"amount":5,"reason":"referral"}`, http.StatusOK},
		{"unknown user", http.MethodPost, "/users/" + uuid.NewString() + "/coins/adjust", `{"amount":5,"reason":"oops"}`, http.StatusNotFound},
		{"get coins", http.MethodGet, "/users/" + owner + "/coins", "", http.StatusOK},
		{"bad user id", http.MethodGet, "/users/nope/coins", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(r, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	if f.coins.balances[f.ownerID] != 80 {
		t.Fatalf("balance = %d, want 80", f.coins.balances[f.ownerID])
	}
	if by := f.coins.adjusted[0].CreatedBy; by == nil || *by != f.adminID {
		t.Fatal("adjustment should record the acting admin")
	}
}

func TestPricingHandlers(t *testing.T) {
	f := newFixture()
	r := NewHandler(f.service).Routes(asAdmin(f.adminID))

	rec := serve(r, http.MethodPost, "/pricing/tiers", `{"label":"Gói 200k","min_amount":200000,"coins_granted":250}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Data coin.PricingTier `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if !created.Data.IsActive {
		t.Fatal("tiers are active by default")
	}
	tierPath := "/pricing/tiers/" + created.Data.ID.String()

	if rec := serve(r, http.MethodPut, tierPath, `{"coins_granted":300}`); rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	if f.coins.tiers[0].CoinsGranted != 300 || f.coins.tiers[0].Label != "Gói 200k" {
		t.Fatalf("tier = %+v", f.coins.tiers[0])
	}
	if rec := serve(r, http.MethodPut, tierPath, `{"coins_granted":0}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("zero coins status = %d, want 422", rec.Code)
	}
	if rec := serve(r, http.MethodDelete, tierPath, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate status = %d", rec.Code)
	}
	if f.coins.tiers[0].IsActive {
		t.Fatal("tier should be inactive")
	}
	if rec := serve(r, http.MethodDelete, "/pricing/tiers/"+uuid.NewString(), ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing tier status = %d", rec.Code)
	}

	if rec := serve(r, http.MethodPut, "/pricing/base-rate", `{"coins_per_1000":0}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid base rate status = %d", rec.Code)
	}
	if rec := serve(r, http.MethodPut, "/pricing/base-rate", `{"coins_per_1000":2,"min_topup":20000}`); rec.Code != http.StatusOK {
		t.Fatalf("base rate status = %d", rec.Code)
	}

	rec = serve(r, http.MethodGet, "/pricing/", "")
	var cfg struct {
		Data PricingConfigResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Data.CoinsPer1000 != 2 || len(cfg.Data.Tiers) != 1 {
		t.Fatalf("pricing = %+v", cfg.Data)
	}
}

func TestBanHandlers(t *testing.T) {
	f := newFixture()
	r := NewHandler(f.service).Routes(asAdmin(f.adminID))

	if rec := serve(r, http.MethodPost, "/users/"+f.ownerID.String()+"/ban", ""); rec.Code != http.StatusOK {
		t.Fatalf("ban status = %d", rec.Code)
	}
	if rec := serve(r, http.MethodPost, "/users/"+f.adminID.String()+"/ban", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("self ban status = %d", rec.Code)
	}
	if rec := serve(r, http.MethodPost, "/users/"+f.ownerID.String()+"/unban", ""); rec.Code != http.StatusOK {
		t.Fatalf("unban status = %d", rec.Code)
	}
	if f.users.users[f.ownerID].IsBanned {
		t.Fatal("member should be unbanned")
	}
}

package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMountListingRoutes(t *testing.T) {
	var hit string
	mark := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			hit = name
			w.WriteHeader(http.StatusOK)
		}
	}

	listings := chi.NewRouter()
	listings.Get("/{id}", mark("listing"))
	listings.Get("/my", mark("my"))

	root := chi.NewRouter()
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				t.Fatalf("registering listing routes panicked: %v", rec)
			}
		}()
		mountListingRoutes(root, func(next http.Handler) http.Handler { return next }, mark("search"), mark("unlock"), listings)
	}()

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/listings/search?province=HCM", "search"},
		{http.MethodPost, "/listings/12/unlock", "unlock"},
		{http.MethodGet, "/listings/12", "listing"},
		{http.MethodGet, "/listings/my", "my"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			hit = ""
			rr := httptest.NewRecorder()
			root.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rr.Code)
			}
			if hit != tt.want {
				t.Fatalf("routed to %q, want %q", hit, tt.want)
			}
		})
	}
}

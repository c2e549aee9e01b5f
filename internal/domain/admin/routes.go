package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns admin router. Callers pass Auth and RequireAdmin.
func (h *Handler) Routes(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares...)

	// Listing moderation
	r.Route("/listings", func(r chi.Router) {
		r.Get("/", h.ListListings)
		r.Post("/{id}/approve", h.ApproveListing)
		r.Post("/{id}/reject", h.RejectListing)
		r.Post("/{id}/hide", h.HideListing)
		r.Post("/{id}/unhide", h.UnhideListing)
	})

	// User management
	r.Route("/users/{id}", func(r chi.Router) {
		r.Post("/ban", h.BanUser)
		r.Post("/unban", h.UnbanUser)
		r.Get("/coins", h.GetUserCoins)
		r.Post("/coins/adjust", h.AdjustUserCoins)
		r.Post("/coins/reward", h.RewardUserCoins)
	})

	// Coin pricing
	r.Route("/pricing", func(r chi.Router) {
		r.Get("/", h.GetPricing)
		r.Put("/base-rate", h.UpdateBaseRate)
		r.Post("/tiers", h.CreateTier)
		r.Put("/tiers/{id}", h.UpdateTier)
		r.Delete("/tiers/{id}", h.DeactivateTier)
	})

	return r
}

package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sharespace/sharespace-api/internal/domain/coin"
	"github.com/sharespace/sharespace-api/internal/middleware"
	"github.com/sharespace/sharespace-api/internal/pkg/response"
	"github.com/sharespace/sharespace-api/internal/pkg/validator"
)

// GetUserCoins handles GET /admin/users/{id}/coins
func (h *Handler) GetUserCoins(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	page, limit := pagination(r)

	balance, err := h.service.coins.GetBalance(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, total, err := h.service.coins.ListTransactions(r.Context(), userID, limit, response.Offset(page, limit))
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs := make([]coin.TransactionResponse, len(items))
	for i, t := range items {
		txs[i] = coin.TransactionResponseFromEntity(t)
	}
	response.OK(w, UserCoinsResponse{UserID: userID, Balance: balance, Transactions: txs, Total: total})
}

// AdjustUserCoins handles POST /admin/users/{id}/coins/adjust
// @Summary Correct a member's coin balance
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body coin.AdjustRequest true "Signed amount and reason"
// @Success 200 {object} response.Response{data=coin.TransactionResponse}
// @Failure 400,404,409,422 {object} response.Response
// @Router /admin/users/{id}/coins/adjust [post]
func (h *Handler) AdjustUserCoins(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req coin.AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	t, err := h.service.coins.AdminAdjust(r.Context(), userID, req.Amount, req.Reason, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, coin.TransactionResponseFromEntity(t))
}

// RewardUserCoins handles POST /admin/users/{id}/coins/reward
func (h *Handler) RewardUserCoins(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req coin.RewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	t, err := h.service.coins.Reward(r.Context(), userID, req.Amount, req.Reason, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, coin.TransactionResponseFromEntity(t))
}

// --- Pricing ---

// GetPricing handles GET /admin/pricing. Inactive tiers are included.
func (h *Handler) GetPricing(w http.ResponseWriter, r *http.Request) {
	rate, _, err := h.service.coins.Pricing(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	tiers, err := h.service.coins.ListTiers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, PricingConfigResponse{CoinsPer1000: rate.CoinsPer1000, MinTopup: rate.MinTopup, Tiers: tiers})
}

// UpdateBaseRate handles PUT /admin/pricing/base-rate
func (h *Handler) UpdateBaseRate(w http.ResponseWriter, r *http.Request) {
	var req coin.BaseRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	rate, err := h.service.coins.UpdateBaseRate(r.Context(), req.CoinsPer1000, req.MinTopup)
	if err != nil {
		writeError(w, r, err)
		return
	}
	audit(r.Context(), middleware.GetUserID(r.Context()), "pricing.base_rate").
		Int64("coins_per_1000", rate.CoinsPer1000).
		Int64("min_topup", rate.MinTopup).
		Msg("Admin action")
	response.OK(w, rate)
}

// CreateTier handles POST /admin/pricing/tiers
func (h *Handler) CreateTier(w http.ResponseWriter, r *http.Request) {
	var req coin.TierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	tier := &coin.PricingTier{
		Label:        req.Label,
		MinAmount:    req.MinAmount,
		CoinsGranted: req.CoinsGranted,
		IsActive:     req.IsActive == nil || *req.IsActive,
		DisplayOrder: req.DisplayOrder,
	}
	if err := h.service.coins.CreateTier(r.Context(), tier); err != nil {
		writeError(w, r, err)
		return
	}
	audit(r.Context(), middleware.GetUserID(r.Context()), "pricing.tier_create").
		Str("tier_id", tier.ID.String()).
		Msg("Admin action")
	response.Created(w, tier)
}

// UpdateTier handles PUT /admin/pricing/tiers/{id}
func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid tier ID")
		return
	}

	var req coin.UpdateTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	tier, err := h.service.coins.UpdateTier(r.Context(), id, req.Apply)
	if err != nil {
		writeError(w, r, err)
		return
	}
	audit(r.Context(), middleware.GetUserID(r.Context()), "pricing.tier_update").
		Str("tier_id", id.String()).
		Msg("Admin action")
	response.OK(w, tier)
}

// DeactivateTier handles DELETE /admin/pricing/tiers/{id}
func (h *Handler) DeactivateTier(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid tier ID")
		return
	}
	if err := h.service.coins.DeactivateTier(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	audit(r.Context(), middleware.GetUserID(r.Context()), "pricing.tier_deactivate").
		Str("tier_id", id.String()).
		Msg("Admin action")
	response.NoContent(w)
}

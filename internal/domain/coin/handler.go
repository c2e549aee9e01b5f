package coin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/sharespace/sharespace-api/internal/middleware"
	"github.com/sharespace/sharespace-api/internal/pkg/errorhandler"
	"github.com/sharespace/sharespace-api/internal/pkg/response"
	"github.com/sharespace/sharespace-api/internal/pkg/validator"
)

const recentTransactions = 10

// Handler handles coin HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates coin handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns coin router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Public routes
	r.Get("/pricing", h.GetPricing)
	r.Get("/quote", h.Quote)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/wallet", h.Wallet)
		r.Get("/transactions", h.ListTransactions)
		r.Post("/topups/verify", h.VerifyTopup)
	})

	return r
}

// GetPricing handles GET /coins/pricing
// @Summary Coin pricing
// @Tags Coins
// @Produce json
// @Success 200 {object} response.Response{data=PricingResponse}
// @Failure 503 {object} response.Response
// @Router /coins/pricing [get]
func (h *Handler) GetPricing(w http.ResponseWriter, r *http.Request) {
	rate, tiers, err := h.service.Pricing(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Pricing is temporarily unavailable", err)
		return
	}
	if tiers == nil {
		tiers = []PricingTier{}
	}
	response.OK(w, PricingResponse{CoinsPer1000: rate.CoinsPer1000, MinTopup: rate.MinTopup, Tiers: tiers})
}

// Quote handles GET /coins/quote?amount=
// @Summary Preview coins for an amount
// @Tags Coins
// @Produce json
// @Param amount query int true "Amount in VND"
// @Success 200 {object} response.Response{data=QuoteResponse}
// @Failure 400 {object} response.Response
// @Router /coins/quote [get]
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil || amount <= 0 {
		response.BadRequest(w, "amount must be a positive integer")
		return
	}
	resolution, _ := h.service.ResolveForAmount(r.Context(), amount)
	response.OK(w, QuoteResponse{Amount: amount, Resolution: resolution})
}

// Wallet handles GET /coins/wallet
// @Summary Wallet summary
// @Tags Coins
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=WalletResponse}
// @Router /coins/wallet [get]
func (h *Handler) Wallet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var (
		balance int64
		recent  []*Transaction
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		balance, err = h.service.GetBalance(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, _, err = h.service.ListTransactions(ctx, userID, recentTransactions, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
		return
	}

	out := WalletResponse{Balance: balance, Transactions: make([]TransactionResponse, len(recent))}
	for i, t := range recent {
		out.Transactions[i] = TransactionResponseFromEntity(t)
	}
	response.OK(w, out)
}

// ListTransactions handles GET /coins/transactions?page=&limit=
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, total, err := h.service.ListTransactions(r.Context(), middleware.GetUserID(r.Context()), limit, response.Offset(page, limit))
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
		return
	}

	out := make([]TransactionResponse, len(items))
	for i, t := range items {
		out[i] = TransactionResponseFromEntity(t)
	}
	response.WithMeta(w, out, response.NewMeta(total, page, limit))
}

// VerifyTopup handles POST /coins/topups/verify
// @Summary Confirm a topup after payment
// @Tags Coins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VerifyTopupRequest true "Order"
// @Success 200 {object} response.Response{data=Outcome}
// @Failure 400,403,404,422,502 {object} response.Response
// @Router /coins/topups/verify [post]
func (h *Handler) VerifyTopup(w http.ResponseWriter, r *http.Request) {
	var req VerifyTopupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	outcome, err := h.service.ProcessOrder(r.Context(), req.OrderID, &userID, ChannelVerify)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	response.OK(w, outcome)
}

func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		response.NotFound(w, "Payment order not found")
	case errors.Is(err, ErrOrderOwnerMismatch):
		response.Forbidden(w, "Payment order belongs to another account")
	case errors.Is(err, ErrInvalidOrder):
		response.Error(w, http.StatusUnprocessableEntity, "INVALID_ORDER", "Payment order cannot be settled")
	case errors.Is(err, ErrUserNotFound):
		response.Error(w, http.StatusUnprocessableEntity, "INVALID_ORDER", "Payment order customer does not exist")
	case errors.Is(err, ErrGatewayUnavailable):
		errorhandler.HandleError(r.Context(), w, http.StatusBadGateway, "UPSTREAM_ERROR", "Payment gateway is unavailable, please retry", err)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}

package coin

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/sharespace/sharespace-api/internal/pkg/gateway"
	"github.com/sharespace/sharespace-api/internal/pkg/response"
)

const maxWebhookBody = 64 << 10

// WebhookHandler receives payment gateway notifications
type WebhookHandler struct {
	service *Service
	secret  string
}

// NewWebhookHandler creates webhook handler
func NewWebhookHandler(service *Service, secret string) *WebhookHandler {
	return &WebhookHandler{service: service, secret: secret}
}

// Routes returns webhook router
func (h *WebhookHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/payments", h.HandlePayment)
	return r
}

// HandlePayment handles POST /webhooks/payments
// @Summary Payment gateway webhook
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Signature header string true "HMAC-SHA256 of the body"
// @Success 200 {object} response.Response{data=Outcome}
// @Failure 400,401,404,502,503 {object} response.Response
// @Router /webhooks/payments [post]
func (h *WebhookHandler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		log.Error().Msg("Payment webhook received but no webhook secret is configured")
		response.ServiceUnavailable(w, "Webhook is not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "Failed to read body")
		return
	}

	signature := r.Header.Get(gateway.SignatureHeader)
	if !gateway.VerifySignature(body, signature, h.secret) {
		log.Warn().Str("remote_addr", r.RemoteAddr).Msg("Invalid payment webhook signature")
		response.Unauthorized(w, "Invalid signature")
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	orderID := strings.TrimSpace(payload.OrderID)
	if orderID == "" {
		response.BadRequest(w, "order_id is required")
		return
	}

	log.Info().
		Str("order_id", orderID).
		Str("reported_status", payload.Status).
		Msg("Payment webhook received")

	outcome, err := h.service.ProcessOrder(r.Context(), orderID, nil, ChannelWebhook)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	response.OK(w, outcome)
}

package coin

import (
	"time"

	"github.com/google/uuid"
)

// VerifyTopupRequest is sent by the payer after returning from the gateway
type VerifyTopupRequest struct {
	OrderID string `json:"order_id" validate:"required,max=128"`
}

// WebhookPayload is the gateway notification body. Only OrderID is trusted;
// the order is re-read from the gateway.
type WebhookPayload struct {
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	Amount     string `json:"amount"`
	CustomerID string `json:"customer_id"`
}

// PricingResponse lists the public pricing configuration
type PricingResponse struct {
	CoinsPer1000 int64         `json:"coins_per_1000"`
	MinTopup     int64         `json:"min_topup"`
	Tiers        []PricingTier `json:"tiers"`
}

// QuoteResponse previews a topup
type QuoteResponse struct {
	Amount int64 `json:"amount"`
	Resolution
}

// TransactionResponse is a ledger row in API responses
type TransactionResponse struct {
	ID           uuid.UUID `json:"id"`
	Type         TxType    `json:"type"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Reference    string    `json:"reference,omitempty"`
	Metadata     JSONMap   `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TransactionResponseFromEntity converts a ledger row
func TransactionResponseFromEntity(t *Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		Type:         t.Type,
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		Reference:    t.Reference.String,
		Metadata:     t.Metadata,
		CreatedAt:    t.CreatedAt,
	}
}

// WalletResponse is the wallet summary
type WalletResponse struct {
	Balance      int64                 `json:"balance"`
	Transactions []TransactionResponse `json:"recent_transactions"`
}

// AdjustRequest is an admin balance correction
type AdjustRequest struct {
	Amount int64  `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// RewardRequest grants promotional coins
type RewardRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// BaseRateRequest updates the flat rate
type BaseRateRequest struct {
	CoinsPer1000 int64 `json:"coins_per_1000" validate:"required,gte=1"`
	MinTopup     int64 `json:"min_topup" validate:"gte=0"`
}

// TierRequest creates a tier
type TierRequest struct {
	Label        string `json:"label" validate:"required,max=100"`
	MinAmount    int64  `json:"min_amount" validate:"gte=0"`
	CoinsGranted int64  `json:"coins_granted" validate:"required,gt=0"`
	IsActive     *bool  `json:"is_active"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

// UpdateTierRequest changes a tier. Nil fields are left unchanged.
type UpdateTierRequest struct {
	Label        *string `json:"label" validate:"omitempty,max=100"`
	MinAmount    *int64  `json:"min_amount" validate:"omitempty,gte=0"`
	CoinsGranted *int64  `json:"coins_granted" validate:"omitempty,gt=0"`
	IsActive     *bool   `json:"is_active"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,gte=0"`
}

// Apply copies set fields onto tier
func (r *UpdateTierRequest) Apply(tier *PricingTier) {
	if r.Label != nil {
		tier.Label = *r.Label
	}
	if r.MinAmount != nil {
		tier.MinAmount = *r.MinAmount
	}
	if r.CoinsGranted != nil {
		tier.CoinsGranted = *r.CoinsGranted
	}
	if r.IsActive != nil {
		tier.IsActive = *r.IsActive
	}
	if r.DisplayOrder != nil {
		tier.DisplayOrder = *r.DisplayOrder
	}
}

package admin

import (
	"github.com/google/uuid"

	"github.com/sharespace/sharespace-api/internal/domain/coin"
)

// RejectListingRequest for POST /admin/listings/{id}/reject
type RejectListingRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// UserCoinsResponse is a member's wallet as seen by an admin
type UserCoinsResponse struct {
	UserID       uuid.UUID                  `json:"user_id"`
	Balance      int64                      `json:"balance"`
	Transactions []coin.TransactionResponse `json:"transactions"`
	Total        int                        `json:"total_transactions"`
}

// PricingConfigResponse includes inactive tiers
type PricingConfigResponse struct {
	CoinsPer1000 int64              `json:"coins_per_1000"`
	MinTopup     int64              `json:"min_topup"`
	Tiers        []coin.PricingTier `json:"tiers"`
}

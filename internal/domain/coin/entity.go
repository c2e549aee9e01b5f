package coin

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Source tells which pricing rule produced a resolution
type Source string

const (
	SourceTier     Source = "tier"
	SourceBaseRate Source = "base_rate"
)

// BaseRate is the flat coin pricing configuration
type BaseRate struct {
	CoinsPer1000 int64     `db:"coins_per_1000" json:"coins_per_1000"`
	MinTopup     int64     `db:"min_topup" json:"min_topup"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PricingTier grants a flat coin amount for payments of at least MinAmount
type PricingTier struct {
	ID           uuid.UUID `json:"id"`
	Label        string    `json:"label"`
	MinAmount    int64     `json:"min_amount"`
	CoinsGranted int64     `json:"coins_granted"`
	IsActive     bool      `json:"is_active"`
	DisplayOrder int       `json:"display_order"`
}

// tierRow mirrors coin_pricing_tiers, whose payload columns are nullable
type tierRow struct {
	ID           uuid.UUID      `db:"id"`
	Label        sql.NullString `db:"label"`
	MinAmount    sql.NullInt64  `db:"min_amount"`
	CoinsGranted sql.NullInt64  `db:"coins_granted"`
	IsActive     bool           `db:"is_active"`
	DisplayOrder sql.NullInt32  `db:"display_order"`
}

var errMalformedTier = errors.New("malformed pricing tier")

// toTier validates a raw row
func (r tierRow) toTier() (PricingTier, error) {
	if !r.MinAmount.Valid || r.MinAmount.Int64 < 0 {
		return PricingTier{}, errMalformedTier
	}
	if !r.CoinsGranted.Valid || r.CoinsGranted.Int64 <= 0 {
		return PricingTier{}, errMalformedTier
	}
	return PricingTier{
		ID:           r.ID,
		Label:        r.Label.String,
		MinAmount:    r.MinAmount.Int64,
		CoinsGranted: r.CoinsGranted.Int64,
		IsActive:     r.IsActive,
		DisplayOrder: int(r.DisplayOrder.Int32),
	}, nil
}

// Resolution is the outcome of pricing an amount
type Resolution struct {
	Coins        int64      `json:"coins"`
	Source       Source     `json:"source"`
	TierID       *uuid.UUID `json:"tier_id,omitempty"`
	BaseRateUsed int64      `json:"base_rate_used"`
}

// TxType is the ledger entry kind
type TxType string

const (
	TxTopup           TxType = "topup"
	TxUnlock          TxType = "unlock"
	TxAdminAdjustment TxType = "admin_adjustment"
	TxReward          TxType = "reward"
)

// JSONMap is a jsonb column
type JSONMap map[string]any

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("coin: unsupported metadata type")
	}
	return json.Unmarshal(data, m)
}

// Transaction is an immutable ledger row
type Transaction struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	UserID       uuid.UUID      `db:"user_id" json:"user_id"`
	Type         TxType         `db:"type" json:"type"`
	Amount       int64          `db:"amount" json:"amount"`
	BalanceAfter int64          `db:"balance_after" json:"balance_after"`
	Reference    sql.NullString `db:"reference" json:"-"`
	Metadata     JSONMap        `db:"metadata" json:"metadata,omitempty"`
	CreatedBy    uuid.NullUUID  `db:"created_by" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// Entry describes a ledger mutation to apply
type Entry struct {
	UserID    uuid.UUID
	Type      TxType
	Amount    int64
	Reference string
	Metadata  JSONMap
	CreatedBy *uuid.UUID
}

// SettlementStatus distinguishes a fresh credit from a replay
type SettlementStatus string

const (
	StatusSettled          SettlementStatus = "settled"
	StatusAlreadyProcessed SettlementStatus = "already_processed"
)

// SettlementResult reports the effect of settling a topup
type SettlementResult struct {
	Status       SettlementStatus `json:"status"`
	Coins        int64            `json:"coins"`
	BalanceAfter int64            `json:"balance_after"`
	Reference    string           `json:"reference"`
}

// AlreadyProcessed reports whether the reference had been settled before
func (r *SettlementResult) AlreadyProcessed() bool {
	return r.Status == StatusAlreadyProcessed
}

// State is the terminal state of a topup order as seen by this service
type State string

const (
	StateSettled State = "SETTLED"
	StateIgnored State = "IGNORED"
)

// Outcome is the result of processing a gateway order
type Outcome struct {
	State         State             `json:"state"`
	OrderID       string            `json:"order_id"`
	GatewayStatus string            `json:"gateway_status"`
	Resolution    *Resolution       `json:"resolution,omitempty"`
	Settlement    *SettlementResult `json:"settlement,omitempty"`
}

package coin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const queryTimeout = 3 * time.Second

// PricingStore reads the pricing configuration
type PricingStore interface {
	GetBaseRate(ctx context.Context) (*BaseRate, error)
	GetActiveTiers(ctx context.Context) ([]PricingTier, error)
}

// PricingAdmin changes the pricing configuration
type PricingAdmin interface {
	ListTiers(ctx context.Context) ([]PricingTier, error)
	GetTier(ctx context.Context, id uuid.UUID) (*PricingTier, error)
	UpdateBaseRate(ctx context.Context, coinsPer1000, minTopup int64) (*BaseRate, error)
	CreateTier(ctx context.Context, tier *PricingTier) error
	UpdateTier(ctx context.Context, tier *PricingTier) error
	DeactivateTier(ctx context.Context, id uuid.UUID) error
}

// PricingRepository is the Postgres pricing store
type PricingRepository struct {
	db *sqlx.DB
}

// NewPricingRepository creates pricing repository
func NewPricingRepository(db *sqlx.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

func (r *PricingRepository) GetBaseRate(ctx context.Context) (*BaseRate, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rate BaseRate
	err := r.db.GetContext(ctx, &rate,
		`SELECT coins_per_1000, min_topup, updated_at FROM coin_pricing_config WHERE id = 1`)
	if err != nil {
		return nil, fmt.Errorf("load base rate: %w", err)
	}
	return &rate, nil
}

// GetActiveTiers returns valid active tiers. Malformed rows are skipped.
func (r *PricingRepository) GetActiveTiers(ctx context.Context) ([]PricingTier, error) {
	return r.tiers(ctx, true)
}

// ListTiers returns every valid tier, active or not
func (r *PricingRepository) ListTiers(ctx context.Context) ([]PricingTier, error) {
	return r.tiers(ctx, false)
}

func (r *PricingRepository) tiers(ctx context.Context, activeOnly bool) ([]PricingTier, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, label, min_amount, coins_granted, is_active, display_order
		FROM coin_pricing_tiers
		WHERE ($1::boolean = FALSE OR is_active = TRUE)
		ORDER BY display_order ASC NULLS LAST, min_amount ASC NULLS LAST
	`
	var rows []tierRow
	if err := r.db.SelectContext(ctx, &rows, query, activeOnly); err != nil {
		return nil, fmt.Errorf("load pricing tiers: %w", err)
	}

	tiers := make([]PricingTier, 0, len(rows))
	for _, row := range rows {
		tier, err := row.toTier()
		if err != nil {
			log.Warn().Str("tier_id", row.ID.String()).Msg("Skipping malformed pricing tier")
			continue
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

func (r *PricingRepository) UpdateBaseRate(ctx context.Context, coinsPer1000, minTopup int64) (*BaseRate, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rate BaseRate
	err := r.db.GetContext(ctx, &rate, `
		INSERT INTO coin_pricing_config (id, coins_per_1000, min_topup, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET coins_per_1000 = EXCLUDED.coins_per_1000, min_topup = EXCLUDED.min_topup, updated_at = NOW()
		RETURNING coins_per_1000, min_topup, updated_at
	`, coinsPer1000, minTopup)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *PricingRepository) CreateTier(ctx context.Context, tier *PricingTier) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coin_pricing_tiers (id, label, min_amount, coins_granted, is_active, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, tier.ID, tier.Label, tier.MinAmount, tier.CoinsGranted, tier.IsActive, tier.DisplayOrder)
	return err
}

func (r *PricingRepository) UpdateTier(ctx context.Context, tier *PricingTier) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE coin_pricing_tiers
		SET label = $2, min_amount = $3, coins_granted = $4, is_active = $5, display_order = $6, updated_at = NOW()
		WHERE id = $1
	`, tier.ID, tier.Label, tier.MinAmount, tier.CoinsGranted, tier.IsActive, tier.DisplayOrder)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTierNotFound
	}
	return nil
}

func (r *PricingRepository) DeactivateTier(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE coin_pricing_tiers SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTierNotFound
	}
	return nil
}

// GetTier returns a tier by ID
func (r *PricingRepository) GetTier(ctx context.Context, id uuid.UUID) (*PricingTier, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row tierRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, label, min_amount, coins_granted, is_active, display_order
		FROM coin_pricing_tiers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTierNotFound
	}
	if err != nil {
		return nil, err
	}
	tier, err := row.toTier()
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

package unlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sharespace/sharespace-api/internal/domain/coin"
	"github.com/sharespace/sharespace-api/internal/pkg/database"
)

const queryTimeout = 3 * time.Second

const userListingConstraint = "unlocks_user_listing_key"

const unlockColumns = `id, user_id, listing_id, coins_spent, created_at`

// Repository defines unlock data access
type Repository interface {
	// Create inserts the unlock and debits cost coins in one transaction.
	// The returned transaction is nil when cost is zero.
	Create(ctx context.Context, userID uuid.UUID, listingID int64, cost int64) (*Unlock, *coin.Transaction, error)
	HasUnlocked(ctx context.Context, userID uuid.UUID, listingID int64) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Unlock, int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates unlock repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, userID uuid.UUID, listingID int64, cost int64) (*Unlock, *coin.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var u Unlock
	err = tx.GetContext(ctx, &u, `
		INSERT INTO unlocks (user_id, listing_id, coins_spent)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT `+userListingConstraint+` DO NOTHING
		RETURNING `+unlockColumns,
		userID, listingID, cost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrAlreadyUnlocked
	}
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, nil, coin.ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("insert unlock: %w", err)
	}

	var debit *coin.Transaction
	if cost > 0 {
		debit, err = coin.ApplyInTx(ctx, tx, coin.Entry{
			UserID:    userID,
			Type:      coin.TxUnlock,
			Amount:    -cost,
			Reference: Reference(listingID, userID),
			Metadata:  coin.JSONMap{"listing_id": listingID},
		})
		if err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &u, debit, nil
}

func (r *repository) HasUnlocked(ctx context.Context, userID uuid.UUID, listingID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM unlocks WHERE user_id = $1 AND listing_id = $2)`, userID, listingID)
	return exists, err
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Unlock, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM unlocks WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	items := []*Unlock{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT `+unlockColumns+` FROM unlocks
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

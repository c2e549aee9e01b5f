package coin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sharespace/sharespace-api/internal/pkg/database"
)

const (
	topupReferenceConstraint = "coin_transactions_topup_reference_key"
	balanceCheckConstraint   = "users_coin_balance_non_negative"
)

const transactionColumns = `id, user_id, type, amount, balance_after, reference, metadata, created_by, created_at`

// Ledger is the coin balance and transaction store
type Ledger interface {
	// CreditIfNotSettled credits a topup exactly once per reference. A
	// reference that was already settled yields ErrAlreadySettled and no change.
	CreditIfNotSettled(ctx context.Context, userID uuid.UUID, coins int64, reference string, metadata JSONMap) (*Transaction, error)
	GetTopupByReference(ctx context.Context, reference string) (*Transaction, error)
	Apply(ctx context.Context, entry Entry) (*Transaction, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, int, error)
}

type ledgerRepository struct {
	db *sqlx.DB
}

// NewLedger creates the Postgres ledger
func NewLedger(db *sqlx.DB) Ledger {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (r *ledgerRepository) CreditIfNotSettled(ctx context.Context, userID uuid.UUID, coins int64, reference string, metadata JSONMap) (*Transaction, error) {
	if coins <= 0 {
		return nil, ErrInvalidAmount
	}
	if reference == "" {
		return nil, errors.New("coin: topup reference is required")
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// settlements for one user serialize on this lock
	if _, err := lockBalance(ctx, tx, userID); err != nil {
		return nil, err
	}

	var exists bool
	err = tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM coin_transactions WHERE type = 'topup' AND reference = $1)`, reference)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadySettled
	}

	t, err := ApplyInTx(ctx, tx, Entry{
		UserID:    userID,
		Type:      TxTopup,
		Amount:    coins,
		Reference: reference,
		Metadata:  metadata,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		if database.IsUniqueViolation(err, topupReferenceConstraint) {
			return nil, ErrAlreadySettled
		}
		return nil, err
	}
	return t, nil
}

// Apply writes a single entry in its own transaction
func (r *ledgerRepository) Apply(ctx context.Context, entry Entry) (*Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t, err := ApplyInTx(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

// ApplyInTx locks the user's balance, applies the signed amount and appends
// the ledger row inside tx. The balance never goes negative.
func ApplyInTx(ctx context.Context, tx *sqlx.Tx, entry Entry) (*Transaction, error) {
	balance, err := lockBalance(ctx, tx, entry.UserID)
	if err != nil {
		return nil, err
	}

	next := balance + entry.Amount
	if next < 0 {
		return nil, ErrInsufficientCoins
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET coin_balance = $2, updated_at = NOW() WHERE id = $1`, entry.UserID, next); err != nil {
		if database.IsCheckViolation(err, balanceCheckConstraint) {
			return nil, ErrInsufficientCoins
		}
		return nil, err
	}

	var reference sql.NullString
	if entry.Reference != "" {
		reference = sql.NullString{String: entry.Reference, Valid: true}
	}
	var createdBy uuid.NullUUID
	if entry.CreatedBy != nil {
		createdBy = uuid.NullUUID{UUID: *entry.CreatedBy, Valid: true}
	}
	metadata := entry.Metadata
	if metadata == nil {
		metadata = JSONMap{}
	}

	var t Transaction
	err = tx.GetContext(ctx, &t, `
		INSERT INTO coin_transactions (user_id, type, amount, balance_after, reference, metadata, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+transactionColumns,
		entry.UserID, entry.Type, entry.Amount, next, reference, metadata, createdBy)
	if err != nil {
		if database.IsUniqueViolation(err, topupReferenceConstraint) {
			return nil, ErrAlreadySettled
		}
		return nil, fmt.Errorf("insert coin transaction: %w", err)
	}
	return &t, nil
}

func lockBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (int64, error) {
	var balance int64
	err := tx.GetContext(ctx, &balance, `SELECT coin_balance FROM users WHERE id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return balance, err
}

// GetTopupByReference returns the settled topup for reference, nil when none
func (r *ledgerRepository) GetTopupByReference(ctx context.Context, reference string) (*Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t Transaction
	err := r.db.GetContext(ctx, &t,
		`SELECT `+transactionColumns+` FROM coin_transactions WHERE type = 'topup' AND reference = $1`, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ledgerRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT coin_balance FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return balance, err
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM coin_transactions WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	items := []*Transaction{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT `+transactionColumns+` FROM coin_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

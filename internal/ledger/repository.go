package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/edupay/backend/internal/models"
)

var (
	errInsufficientBalance = errors.New("insufficient withdrawable balance")
	errLedgerInconsistent  = errors.New("ledger pending amount does not cover operation")
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetForUpdate locks the user's balance row for the duration of the caller's
// transaction, creating a zero row first if the user has never been
// credited. Every ledger mutation for a user happens under this lock, which
// is what serializes concurrent operations per user.
func (r *Repository) GetForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*models.Balance, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO balances (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return nil, err
	}
	var b models.Balance
	err = tx.QueryRow(ctx, `
		SELECT user_id, withdrawable, pending, total_withdrawn, lifetime_earned, updated_at
		FROM balances WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&b.UserID, &b.Withdrawable, &b.Pending, &b.TotalWithdrawn, &b.LifetimeEarned, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Get reads the balance without locking. Returns a zero balance for users
// with no row yet.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*models.Balance, error) {
	var b models.Balance
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, withdrawable, pending, total_withdrawn, lifetime_earned, updated_at
		FROM balances WHERE user_id = $1
	`, userID).Scan(&b.UserID, &b.Withdrawable, &b.Pending, &b.TotalWithdrawn, &b.LifetimeEarned, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.Balance{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Credit increases withdrawable and lifetime earnings, creating the balance
// row on first credit.
func (r *Repository) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO balances (user_id, withdrawable, lifetime_earned)
		VALUES ($1, $2, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET withdrawable = balances.withdrawable + EXCLUDED.withdrawable,
		    lifetime_earned = balances.lifetime_earned + EXCLUDED.lifetime_earned,
		    updated_at = now()
	`, userID, amount)
	return err
}

// Lock moves amount from withdrawable to pending. The balance check rides
// on the UPDATE condition: zero rows affected means the withdrawable
// balance does not cover the amount.
func (r *Repository) Lock(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	result, err := tx.Exec(ctx, `
		UPDATE balances
		SET withdrawable = withdrawable - $1, pending = pending + $1, updated_at = now()
		WHERE user_id = $2 AND withdrawable >= $1
	`, amount, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errInsufficientBalance
	}
	return nil
}

// Release moves amount from pending back to withdrawable (rejection path).
func (r *Repository) Release(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	result, err := tx.Exec(ctx, `
		UPDATE balances
		SET pending = pending - $1, withdrawable = withdrawable + $1, updated_at = now()
		WHERE user_id = $2 AND pending >= $1
	`, amount, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errLedgerInconsistent
	}
	return nil
}

// Commit moves amount from pending to total_withdrawn (approval path).
func (r *Repository) Commit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	result, err := tx.Exec(ctx, `
		UPDATE balances
		SET pending = pending - $1, total_withdrawn = total_withdrawn + $1, updated_at = now()
		WHERE user_id = $2 AND pending >= $1
	`, amount, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errLedgerInconsistent
	}
	return nil
}

package commission

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edupay/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertCredit appends a commission credit event. The unique constraint on
// source_purchase_id surfaces as a pg error the service maps to
// already-accrued.
func (r *Repository) InsertCredit(ctx context.Context, tx pgx.Tx, c *models.CommissionCredit) error {
	return tx.QueryRow(ctx, `
		INSERT INTO commission_credits (id, user_id, amount, source_purchase_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, c.ID, c.UserID, c.Amount, c.SourcePurchaseID).Scan(&c.CreatedAt)
}

// EarningsSummary derives the reporting buckets from the credit event log.
// The periodic buckets are rolling windows, not calendar periods.
func (r *Repository) EarningsSummary(ctx context.Context, userID uuid.UUID) (*models.EarningsSummary, error) {
	var s models.EarningsSummary
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(sum(amount) FILTER (WHERE created_at > now() - interval '1 day'), 0),
			COALESCE(sum(amount) FILTER (WHERE created_at > now() - interval '7 days'), 0),
			COALESCE(sum(amount) FILTER (WHERE created_at > now() - interval '30 days'), 0),
			COALESCE(sum(amount), 0)
		FROM commission_credits WHERE user_id = $1
	`, userID).Scan(&s.Daily, &s.Weekly, &s.Monthly, &s.Lifetime)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetPurchaseForUpdate locks the purchase row. Call within a transaction.
func (r *Repository) GetPurchaseForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Purchase, error) {
	var p models.Purchase
	err := tx.QueryRow(ctx, `
		SELECT id, buyer_id, referrer_id, amount, status, confirmed_by, confirmed_at, created_at
		FROM purchases WHERE id = $1 FOR UPDATE
	`, id).Scan(&p.ID, &p.BuyerID, &p.ReferrerID, &p.Amount, &p.Status, &p.ConfirmedBy, &p.ConfirmedAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPurchase reads a purchase without locking.
func (r *Repository) GetPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var p models.Purchase
	err := r.pool.QueryRow(ctx, `
		SELECT id, buyer_id, referrer_id, amount, status, confirmed_by, confirmed_at, created_at
		FROM purchases WHERE id = $1
	`, id).Scan(&p.ID, &p.BuyerID, &p.ReferrerID, &p.Amount, &p.Status, &p.ConfirmedBy, &p.ConfirmedAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkPurchaseConfirmed performs pending→confirmed on the purchase. Zero
// rows affected means it was already confirmed.
func (r *Repository) MarkPurchaseConfirmed(ctx context.Context, tx pgx.Tx, id, operatorID uuid.UUID) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE purchases
		SET status = 'confirmed', confirmed_by = $2, confirmed_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, operatorID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

package withdrawals

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/edupay/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const withdrawalColumns = `
	id, user_id, amount, method, payment_details, status,
	transaction_reference, rejection_reason, processed_by, processed_at, created_at
`

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var w models.Withdrawal
	var details []byte
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &w.Method, &details, &w.Status,
		&w.TransactionReference, &w.RejectionReason, &w.ProcessedBy, &w.ProcessedAt, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(details, &w.PaymentDetails); err != nil {
		return nil, fmt.Errorf("decode payment details: %w", err)
	}
	return &w, nil
}

// Create inserts a new pending request inside the caller's transaction.
func (r *Repository) Create(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error {
	details, err := json.Marshal(w.PaymentDetails)
	if err != nil {
		return fmt.Errorf("encode payment details: %w", err)
	}
	return tx.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (id, user_id, amount, method, payment_details, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, w.ID, w.UserID, w.Amount, w.Method, details, w.Status).Scan(&w.CreatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return scanWithdrawal(r.pool.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id))
}

// GetByIDForUpdate locks the request row. Call within a transaction before
// deciding it.
func (r *Repository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error) {
	return scanWithdrawal(tx.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id))
}

// MarkApproved performs the pending→approved transition. The status
// condition makes the transition race-free: zero rows affected means the
// request was not pending anymore.
func (r *Repository) MarkApproved(ctx context.Context, tx pgx.Tx, id, operatorID uuid.UUID, txRef string) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE withdrawal_requests
		SET status = 'approved', transaction_reference = $2, processed_by = $3, processed_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, txRef, operatorID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// MarkRejected performs the pending→rejected transition, same contract as
// MarkApproved.
func (r *Repository) MarkRejected(ctx context.Context, tx pgx.Tx, id, operatorID uuid.UUID, reason string) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE withdrawal_requests
		SET status = 'rejected', rejection_reason = $2, processed_by = $3, processed_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, reason, operatorID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// UpdatePaymentDetails replaces the payment details of a still-pending
// request. Amount and method are immutable after creation.
func (r *Repository) UpdatePaymentDetails(ctx context.Context, id uuid.UUID, details models.PaymentDetails) (bool, error) {
	encoded, err := json.Marshal(details)
	if err != nil {
		return false, fmt.Errorf("encode payment details: %w", err)
	}
	result, err := r.pool.Exec(ctx, `
		UPDATE withdrawal_requests SET payment_details = $2
		WHERE id = $1 AND status = 'pending'
	`, id, encoded)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// CountPending counts the user's undecided requests inside the caller's
// transaction (the balance row lock is already held).
func (r *Repository) CountPending(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT count(*) FROM withdrawal_requests WHERE user_id = $1 AND status = 'pending'
	`, userID).Scan(&n)
	return n, err
}

// FindRecentDuplicate looks for a pending request with the same amount and
// method created within the window. Returns the original creation time, or
// nil when there is none.
func (r *Repository) FindRecentDuplicate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, method string, window time.Duration) (*time.Time, error) {
	var createdAt time.Time
	err := tx.QueryRow(ctx, `
		SELECT created_at FROM withdrawal_requests
		WHERE user_id = $1 AND amount = $2 AND method = $3 AND status = 'pending'
		  AND created_at > now() - $4::interval
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, amount, method, window.String()).Scan(&createdAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &createdAt, nil
}

// ListFilter narrows and pages withdrawal listings. Zero values mean no
// filter; sort fields are whitelisted by the caller.
type ListFilter struct {
	UserID    *uuid.UUID
	Status    string
	Method    string
	SortBy    string // created_at | amount
	SortOrder string // asc | desc
	Page      int
	Limit     int
}

func (f ListFilter) offset() int {
	return (f.Page - 1) * f.Limit
}

func (f ListFilter) orderClause() string {
	col := "created_at"
	if f.SortBy == "amount" {
		col = "amount"
	}
	dir := "DESC"
	if f.SortOrder == "asc" {
		dir = "ASC"
	}
	return col + " " + dir
}

// List returns one page of requests matching the filter plus the total
// match count.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]*models.Withdrawal, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Method != "" {
		args = append(args, f.Method)
		where += fmt.Sprintf(" AND method = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM withdrawal_requests "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.offset())
	query := fmt.Sprintf(
		"SELECT %s FROM withdrawal_requests %s ORDER BY %s LIMIT $%d OFFSET $%d",
		withdrawalColumns, where, f.orderClause(), len(args)-1, len(args),
	)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*models.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, w)
	}
	return list, total, rows.Err()
}

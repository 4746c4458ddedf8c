package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/edupay/backend/internal/apperr"
	"github.com/edupay/backend/internal/ledger"
	"github.com/edupay/backend/internal/models"
)

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repo is the storage surface of the accrual engine.
type Repo interface {
	InsertCredit(ctx context.Context, tx pgx.Tx, c *models.CommissionCredit) error
	EarningsSummary(ctx context.Context, userID uuid.UUID) (*models.EarningsSummary, error)
	GetPurchaseForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Purchase, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	MarkPurchaseConfirmed(ctx context.Context, tx pgx.Tx, id, operatorID uuid.UUID) (bool, error)
}

// EnqueueAccrualTxFunc enqueues an accrual job within the given transaction.
// Provided by main as a closure over river.Client.InsertTx.
type EnqueueAccrualTxFunc func(ctx context.Context, tx pgx.Tx, args PurchaseConfirmedArgs) error

// Service credits referral commissions when purchases are confirmed. It
// only ever credits the ledger; withdrawal flow is the only debitor.
type Service struct {
	pool           TxBeginner
	repo           Repo
	ledger         ledger.Service
	enqueueAccrual EnqueueAccrualTxFunc
	rate           decimal.Decimal
}

// NewService creates the accrual engine. rate is the referral commission
// fraction of the purchase amount (e.g. 0.10). enqueueAccrual is typically
// a closure over river.Client.InsertTx.
func NewService(pool TxBeginner, repo Repo, ledgerSvc ledger.Service, enqueueAccrual EnqueueAccrualTxFunc, rate decimal.Decimal) *Service {
	return &Service{pool: pool, repo: repo, ledger: ledgerSvc, enqueueAccrual: enqueueAccrual, rate: rate}
}

// ConfirmPurchase records the operator's manual payment verification and
// transactionally enqueues the commission accrual for the referrer, if any.
func (s *Service) ConfirmPurchase(ctx context.Context, operatorID, purchaseID uuid.UUID) (*models.Purchase, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := s.repo.GetPurchaseForUpdate(ctx, tx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("load purchase: %w", err)
	}
	if p == nil {
		return nil, apperr.New(apperr.NotFound)
	}
	if p.Status != models.PurchaseStatusPending {
		return nil, apperr.New(apperr.InvalidStateTransition).
			WithDetail("currentStatus", p.Status)
	}
	ok, err := s.repo.MarkPurchaseConfirmed(ctx, tx, purchaseID, operatorID)
	if err != nil {
		return nil, fmt.Errorf("confirm purchase: %w", err)
	}
	if !ok {
		return nil, apperr.New(apperr.InvalidStateTransition)
	}
	if p.ReferrerID != nil {
		if err := s.enqueueAccrual(ctx, tx, PurchaseConfirmedArgs{PurchaseID: purchaseID}); err != nil {
			return nil, fmt.Errorf("enqueue accrual: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	p.Status = models.PurchaseStatusConfirmed
	p.ConfirmedBy = &operatorID
	return p, nil
}

// Accrue credits the referrer's commission for a confirmed purchase. It is
// idempotent per purchase: the unique constraint on source_purchase_id
// makes a replayed confirmation a no-op, so at-least-once job delivery
// cannot double-credit.
func (s *Service) Accrue(ctx context.Context, purchaseID uuid.UUID) error {
	p, err := s.repo.GetPurchase(ctx, purchaseID)
	if err != nil {
		return fmt.Errorf("load purchase: %w", err)
	}
	if p == nil {
		return fmt.Errorf("purchase %s not found", purchaseID)
	}
	if p.Status != models.PurchaseStatusConfirmed || p.ReferrerID == nil {
		return nil
	}

	amount := p.Amount.Mul(s.rate).Round(2)
	if !amount.IsPositive() {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	credit := &models.CommissionCredit{
		ID:               uuid.New(),
		UserID:           *p.ReferrerID,
		Amount:           amount,
		SourcePurchaseID: purchaseID,
	}
	if err := s.repo.InsertCredit(ctx, tx, credit); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil
		}
		return fmt.Errorf("insert credit: %w", err)
	}
	if err := s.ledger.Credit(ctx, tx, *p.ReferrerID, amount); err != nil {
		return fmt.Errorf("credit ledger: %w", err)
	}
	return tx.Commit(ctx)
}

// EarningsSummary reads the reporting buckets for a user.
func (s *Service) EarningsSummary(ctx context.Context, userID uuid.UUID) (*models.EarningsSummary, error) {
	return s.repo.EarningsSummary(ctx, userID)
}

package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/edupay/backend/internal/apperr"
	"github.com/edupay/backend/internal/ledger"
	"github.com/edupay/backend/internal/models"
)

// Config holds the tunable admission thresholds. The duplicate window and
// pending cap are deliberate configuration, not constants.
type Config struct {
	MinAmount       decimal.Decimal
	MaxPending      int
	DuplicateWindow time.Duration
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repo is the storage surface the state machine drives.
type Repo interface {
	Create(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error)
	MarkApproved(ctx context.Context, tx pgx.Tx, id, operatorID uuid.UUID, txRef string) (bool, error)
	MarkRejected(ctx context.Context, tx pgx.Tx, id, operatorID uuid.UUID, reason string) (bool, error)
	UpdatePaymentDetails(ctx context.Context, id uuid.UUID, details models.PaymentDetails) (bool, error)
	CountPending(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)
	FindRecentDuplicate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, method string, window time.Duration) (*time.Time, error)
	List(ctx context.Context, f ListFilter) ([]*models.Withdrawal, int, error)
}

// UserSource resolves the requesting user's eligibility flags.
type UserSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service is the withdrawal lifecycle controller. Every mutating method is
// one transaction: the guard checks, the state transition and the ledger
// movement commit or roll back together.
type Service struct {
	pool      TxBeginner
	repo      Repo
	ledger    ledger.Service
	users     UserSource
	validator *Validator
	cfg       Config
}

func NewService(pool TxBeginner, repo Repo, ledgerSvc ledger.Service, users UserSource, cfg Config) *Service {
	return &Service{
		pool:      pool,
		repo:      repo,
		ledger:    ledgerSvc,
		users:     users,
		validator: NewValidator(cfg.MinAmount),
		cfg:       cfg,
	}
}

// Create admits a new request: validation, then guards + lock + insert under
// the user's balance row lock so two concurrent submissions for the same
// user serialize and the loser re-checks against the winner's state.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*models.Withdrawal, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.NotFound)
	}
	if verr := s.validator.Validate(user, req); verr != nil {
		return nil, verr
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	bal, err := s.ledger.GetForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock balance: %w", err)
	}

	pendingCount, err := s.repo.CountPending(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}
	if pendingCount >= s.cfg.MaxPending {
		return nil, apperr.New(apperr.TooManyRequests).
			WithDetail("currentPendingCount", pendingCount).
			WithDetail("maxAllowed", s.cfg.MaxPending)
	}

	original, err := s.repo.FindRecentDuplicate(ctx, tx, userID, req.Amount, req.Method, s.cfg.DuplicateWindow)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if original != nil {
		return nil, apperr.New(apperr.DuplicateRequest).
			WithDetail("originalCreatedAt", original.Format(time.RFC3339))
	}

	if err := s.ledger.Lock(ctx, tx, userID, req.Amount); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return nil, apperr.New(apperr.InsufficientBalance).
				WithDetail("availableBalance", bal.Withdrawable.String())
		}
		return nil, fmt.Errorf("lock funds: %w", err)
	}

	w := &models.Withdrawal{
		ID:             uuid.New(),
		UserID:         userID,
		Amount:         req.Amount,
		Method:         req.Method,
		PaymentDetails: req.PaymentDetails,
		Status:         models.WithdrawalStatusPending,
	}
	if err := s.repo.Create(ctx, tx, w); err != nil {
		return nil, fmt.Errorf("persist request: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return w, nil
}

// Approve transitions pending→approved and moves the locked amount to
// total withdrawn. A request already decided fails InvalidStateTransition
// without touching the ledger, so a double click cannot double-commit.
func (s *Service) Approve(ctx context.Context, operatorID, requestID uuid.UUID, txRef string) (*models.Withdrawal, error) {
	if txRef == "" {
		return nil, apperr.New(apperr.MissingRequiredFields).
			WithDetail("field", "transactionReference")
	}
	return s.decide(ctx, requestID, func(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error {
		ok, err := s.repo.MarkApproved(ctx, tx, w.ID, operatorID, txRef)
		if err != nil {
			return fmt.Errorf("mark approved: %w", err)
		}
		if !ok {
			return apperr.New(apperr.InvalidStateTransition)
		}
		if err := s.ledger.Commit(ctx, tx, w.UserID, w.Amount); err != nil {
			return fmt.Errorf("commit funds: %w", err)
		}
		now := time.Now()
		w.Status = models.WithdrawalStatusApproved
		w.TransactionReference = &txRef
		w.ProcessedBy = &operatorID
		w.ProcessedAt = &now
		return nil
	})
}

// Reject transitions pending→rejected and releases the locked amount back
// to the withdrawable balance.
func (s *Service) Reject(ctx context.Context, operatorID, requestID uuid.UUID, reason string) (*models.Withdrawal, error) {
	if reason == "" {
		return nil, apperr.New(apperr.MissingRequiredFields).
			WithDetail("field", "rejectionReason")
	}
	return s.decide(ctx, requestID, func(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error {
		ok, err := s.repo.MarkRejected(ctx, tx, w.ID, operatorID, reason)
		if err != nil {
			return fmt.Errorf("mark rejected: %w", err)
		}
		if !ok {
			return apperr.New(apperr.InvalidStateTransition)
		}
		if err := s.ledger.Release(ctx, tx, w.UserID, w.Amount); err != nil {
			return fmt.Errorf("release funds: %w", err)
		}
		now := time.Now()
		w.Status = models.WithdrawalStatusRejected
		w.RejectionReason = &reason
		w.ProcessedBy = &operatorID
		w.ProcessedAt = &now
		return nil
	})
}

// decide runs the shared terminal-transition scaffolding: load the request
// under lock, verify it is still pending, apply the transition inside one
// transaction.
func (s *Service) decide(ctx context.Context, requestID uuid.UUID, apply func(context.Context, pgx.Tx, *models.Withdrawal) error) (*models.Withdrawal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	w, err := s.repo.GetByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound)
		}
		return nil, fmt.Errorf("load request: %w", err)
	}
	if w.IsTerminal() {
		return nil, apperr.New(apperr.InvalidStateTransition).
			WithDetail("currentStatus", w.Status)
	}
	if err := apply(ctx, tx, w); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return w, nil
}

// Edit replaces the payment details of a pending request. The amount is
// immutable after creation; it backs the locked ledger funds.
func (s *Service) Edit(ctx context.Context, requestID uuid.UUID, details models.PaymentDetails) (*models.Withdrawal, error) {
	w, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound)
		}
		return nil, fmt.Errorf("load request: %w", err)
	}
	if w.IsTerminal() {
		return nil, apperr.New(apperr.InvalidStateTransition).
			WithDetail("currentStatus", w.Status)
	}
	if verr := s.validator.ValidateDetailsForEdit(w.Method, details); verr != nil {
		return nil, verr
	}
	ok, err := s.repo.UpdatePaymentDetails(ctx, requestID, details)
	if err != nil {
		return nil, fmt.Errorf("update details: %w", err)
	}
	if !ok {
		// Decided between our read and the update.
		return nil, apperr.New(apperr.InvalidStateTransition)
	}
	w.PaymentDetails = details
	return w, nil
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func normalize(f ListFilter) ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	return f
}

// History lists the user's own requests.
func (s *Service) History(ctx context.Context, userID uuid.UUID, f ListFilter) ([]*models.Withdrawal, int, error) {
	f.UserID = &userID
	return s.repo.List(ctx, normalize(f))
}

// ListPending lists undecided requests for the operator queue.
func (s *Service) ListPending(ctx context.Context, page, limit int) ([]*models.Withdrawal, int, error) {
	return s.repo.List(ctx, normalize(ListFilter{
		Status: models.WithdrawalStatusPending,
		Page:   page,
		Limit:  limit,
	}))
}

// ListAll lists requests across users with optional status/method filters.
func (s *Service) ListAll(ctx context.Context, f ListFilter) ([]*models.Withdrawal, int, error) {
	f.UserID = nil
	return s.repo.List(ctx, normalize(f))
}

package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/edupay/backend/internal/models"
)

// Service is the only component allowed to mutate a user's balance. All
// mutating operations run inside the caller's transaction so the state
// transition that triggered them commits or rolls back with them.
type Service interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*models.Balance, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.Balance, error)
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error
	Lock(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error
	Release(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error
	Commit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) GetForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*models.Balance, error) {
	return s.repo.GetForUpdate(ctx, tx, userID)
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Balance, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return s.repo.Credit(ctx, tx, userID, amount)
}

func (s *service) Lock(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return s.repo.Lock(ctx, tx, userID, amount)
}

func (s *service) Release(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return s.repo.Release(ctx, tx, userID, amount)
}

func (s *service) Commit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return s.repo.Commit(ctx, tx, userID, amount)
}

// ErrInsufficientBalance is returned by Lock when withdrawable does not
// cover the requested amount.
var ErrInsufficientBalance = errInsufficientBalance

// ErrInvalidAmount is returned when a ledger operation is attempted with a
// non-positive amount.
var ErrInvalidAmount = errors.New("amount must be positive")

package commission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

type PurchaseConfirmedArgs struct {
	PurchaseID uuid.UUID `json:"purchase_id"`
}

func (PurchaseConfirmedArgs) Kind() string { return "purchase_confirmed" }

// Accruer is the contract the worker needs from the accrual engine.
type Accruer interface {
	Accrue(ctx context.Context, purchaseID uuid.UUID) error
}

// AccrualWorker consumes purchase-confirmed jobs and credits the referrer.
// Accrue is idempotent, so river retries are safe.
type AccrualWorker struct {
	river.WorkerDefaults[PurchaseConfirmedArgs]
	accruer Accruer
}

func NewAccrualWorker(accruer Accruer) *AccrualWorker {
	return &AccrualWorker{accruer: accruer}
}

func (w *AccrualWorker) Work(ctx context.Context, job *river.Job[PurchaseConfirmedArgs]) error {
	if err := w.accruer.Accrue(ctx, job.Args.PurchaseID); err != nil {
		return fmt.Errorf("accrue commission for purchase %s: %w", job.Args.PurchaseID, err)
	}
	return nil
}

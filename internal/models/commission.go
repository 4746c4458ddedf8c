package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionCredit is the append-only fact that justifies a balance
// increase. source_purchase_id carries a unique constraint, which is what
// makes accrual idempotent per confirmed purchase.
type CommissionCredit struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	SourcePurchaseID uuid.UUID       `json:"source_purchase_id"`
	CreatedAt        time.Time       `json:"created_at"`
}

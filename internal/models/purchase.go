package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase statuses. Payments are verified manually: a purchase stays
// pending until an operator reviews the submitted payment proof.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusConfirmed = "confirmed"
)

type Purchase struct {
	ID          uuid.UUID       `json:"id"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	ReferrerID  *uuid.UUID      `json:"referrer_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	ConfirmedBy *uuid.UUID      `json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

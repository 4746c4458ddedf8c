package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance is the authoritative money record for one user. Only the ledger
// package mutates it; withdrawable and pending never go negative.
type Balance struct {
	UserID         uuid.UUID       `json:"user_id"`
	Withdrawable   decimal.Decimal `json:"withdrawable"`
	Pending        decimal.Decimal `json:"pending"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	LifetimeEarned decimal.Decimal `json:"lifetime_earned"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// EarningsSummary is the reporting view over commission credits. The
// periodic buckets are computed from the credit event log on read, not
// stored.
type EarningsSummary struct {
	Daily    decimal.Decimal `json:"daily"`
	Weekly   decimal.Decimal `json:"weekly"`
	Monthly  decimal.Decimal `json:"monthly"`
	Lifetime decimal.Decimal `json:"lifetime"`
}

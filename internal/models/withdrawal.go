package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Withdrawal request statuses. pending is the only non-terminal state.
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// Withdrawal methods. The method selects which PaymentDetails variant is
// required.
const (
	MethodMobileBanking = "mobile_banking"
	MethodBankTransfer  = "bank_transfer"
)

// Supported mobile-banking providers.
var MobileBankingProviders = map[string]bool{
	"bkash":  true,
	"nagad":  true,
	"rocket": true,
	"upay":   true,
}

// PaymentDetails is a tagged union over the withdrawal method: exactly one
// of MobileBanking/BankTransfer is set, matching the owning request's method.
type PaymentDetails struct {
	MobileBanking *MobileBankingDetails `json:"mobile_banking,omitempty"`
	BankTransfer  *BankTransferDetails  `json:"bank_transfer,omitempty"`
}

type MobileBankingDetails struct {
	Provider          string `json:"provider"`
	MobileNumber      string `json:"mobile_number"`
	AccountHolderName string `json:"account_holder_name"`
}

type BankTransferDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type Withdrawal struct {
	ID                   uuid.UUID       `json:"id"`
	UserID               uuid.UUID       `json:"user_id"`
	Amount               decimal.Decimal `json:"amount"`
	Method               string          `json:"method"`
	PaymentDetails       PaymentDetails  `json:"payment_details"`
	Status               string          `json:"status"`
	TransactionReference *string         `json:"transaction_reference,omitempty"`
	RejectionReason      *string         `json:"rejection_reason,omitempty"`
	ProcessedBy          *uuid.UUID      `json:"processed_by,omitempty"`
	ProcessedAt          *time.Time      `json:"processed_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// IsTerminal reports whether the request has been decided. Terminal
// requests are never re-opened.
func (w *Withdrawal) IsTerminal() bool {
	return w.Status == WithdrawalStatusApproved || w.Status == WithdrawalStatusRejected
}

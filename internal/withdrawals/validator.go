package withdrawals

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/edupay/backend/internal/apperr"
	"github.com/edupay/backend/internal/models"
)

// Payment details are verified against the national 11-digit mobile
// numbering plan (01[3-9] prefixes).
var mobileNumberRe = regexp.MustCompile(`^01[3-9]\d{8}$`)

// Bank account numbers are 8-20 digits.
var accountNumberRe = regexp.MustCompile(`^\d{8,20}$`)

const minNameLength = 3

// CreateRequest is a prospective withdrawal before admission.
type CreateRequest struct {
	Amount         decimal.Decimal
	Method         string
	PaymentDetails models.PaymentDetails
}

// Validator runs the field-level and eligibility checks that precede the
// transactional guards. First failure short-circuits.
type Validator struct {
	minAmount decimal.Decimal
}

func NewValidator(minAmount decimal.Decimal) *Validator {
	return &Validator{minAmount: minAmount}
}

// Validate checks the request shape and the requesting user's eligibility.
// Balance sufficiency and the duplicate/rate guards are checked later,
// under the ledger lock.
func (v *Validator) Validate(user *models.User, req CreateRequest) *apperr.Error {
	if err := v.validateDetails(req); err != nil {
		return err
	}
	if err := v.validateAmount(req.Amount); err != nil {
		return err
	}
	if user.Suspended {
		return apperr.New(apperr.AccountSuspended)
	}
	if !user.KYCVerified {
		return apperr.New(apperr.InvalidUserPermissions)
	}
	return nil
}

func (v *Validator) validateAmount(amount decimal.Decimal) *apperr.Error {
	if !amount.IsPositive() || !amount.IsInteger() || amount.LessThan(v.minAmount) {
		return apperr.New(apperr.InvalidAmount).
			WithDetail("minimumAmount", v.minAmount.String())
	}
	return nil
}

func (v *Validator) validateDetails(req CreateRequest) *apperr.Error {
	switch req.Method {
	case models.MethodMobileBanking:
		return validateMobileBanking(req.PaymentDetails.MobileBanking)
	case models.MethodBankTransfer:
		return validateBankTransfer(req.PaymentDetails.BankTransfer)
	default:
		return apperr.New(apperr.MissingRequiredFields).
			WithDetail("field", "method")
	}
}

func validateMobileBanking(d *models.MobileBankingDetails) *apperr.Error {
	if d == nil {
		return apperr.New(apperr.MissingMobileBankingDetails)
	}
	if !models.MobileBankingProviders[strings.ToLower(d.Provider)] {
		return apperr.New(apperr.InvalidProvider).
			WithDetail("provider", d.Provider)
	}
	if !mobileNumberRe.MatchString(d.MobileNumber) {
		return apperr.New(apperr.InvalidMobileNumber)
	}
	if len(strings.TrimSpace(d.AccountHolderName)) < minNameLength {
		return apperr.New(apperr.InvalidAccountHolderName)
	}
	return nil
}

func validateBankTransfer(d *models.BankTransferDetails) *apperr.Error {
	if d == nil {
		return apperr.New(apperr.MissingBankTransferDetails)
	}
	if len(strings.TrimSpace(d.BankName)) < minNameLength {
		return apperr.New(apperr.InvalidBankName)
	}
	if !accountNumberRe.MatchString(d.AccountNumber) {
		return apperr.New(apperr.InvalidAccountNumber)
	}
	if len(strings.TrimSpace(d.AccountName)) < minNameLength {
		return apperr.New(apperr.InvalidAccountName)
	}
	return nil
}

// ValidateDetailsForEdit checks a payment-details replacement against the
// request's existing method (operators fix typos pre-decision; the method
// itself cannot change).
func (v *Validator) ValidateDetailsForEdit(method string, details models.PaymentDetails) *apperr.Error {
	return v.validateDetails(CreateRequest{Method: method, PaymentDetails: details})
}

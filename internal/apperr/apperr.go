// Package apperr defines the closed set of domain error kinds and their
// mapping to HTTP status codes and user-facing text. Handlers never invent
// error strings; they translate a Kind through this package.
package apperr

import (
	"fmt"
	"net/http"
)

type Kind int

const (
	// Input validation
	MissingRequiredFields Kind = iota
	MissingMobileBankingDetails
	MissingBankTransferDetails
	InvalidAmount
	InvalidMobileNumber
	InvalidProvider
	InvalidAccountHolderName
	InvalidBankName
	InvalidAccountName
	InvalidAccountNumber

	// Authorization
	UnauthorizedAccess
	InvalidUserPermissions
	AccountSuspended

	// Business rules
	InsufficientBalance
	DuplicateRequest
	TooManyRequests

	// State machine
	InvalidStateTransition

	// Infrastructure
	NotFound
	InternalServerError
)

// Error carries a Kind plus structured details the caller can render
// (available balance, pending count, original timestamp).
type Error struct {
	Kind    Kind
	Details map[string]any
}

func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// WithDetail attaches a key/value detail and returns the error for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Kind.UserMessage())
}

// Is lets errors.Is match against a bare *Error carrying the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Code returns the stable machine-readable code for the kind.
func (k Kind) Code() string {
	switch k {
	case MissingRequiredFields:
		return "MISSING_REQUIRED_FIELDS"
	case MissingMobileBankingDetails:
		return "MISSING_MOBILE_BANKING_DETAILS"
	case MissingBankTransferDetails:
		return "MISSING_BANK_TRANSFER_DETAILS"
	case InvalidAmount:
		return "INVALID_AMOUNT"
	case InvalidMobileNumber:
		return "INVALID_MOBILE_NUMBER"
	case InvalidProvider:
		return "INVALID_PROVIDER"
	case InvalidAccountHolderName:
		return "INVALID_ACCOUNT_HOLDER_NAME"
	case InvalidBankName:
		return "INVALID_BANK_NAME"
	case InvalidAccountName:
		return "INVALID_ACCOUNT_NAME"
	case InvalidAccountNumber:
		return "INVALID_ACCOUNT_NUMBER"
	case UnauthorizedAccess:
		return "UNAUTHORIZED_ACCESS"
	case InvalidUserPermissions:
		return "INVALID_USER_PERMISSIONS"
	case AccountSuspended:
		return "ACCOUNT_SUSPENDED"
	case InsufficientBalance:
		return "INSUFFICIENT_BALANCE"
	case DuplicateRequest:
		return "DUPLICATE_REQUEST"
	case TooManyRequests:
		return "TOO_MANY_REQUESTS"
	case InvalidStateTransition:
		return "INVALID_STATE_TRANSITION"
	case NotFound:
		return "NOT_FOUND"
	case InternalServerError:
		return "INTERNAL_SERVER_ERROR"
	}
	return "INTERNAL_SERVER_ERROR"
}

// HTTPStatus maps the kind to a response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case MissingRequiredFields, MissingMobileBankingDetails, MissingBankTransferDetails,
		InvalidAmount, InvalidMobileNumber, InvalidProvider, InvalidAccountHolderName,
		InvalidBankName, InvalidAccountName, InvalidAccountNumber:
		return http.StatusBadRequest
	case UnauthorizedAccess:
		return http.StatusUnauthorized
	case InvalidUserPermissions, AccountSuspended:
		return http.StatusForbidden
	case InsufficientBalance:
		return http.StatusPaymentRequired
	case DuplicateRequest, InvalidStateTransition:
		return http.StatusConflict
	case TooManyRequests:
		return http.StatusTooManyRequests
	case NotFound:
		return http.StatusNotFound
	case InternalServerError:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// UserMessage is the text shown to the end user.
func (k Kind) UserMessage() string {
	switch k {
	case MissingRequiredFields:
		return "required fields are missing"
	case MissingMobileBankingDetails:
		return "mobile banking details are required for this method"
	case MissingBankTransferDetails:
		return "bank transfer details are required for this method"
	case InvalidAmount:
		return "amount must be a positive whole number above the minimum"
	case InvalidMobileNumber:
		return "mobile number is not a valid 11-digit number"
	case InvalidProvider:
		return "mobile banking provider is not supported"
	case InvalidAccountHolderName:
		return "account holder name is too short"
	case InvalidBankName:
		return "bank name is too short"
	case InvalidAccountName:
		return "account name is too short"
	case InvalidAccountNumber:
		return "account number must be 8-20 digits"
	case UnauthorizedAccess:
		return "authentication required"
	case InvalidUserPermissions:
		return "your account is not eligible to withdraw"
	case AccountSuspended:
		return "your account is suspended"
	case InsufficientBalance:
		return "withdrawable balance is insufficient"
	case DuplicateRequest:
		return "an identical withdrawal request is already pending"
	case TooManyRequests:
		return "too many pending withdrawal requests"
	case InvalidStateTransition:
		return "this request has already been processed"
	case NotFound:
		return "not found"
	case InternalServerError:
		return "something went wrong, please try again"
	}
	return "something went wrong, please try again"
}

// SuggestedAction tells the caller what to do about the error, if anything.
func (k Kind) SuggestedAction() string {
	switch k {
	case MissingRequiredFields, MissingMobileBankingDetails, MissingBankTransferDetails,
		InvalidAmount, InvalidMobileNumber, InvalidProvider, InvalidAccountHolderName,
		InvalidBankName, InvalidAccountName, InvalidAccountNumber:
		return "correct the highlighted fields and resubmit"
	case UnauthorizedAccess:
		return "sign in again"
	case InvalidUserPermissions:
		return "complete identity verification to enable withdrawals"
	case AccountSuspended:
		return "contact support"
	case InsufficientBalance:
		return "request a smaller amount"
	case DuplicateRequest:
		return "wait for the existing request to be processed"
	case TooManyRequests:
		return "wait for pending requests to be processed before submitting more"
	case InvalidStateTransition:
		return "refresh to see the current status"
	case NotFound:
		return ""
	case InternalServerError:
		return "retry shortly"
	}
	return ""
}

package errors

import (
	"fmt"
)

type ErrorCode string

const (
	InvalidInput         ErrorCode = "invalid_input"
	InvalidAmount        ErrorCode = "invalid_amount"
	InsufficientFunds    ErrorCode = "insufficient_funds"
	DestinationNotFound  ErrorCode = "destination_not_found"
	SameAccountTransfer  ErrorCode = "same_account_transfer"
	AccountNotFound      ErrorCode = "account_not_found"
	AccountNotEmpty      ErrorCode = "account_not_empty"
	AuthenticationFailed ErrorCode = "authentication_failed"
	AdminDenied          ErrorCode = "admin_denied"
	StorageFailure       ErrorCode = "storage_failure"
	CorruptStore         ErrorCode = "corrupt_store"
	InternalError        ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// Is matches AppErrors by code so the sentinels below survive WithDetails copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Predefined errors for common cases
var (
	ErrInvalidAmount        = NewAppError(InvalidAmount, "amount must be positive")
	ErrInsufficientFunds    = NewAppError(InsufficientFunds, "insufficient funds")
	ErrDestinationNotFound  = NewAppError(DestinationNotFound, "destination account not found")
	ErrSameAccountTransfer  = NewAppError(SameAccountTransfer, "source and destination accounts are the same")
	ErrAccountNotFound      = NewAppError(AccountNotFound, "account not found")
	ErrAccountNotEmpty      = NewAppError(AccountNotEmpty, "account balance must be zero before closing")
	ErrAuthenticationFailed = NewAppError(AuthenticationFailed, "authentication failed")
	ErrAdminDenied          = NewAppError(AdminDenied, "admin authentication failed")
	ErrCorruptStore         = NewAppError(CorruptStore, "account store is corrupt")
)

package shared

import "fmt"

// DomainError is a business-rule violation with a stable machine code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...interface{}) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Stable error codes. API clients branch on Code, so values never change.
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidAmount       = NewDomainError("INVALID_AMOUNT", "Amount must be a positive value")
	ErrExceedsDue          = NewDomainError("EXCEEDS_DUE", "Payment exceeds the customer's outstanding due")
	ErrInvalidTransition   = NewDomainError("INVALID_TRANSITION", "Status transition is not allowed")
	ErrAmountMismatch      = NewDomainError("AMOUNT_MISMATCH", "Amounts do not reconcile")
	ErrCurrencyMismatch    = NewDomainError("CURRENCY_MISMATCH", "Currencies do not match")
	ErrUnsupportedGateway  = NewDomainError("UNSUPPORTED_GATEWAY", "No normalizer registered for this gateway")
	ErrDuplicateWebhook    = NewDomainError("DUPLICATE_WEBHOOK", "Webhook event was already processed")
	ErrOptimisticLock      = NewDomainError("OPTIMISTIC_LOCK_ERROR", "Resource was modified by another process")
	ErrRetriesExhausted    = NewDomainError("RETRIES_EXHAUSTED", "Operation failed after maximum retries")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

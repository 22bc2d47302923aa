package shared

import "fmt"

// DomainError represents a domain-level error
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
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error codes for the commercial document pipeline
const (
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInvalidLineItem        = "INVALID_LINE_ITEM"
	CodePriceResolution        = "PRICE_RESOLUTION"
	CodeCurrencyMismatch       = "CURRENCY_MISMATCH"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeAlreadyConverted       = "ALREADY_CONVERTED"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeInvoiceAlreadyExists   = "INVOICE_ALREADY_EXISTS"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeNumberGeneration       = "NUMBER_GENERATION"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput           = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrentModification = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
)

// IsCode reports whether err is a DomainError carrying the given code
func IsCode(err error, code string) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == code
	}
	return false
}

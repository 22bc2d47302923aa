package dto

import (
	"net/http"

	"github.com/epicerie/backend/internal/domain/shared"
)

// Transport-level error codes; domain codes pass through unchanged
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
//
// Conflicts with already-recorded facts (a converted quote, an existing
// invoice, a concurrent write) are 409; business rules the request body
// cannot satisfy (state machine, stock, pricing) are 422.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	shared.CodeNotFound:        http.StatusNotFound,
	shared.CodeInvalidInput:    http.StatusBadRequest,
	shared.CodeInvalidLineItem: http.StatusBadRequest,

	shared.CodeInvalidStateTransition: http.StatusUnprocessableEntity,
	shared.CodePriceResolution:        http.StatusUnprocessableEntity,
	shared.CodeCurrencyMismatch:       http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock:      http.StatusUnprocessableEntity,

	shared.CodeAlreadyConverted:       http.StatusConflict,
	shared.CodeInvoiceAlreadyExists:   http.StatusConflict,
	shared.CodeConcurrentModification: http.StatusConflict,

	shared.CodeNumberGeneration: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

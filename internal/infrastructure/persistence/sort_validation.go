package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC.
// Anything but an explicit ASC sorts descending.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks the requested sort column against a
// per-model whitelist. Caller-supplied column names never reach the
// ORDER BY clause verbatim; anything not whitelisted falls back to
// defaultField.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// QuoteSortFields contains allowed sort columns for quote listings
var QuoteSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"status":        true,
	"customer_name": true,
	"quote_number":  true,
	"valid_until":   true,
}

// PurchaseOrderSortFields contains allowed sort columns for purchase order listings
var PurchaseOrderSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"status":        true,
	"customer_name": true,
	"po_number":     true,
}

// OrderSortFields contains allowed sort columns for order listings
var OrderSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"status":        true,
	"customer_name": true,
	"order_number":  true,
}

// InvoiceSortFields contains allowed sort columns for invoice listings
var InvoiceSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"status":         true,
	"customer_name":  true,
	"invoice_number": true,
	"issue_date":     true,
	"due_date":       true,
}

package billing

import (
	"time"

	"github.com/epicerie/backend/internal/domain/partner"
)

// DefaultPaymentTermDays is the company-wide payment term applied when
// a customer has no term of their own.
const DefaultPaymentTermDays = 30

// ComputeDueDate returns issueDate + termDays calendar days. Month and
// year rollover is ordinary date arithmetic, not special-cased: an
// invoice issued 2025-01-31 with a 30-day term is due 2025-03-02.
func ComputeDueDate(issueDate time.Time, termDays int) time.Time {
	return issueDate.AddDate(0, 0, termDays)
}

// ResolveTermDays returns the customer's payment term, or companyDefault
// when the customer has none. A non-positive companyDefault falls back
// to DefaultPaymentTermDays.
func ResolveTermDays(customer partner.Customer, companyDefault int) int {
	if customer.PaymentTermDays != nil && *customer.PaymentTermDays > 0 {
		return *customer.PaymentTermDays
	}
	if companyDefault > 0 {
		return companyDefault
	}
	return DefaultPaymentTermDays
}

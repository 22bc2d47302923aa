package partner

import (
	"context"

	"github.com/google/uuid"
)

// Customer is the snapshot of a customer as the billing core sees it:
// identity, the commercial tier driving price resolution, and the
// payment term used for invoice due dates.
type Customer struct {
	ID              uuid.UUID
	Name            string
	CompanyName     string
	Tier            CustomerTier
	PaymentTermDays *int // nil means the company-wide default applies
}

// Identifier returns the fragment that document numbers derive their
// customer token from: the company name for B2B accounts, otherwise
// the customer's surname/name.
func (c Customer) Identifier() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.Name
}

// CustomerProvider supplies customer snapshots to the billing core.
// Implemented outside the core; lookups are treated as pure reads.
type CustomerProvider interface {
	CustomerByID(ctx context.Context, id uuid.UUID) (Customer, error)
}

// Package catalog defines the boundary to the product catalog. The
// billing core treats it as a pure lookup collaborator: it supplies
// pricing snapshots and current stock, and is never cached or mutated
// from here.
package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

// PricingSnapshot carries everything needed to resolve the unit price
// for one (product, optional variant) pair at a point in time: the base
// retail price and any explicit per-tier overrides. Override maps are
// keyed by tier code.
type PricingSnapshot struct {
	ProductID        uuid.UUID
	VariantID        *uuid.UUID
	BasePrice        *valueobject.Money
	ProductOverrides map[string]valueobject.Money
	VariantOverrides map[string]valueobject.Money
}

// Provider supplies pricing and stock information for products and variants
type Provider interface {
	// PricingFor returns the pricing snapshot for a product/variant pair
	PricingFor(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (PricingSnapshot, error)

	// AvailableStock returns the currently available quantity for a
	// product/variant pair
	AvailableStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (int64, error)
}

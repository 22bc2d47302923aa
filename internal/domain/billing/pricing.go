package billing

import (
	"github.com/epicerie/backend/internal/domain/catalog"
	"github.com/epicerie/backend/internal/domain/partner"
	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

// ResolveUnitPrice resolves the unit price for a (customer tier,
// product/variant) pair from a pricing snapshot. Resolution order,
// first match wins:
//
//  1. variant-level explicit tier override
//  2. product-level explicit tier override
//  3. base price reduced by the tier's default discount percentage
//     (rounded half-up, once)
//  4. base price unchanged when no tier-specific information exists
//     (standard tier with 0% discount is the implicit default)
//
// A pure function of its inputs: the snapshot is supplied by the caller,
// never fetched here.
func ResolveUnitPrice(tier partner.CustomerTier, snap catalog.PricingSnapshot) (valueobject.Money, error) {
	code := tier.Code()
	if code == "" {
		code = partner.TierCodeStandard
	}

	if price, ok := snap.VariantOverrides[code]; ok {
		return price, nil
	}
	if price, ok := snap.ProductOverrides[code]; ok {
		return price, nil
	}

	if snap.BasePrice == nil {
		return valueobject.Money{}, shared.NewDomainErrorf(shared.CodePriceResolution,
			"No price available for product %s: no base price and no %q tier override", snap.ProductID, code)
	}

	if tier.HasDiscount() {
		return snap.BasePrice.ApplyDiscountPercent(tier.DiscountPercent()), nil
	}
	return *snap.BasePrice, nil
}

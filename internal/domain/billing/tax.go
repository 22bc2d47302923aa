package billing

import (
	"sort"

	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

// RateGroup is the net and tax subtotal for one exact VAT rate
type RateGroup struct {
	Rate valueobject.VATRate `json:"rate"`
	Net  valueobject.Money   `json:"net"`
	Tax  valueobject.Money   `json:"tax"`
}

// TaxBreakdown is the derived tax summary of a document: per-rate
// subtotals plus grand totals. It is never persisted; totals are always
// recomputed from the line items so stored values cannot drift.
type TaxBreakdown struct {
	Groups     []RateGroup       `json:"groups"`
	GrandNet   valueobject.Money `json:"grand_net"`
	GrandTax   valueobject.Money `json:"grand_tax"`
	GrandTotal valueobject.Money `json:"grand_total"`
}

// AggregateTax groups the document's lines by exact VAT rate and sums
// net and tax per group. Grand tax equals the sum of per-line taxes
// exactly because rounding happened once per line in ComputeLine; no
// rounding occurs here. Groups with zero tax (0% rate lines) are kept
// so they stay visible in the breakdown.
//
// The computation is all-or-nothing: any invalid line aborts with an
// INVALID_LINE_ITEM error naming the offending line index.
func AggregateTax(lines []LineItem) (TaxBreakdown, error) {
	currency := valueobject.DefaultCurrency
	if len(lines) > 0 {
		currency = lines[0].UnitPrice.Currency()
	}

	groups := make(map[string]*RateGroup)
	grandNet := valueobject.Zero(currency)
	grandTax := valueobject.Zero(currency)

	for i := range lines {
		amounts, err := lines[i].ComputeLine()
		if err != nil {
			return TaxBreakdown{}, shared.NewDomainErrorf(shared.CodeInvalidLineItem,
				"Line %d: %s", i, err.Error())
		}

		key := lines[i].VATRate.Key()
		group, ok := groups[key]
		if !ok {
			group = &RateGroup{
				Rate: lines[i].VATRate,
				Net:  valueobject.Zero(currency),
				Tax:  valueobject.Zero(currency),
			}
			groups[key] = group
		}

		if group.Net, err = group.Net.Add(amounts.Net); err != nil {
			return TaxBreakdown{}, shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
				"Line %d: %s", i, err.Error())
		}
		if group.Tax, err = group.Tax.Add(amounts.Tax); err != nil {
			return TaxBreakdown{}, shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
				"Line %d: %s", i, err.Error())
		}
		if grandNet, err = grandNet.Add(amounts.Net); err != nil {
			return TaxBreakdown{}, shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
				"Line %d: %s", i, err.Error())
		}
		if grandTax, err = grandTax.Add(amounts.Tax); err != nil {
			return TaxBreakdown{}, shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
				"Line %d: %s", i, err.Error())
		}
	}

	sorted := make([]RateGroup, 0, len(groups))
	for _, g := range groups {
		sorted = append(sorted, *g)
	}
	sort.Slice(sorted, func(a, b int) bool {
		return sorted[a].Rate.Decimal().LessThan(sorted[b].Rate.Decimal())
	})

	return TaxBreakdown{
		Groups:     sorted,
		GrandNet:   grandNet,
		GrandTax:   grandTax,
		GrandTotal: grandNet.MustAdd(grandTax),
	}, nil
}

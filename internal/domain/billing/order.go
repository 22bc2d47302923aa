package billing

import (
	"github.com/google/uuid"

	"github.com/epicerie/backend/internal/domain/shared"
)

// OrderSource identifies what an order was produced from
type OrderSource string

const (
	OrderSourceQuote         OrderSource = "QUOTE"
	OrderSourcePurchaseOrder OrderSource = "PURCHASE_ORDER"
	OrderSourceCheckout      OrderSource = "CHECKOUT"
)

// IsValid checks if the order source is valid
func (s OrderSource) IsValid() bool {
	switch s {
	case OrderSourceQuote, OrderSourcePurchaseOrder, OrderSourceCheckout:
		return true
	}
	return false
}

// Order is the commercial document produced by converting an accepted
// quote or approved purchase order, or directly from a storefront
// checkout. Its lines are frozen copies of the source document's lines:
// prices are not re-resolved at conversion time, the already-resolved
// snapshot is authoritative. An order may carry at most one non-voided
// invoice; the ConversionService enforces that invariant.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber  string
	CustomerID   uuid.UUID
	CustomerName string
	Source       OrderSource
	SourceID     *uuid.UUID // ID of the quote or PO this order came from
	Items        []LineItem `gorm:"foreignKey:DocumentID"`
}

// NewOrderFromLines creates an order carrying frozen copies of the
// given lines.
func NewOrderFromLines(orderNumber string, customerID uuid.UUID, customerName string, source OrderSource, sourceID *uuid.UUID, lines []LineItem) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer ID cannot be empty")
	}
	if !source.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown order source %q", source)
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Cannot create an order without lines")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		Source:            source,
		SourceID:          sourceID,
		Items:             make([]LineItem, 0, len(lines)),
	}
	for i := range lines {
		order.Items = append(order.Items, lines[i].CopyForDocument(order.ID))
	}
	return order, nil
}

// TaxBreakdown recomputes the order totals from its lines
func (o *Order) TaxBreakdown() (TaxBreakdown, error) {
	return AggregateTax(o.Items)
}

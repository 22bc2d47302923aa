package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/epicerie/backend/internal/domain/catalog"
	"github.com/epicerie/backend/internal/domain/partner"
	"github.com/epicerie/backend/internal/domain/shared"
)

// ConversionService performs the document transitions with financial
// consequences: accepted quote / approved purchase order -> order, and
// order -> invoice. Each conversion is one atomic unit of work; stock is
// validated all-or-nothing before anything is written, and the source
// document's already-resolved prices are carried over frozen, never
// re-resolved.
type ConversionService struct {
	quotes          QuoteRepository
	purchaseOrders  PurchaseOrderRepository
	orders          OrderRepository
	invoices        InvoiceRepository
	catalog         catalog.Provider
	customers       partner.CustomerProvider
	numbers         *NumberGenerator
	tx              shared.TransactionManager
	defaultTermDays int
	now             func() time.Time
}

// NewConversionService creates a ConversionService
func NewConversionService(
	quotes QuoteRepository,
	purchaseOrders PurchaseOrderRepository,
	orders OrderRepository,
	invoices InvoiceRepository,
	catalogProvider catalog.Provider,
	customers partner.CustomerProvider,
	numbers *NumberGenerator,
	tx shared.TransactionManager,
	defaultTermDays int,
) *ConversionService {
	if defaultTermDays <= 0 {
		defaultTermDays = DefaultPaymentTermDays
	}
	return &ConversionService{
		quotes:          quotes,
		purchaseOrders:  purchaseOrders,
		orders:          orders,
		invoices:        invoices,
		catalog:         catalogProvider,
		customers:       customers,
		numbers:         numbers,
		tx:              tx,
		defaultTermDays: defaultTermDays,
		now:             time.Now,
	}
}

// WithClock replaces the service clock. Intended for tests.
func (s *ConversionService) WithClock(now func() time.Time) *ConversionService {
	s.now = now
	return s
}

// ConvertQuoteToOrder converts an accepted quote into an order. The
// whole sequence - stock validation, order creation, source transition -
// commits as one transaction or not at all; a quote that was already
// converted fails with ALREADY_CONVERTED and no second order is created.
func (s *ConversionService) ConvertQuoteToOrder(ctx context.Context, quoteID uuid.UUID) (*Order, error) {
	quote, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status == QuoteStatusConverted {
		return nil, shared.NewDomainErrorf(shared.CodeAlreadyConverted,
			"Quote %s has already been converted", quote.ID)
	}
	if !quote.IsConvertible() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Quote %s cannot be converted in %s status", quote.ID, quote.Status)
	}

	order, err := s.buildOrder(ctx, quote.CustomerID, quote.CustomerName, OrderSourceQuote, quote.ID, quote.Items)
	if err != nil {
		return nil, err
	}
	if err := quote.MarkConverted(order.ID); err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orders.Save(txCtx, order); err != nil {
			return err
		}
		return s.quotes.SaveWithLock(txCtx, quote)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ConvertPurchaseOrderToOrder converts an approved purchase order into
// an order under the same all-or-nothing contract as quote conversion.
func (s *ConversionService) ConvertPurchaseOrderToOrder(ctx context.Context, purchaseOrderID uuid.UUID) (*Order, error) {
	po, err := s.purchaseOrders.FindByID(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	if po.Status == PurchaseOrderStatusConverted {
		return nil, shared.NewDomainErrorf(shared.CodeAlreadyConverted,
			"Purchase order %s has already been converted", po.ID)
	}
	if !po.IsConvertible() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Purchase order %s cannot be converted in %s status", po.ID, po.Status)
	}

	order, err := s.buildOrder(ctx, po.CustomerID, po.CustomerName, OrderSourcePurchaseOrder, po.ID, po.Items)
	if err != nil {
		return nil, err
	}
	if err := po.MarkConverted(order.ID); err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orders.Save(txCtx, order); err != nil {
			return err
		}
		return s.purchaseOrders.SaveWithLock(txCtx, po)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// buildOrder validates stock for every line and assembles the order
// with frozen line copies and a freshly allocated order number.
func (s *ConversionService) buildOrder(ctx context.Context, customerID uuid.UUID, customerName string, source OrderSource, sourceID uuid.UUID, lines []LineItem) (*Order, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Cannot convert a document without lines")
	}

	for i := range lines {
		available, err := s.catalog.AvailableStock(ctx, lines[i].ProductID, lines[i].VariantID)
		if err != nil {
			return nil, err
		}
		if available < lines[i].Quantity {
			return nil, shared.NewDomainErrorf(shared.CodeInsufficientStock,
				"Line %d (%s): requested %d, available %d", i, lines[i].Description, lines[i].Quantity, available)
		}
	}

	customer, err := s.customers.CustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	orderNumber, err := s.numbers.Generate(ctx, DocumentTypeOrder, customer.Identifier(), s.now())
	if err != nil {
		return nil, err
	}

	src := sourceID
	return NewOrderFromLines(orderNumber, customerID, customerName, source, &src, lines)
}

// GenerateInvoiceInput carries the caller's choices for invoice generation
type GenerateInvoiceInput struct {
	OrderID uuid.UUID
	// AsDraft creates the invoice in DRAFT instead of ISSUED
	AsDraft bool
}

// GenerateInvoice creates the invoice for an order: recomputes the tax
// breakdown from the order's lines, allocates the invoice number, and
// derives the due date from the customer's payment terms. An order may
// carry at most one non-voided invoice; a violation fails with
// INVOICE_ALREADY_EXISTS. The existence check inside the transaction is
// a fast path; the store itself rejects a second concurrent insert, so
// two racing calls cannot both succeed.
func (s *ConversionService) GenerateInvoice(ctx context.Context, input GenerateInvoiceInput) (*Invoice, error) {
	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	// Validate the lines up front so a broken order aborts before any
	// sequence value is consumed.
	if _, err := order.TaxBreakdown(); err != nil {
		return nil, err
	}

	customer, err := s.customers.CustomerByID(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}

	issueDate := s.now()
	invoiceNumber, err := s.numbers.Generate(ctx, DocumentTypeInvoice, customer.Identifier(), issueDate)
	if err != nil {
		return nil, err
	}
	dueDate := ComputeDueDate(issueDate, ResolveTermDays(customer, s.defaultTermDays))

	invoice, err := NewInvoice(invoiceNumber, order, issueDate, dueDate, !input.AsDraft)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		exists, err := s.invoices.ExistsNonVoidedByOrder(txCtx, order.ID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainErrorf(shared.CodeInvoiceAlreadyExists,
				"Order %s already has a non-voided invoice", order.ID)
		}
		return s.invoices.Save(txCtx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

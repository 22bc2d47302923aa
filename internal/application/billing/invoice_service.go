package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/epicerie/backend/internal/domain/billing"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

// InvoiceService handles invoice business operations
type InvoiceService struct {
	invoices  billing.InvoiceRepository
	orders    billing.OrderRepository
	converter *billing.ConversionService
	logger    *zap.Logger
	now       func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoices billing.InvoiceRepository,
	orders billing.OrderRepository,
	converter *billing.ConversionService,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices:  invoices,
		orders:    orders,
		converter: converter,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the service clock. Intended for tests.
func (s *InvoiceService) WithClock(now func() time.Time) *InvoiceService {
	s.now = now
	return s
}

// Generate creates the invoice for an order
func (s *InvoiceService) Generate(ctx context.Context, orderID uuid.UUID, req GenerateInvoiceRequest) (*InvoiceResponse, error) {
	invoice, err := s.converter.GenerateInvoice(ctx, billing.GenerateInvoiceInput{
		OrderID: orderID,
		AsDraft: req.AsDraft,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice generated",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("order_id", orderID.String()))

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetOrder retrieves an order by ID
func (s *InvoiceService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := buildFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	invoices, err := s.invoices.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoices.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, ToInvoiceResponse(&invoices[i]))
	}
	return responses, total, nil
}

// Issue transitions a draft invoice to ISSUED
func (s *InvoiceService) Issue(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := invoice.Issue(); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// MarkSent records that the invoice was delivered to the customer
func (s *InvoiceService) MarkSent(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := invoice.MarkSent(); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// ApplyPayment records a payment against the invoice
func (s *InvoiceService) ApplyPayment(ctx context.Context, invoiceID uuid.UUID, req ApplyPaymentRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	amount, err := valueobject.NewMoney(req.Amount, valueobject.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	if err := invoice.ApplyPayment(amount); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("payment applied",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int64("amount", req.Amount),
		zap.String("status", invoice.Status.String()))

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// MarkOverdueDue flags every sent or partially paid invoice whose due
// date has passed as OVERDUE. Returns the number of invoices flagged;
// individual failures are logged and skipped so one bad row does not
// stall the sweep.
func (s *InvoiceService) MarkOverdueDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.invoices.FindOverdueCandidates(ctx, now)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for i := range due {
		invoice := &due[i]
		if err := invoice.MarkOverdue(now); err != nil {
			s.logger.Warn("overdue flag skipped",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
			// Lost the race to a concurrent payment or cancellation; the
			// next sweep will pick the invoice up again if still due.
			s.logger.Warn("overdue flag not saved",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err))
			continue
		}
		flagged++
	}

	if flagged > 0 {
		s.logger.Info("flagged overdue invoices", zap.Int("count", flagged))
	}
	return flagged, nil
}

// Cancel cancels an invoice with a reason
func (s *InvoiceService) Cancel(ctx context.Context, invoiceID uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := invoice.Cancel(req.Reason); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// Void voids an invoice, freeing its order for re-invoicing
func (s *InvoiceService) Void(ctx context.Context, invoiceID uuid.UUID, req VoidInvoiceRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := invoice.Void(req.Reason); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice voided",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("reason", req.Reason))

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

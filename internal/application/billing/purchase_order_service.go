package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/epicerie/backend/internal/domain/billing"
	"github.com/epicerie/backend/internal/domain/catalog"
	"github.com/epicerie/backend/internal/domain/partner"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

// PurchaseOrderService handles client purchase order business operations
type PurchaseOrderService struct {
	purchaseOrders billing.PurchaseOrderRepository
	catalog        catalog.Provider
	customers      partner.CustomerProvider
	numbers        *billing.NumberGenerator
	converter      *billing.ConversionService
	logger         *zap.Logger
	now            func() time.Time
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	purchaseOrders billing.PurchaseOrderRepository,
	catalogProvider catalog.Provider,
	customers partner.CustomerProvider,
	numbers *billing.NumberGenerator,
	converter *billing.ConversionService,
	logger *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		purchaseOrders: purchaseOrders,
		catalog:        catalogProvider,
		customers:      customers,
		numbers:        numbers,
		converter:      converter,
		logger:         logger,
		now:            time.Now,
	}
}

// WithClock replaces the service clock. Intended for tests.
func (s *PurchaseOrderService) WithClock(now func() time.Time) *PurchaseOrderService {
	s.now = now
	return s
}

// Submit registers a client purchase order. The internal PO number is
// allocated at submission; line prices are resolved from the customer's
// tier like quote intake.
func (s *PurchaseOrderService) Submit(ctx context.Context, req SubmitPurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	customer, err := s.customers.CustomerByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	poNumber, err := s.numbers.Generate(ctx, billing.DocumentTypePurchaseOrder, customer.Identifier(), s.now())
	if err != nil {
		return nil, err
	}

	po, err := billing.NewPurchaseOrder(poNumber, customer.ID, customer.Identifier(), req.ClientReference, req.AttachmentKey)
	if err != nil {
		return nil, err
	}

	for _, input := range req.Items {
		snap, err := s.catalog.PricingFor(ctx, input.ProductID, input.VariantID)
		if err != nil {
			return nil, err
		}
		unitPrice, err := billing.ResolveUnitPrice(customer.Tier, snap)
		if err != nil {
			return nil, err
		}
		rate, err := valueobject.NewVATRateFromString(input.VATRate)
		if err != nil {
			return nil, err
		}
		if _, err := po.AddLine(input.ProductID, input.VariantID, input.Description, input.Quantity, unitPrice, rate); err != nil {
			return nil, err
		}
	}

	if err := s.purchaseOrders.Save(ctx, po); err != nil {
		return nil, err
	}

	s.logger.Info("purchase order submitted",
		zap.String("po_number", poNumber),
		zap.String("client_reference", req.ClientReference))

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, poID uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.purchaseOrders.FindByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// List retrieves purchase orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, filter PurchaseOrderListFilter) ([]PurchaseOrderResponse, int64, error) {
	domainFilter := buildFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	pos, err := s.purchaseOrders.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.purchaseOrders.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PurchaseOrderResponse, 0, len(pos))
	for i := range pos {
		responses = append(responses, ToPurchaseOrderResponse(&pos[i]))
	}
	return responses, total, nil
}

// StartReview moves a submitted purchase order into admin review
func (s *PurchaseOrderService) StartReview(ctx context.Context, poID uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.purchaseOrders.FindByID(ctx, poID)
	if err != nil {
		return nil, err
	}

	if err := po.StartReview(); err != nil {
		return nil, err
	}
	if err := s.purchaseOrders.SaveWithLock(ctx, po); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// Approve approves a purchase order under review
func (s *PurchaseOrderService) Approve(ctx context.Context, poID uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.purchaseOrders.FindByID(ctx, poID)
	if err != nil {
		return nil, err
	}

	if err := po.Approve(); err != nil {
		return nil, err
	}
	if err := s.purchaseOrders.SaveWithLock(ctx, po); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// Reject rejects a purchase order with a reason
func (s *PurchaseOrderService) Reject(ctx context.Context, poID uuid.UUID, req RejectRequest) (*PurchaseOrderResponse, error) {
	po, err := s.purchaseOrders.FindByID(ctx, poID)
	if err != nil {
		return nil, err
	}

	if err := po.Reject(req.Reason); err != nil {
		return nil, err
	}
	if err := s.purchaseOrders.SaveWithLock(ctx, po); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// Convert turns an approved purchase order into an order
func (s *PurchaseOrderService) Convert(ctx context.Context, poID uuid.UUID) (*OrderResponse, error) {
	order, err := s.converter.ConvertPurchaseOrderToOrder(ctx, poID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order converted",
		zap.String("po_id", poID.String()),
		zap.String("order_number", order.OrderNumber))

	response := ToOrderResponse(order)
	return &response, nil
}

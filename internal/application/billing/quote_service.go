package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/epicerie/backend/internal/domain/billing"
	"github.com/epicerie/backend/internal/domain/catalog"
	"github.com/epicerie/backend/internal/domain/partner"
	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

// DefaultQuoteValidityDays is the validity window applied when the
// admin prices a quote without choosing one.
const DefaultQuoteValidityDays = 14

// QuoteService handles quote request business operations
type QuoteService struct {
	quotes       billing.QuoteRepository
	catalog      catalog.Provider
	customers    partner.CustomerProvider
	numbers      *billing.NumberGenerator
	converter    *billing.ConversionService
	logger       *zap.Logger
	validityDays int
	now          func() time.Time
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	quotes billing.QuoteRepository,
	catalogProvider catalog.Provider,
	customers partner.CustomerProvider,
	numbers *billing.NumberGenerator,
	converter *billing.ConversionService,
	logger *zap.Logger,
	validityDays int,
) *QuoteService {
	if validityDays <= 0 {
		validityDays = DefaultQuoteValidityDays
	}
	return &QuoteService{
		quotes:       quotes,
		catalog:      catalogProvider,
		customers:    customers,
		numbers:      numbers,
		converter:    converter,
		logger:       logger,
		validityDays: validityDays,
		now:          time.Now,
	}
}

// WithClock replaces the service clock. Intended for tests.
func (s *QuoteService) WithClock(now func() time.Time) *QuoteService {
	s.now = now
	return s
}

// Submit creates a new quote request from a customer cart. Unit prices
// are resolved server-side from the customer's tier and the catalog
// snapshot; client-supplied prices are never accepted.
func (s *QuoteService) Submit(ctx context.Context, req SubmitQuoteRequest) (*QuoteResponse, error) {
	customer, err := s.customers.CustomerByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	quote, err := billing.NewQuote(customer.ID, customer.Identifier(), req.CustomerNotes)
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
		if _, err := quote.AddLine(input.ProductID, input.VariantID, input.Description, input.Quantity, unitPrice, rate); err != nil {
			return nil, err
		}
	}

	if err := s.quotes.Save(ctx, quote); err != nil {
		return nil, err
	}

	s.logger.Info("quote request submitted",
		zap.String("quote_id", quote.ID.String()),
		zap.String("customer", quote.CustomerName),
		zap.Int("lines", len(quote.Items)))

	response := ToQuoteResponse(quote)
	return &response, nil
}

// GetByID retrieves a quote by ID
func (s *QuoteService) GetByID(ctx context.Context, quoteID uuid.UUID) (*QuoteResponse, error) {
	quote, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	response := ToQuoteResponse(quote)
	return &response, nil
}

// List retrieves quotes with filtering and pagination
func (s *QuoteService) List(ctx context.Context, filter QuoteListFilter) ([]QuoteResponse, int64, error) {
	domainFilter := buildFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	quotes, err := s.quotes.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.quotes.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]QuoteResponse, 0, len(quotes))
	for i := range quotes {
		responses = append(responses, ToQuoteResponse(&quotes[i]))
	}
	return responses, total, nil
}

// ProposeLinePrice sets the admin-proposed unit price for one line
func (s *QuoteService) ProposeLinePrice(ctx context.Context, quoteID, lineID uuid.UUID, req ProposeLinePriceRequest) (*QuoteResponse, error) {
	quote, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	price, err := valueobject.NewMoney(req.UnitPrice, valueobject.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	if err := quote.ProposeLinePrice(lineID, price); err != nil {
		return nil, err
	}
	if err := s.quotes.SaveWithLock(ctx, quote); err != nil {
		return nil, err
	}

	response := ToQuoteResponse(quote)
	return &response, nil
}

// Price issues the quote: allocates its number, opens the validity
// window and transitions it to PRICED.
func (s *QuoteService) Price(ctx context.Context, quoteID uuid.UUID, req PriceQuoteRequest) (*QuoteResponse, error) {
	quote, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.CustomerByID(ctx, quote.CustomerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	quoteNumber, err := s.numbers.Generate(ctx, billing.DocumentTypeQuote, customer.Identifier(), now)
	if err != nil {
		return nil, err
	}

	validityDays := req.ValidityDays
	if validityDays <= 0 {
		validityDays = s.validityDays
	}
	if err := quote.MarkPriced(quoteNumber, now.AddDate(0, 0, validityDays)); err != nil {
		return nil, err
	}
	if req.AdminNotes != "" {
		quote.SetAdminNotes(req.AdminNotes)
	}

	if err := s.quotes.SaveWithLock(ctx, quote); err != nil {
		return nil, err
	}

	s.logger.Info("quote priced",
		zap.String("quote_id", quote.ID.String()),
		zap.String("quote_number", quoteNumber))

	response := ToQuoteResponse(quote)
	return &response, nil
}

// Accept records the client's acceptance of a priced quote
func (s *QuoteService) Accept(ctx context.Context, quoteID uuid.UUID) (*QuoteResponse, error) {
	quote, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if err := quote.Accept(s.now()); err != nil {
		return nil, err
	}
	if err := s.quotes.SaveWithLock(ctx, quote); err != nil {
		return nil, err
	}

	response := ToQuoteResponse(quote)
	return &response, nil
}

// Reject rejects a quote with a reason
func (s *QuoteService) Reject(ctx context.Context, quoteID uuid.UUID, req RejectRequest) (*QuoteResponse, error) {
	quote, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if err := quote.Reject(req.Reason); err != nil {
		return nil, err
	}
	if err := s.quotes.SaveWithLock(ctx, quote); err != nil {
		return nil, err
	}

	response := ToQuoteResponse(quote)
	return &response, nil
}

// Convert turns an accepted quote into an order
func (s *QuoteService) Convert(ctx context.Context, quoteID uuid.UUID) (*OrderResponse, error) {
	order, err := s.converter.ConvertQuoteToOrder(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote converted",
		zap.String("quote_id", quoteID.String()),
		zap.String("order_number", order.OrderNumber))

	response := ToOrderResponse(order)
	return &response, nil
}

// ExpireDue expires every PRICED quote whose validity window has
// passed. Returns the number of quotes expired; individual failures
// are logged and skipped so one bad row does not stall the sweep.
func (s *QuoteService) ExpireDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.quotes.FindExpiredPriced(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		quote := &due[i]
		if err := quote.Expire(now); err != nil {
			s.logger.Warn("quote expiry skipped",
				zap.String("quote_id", quote.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.quotes.SaveWithLock(ctx, quote); err != nil {
			// Lost the race to a concurrent accept or reject; the next
			// sweep will pick the quote up again if still due.
			s.logger.Warn("quote expiry not saved",
				zap.String("quote_id", quote.ID.String()),
				zap.Error(err))
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("expired stale quotes", zap.Int("count", expired))
	}
	return expired, nil
}

// buildFilter assembles a domain filter with list defaults applied
func buildFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if orderBy == "" {
		orderBy = "created_at"
	}
	if orderDir == "" {
		orderDir = "desc"
	}
	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  orderBy,
		OrderDir: orderDir,
		Search:   search,
		Filters:  make(map[string]interface{}),
	}
}

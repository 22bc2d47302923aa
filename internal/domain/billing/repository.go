package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/epicerie/backend/internal/domain/shared"
)

// QuoteRepository defines the interface for quote persistence
type QuoteRepository interface {
	// FindByID finds a quote by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)

	// FindByNumber finds a quote by its quote number
	FindByNumber(ctx context.Context, quoteNumber string) (*Quote, error)

	// FindAll finds quotes with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Quote, error)

	// FindByStatus finds quotes by status
	FindByStatus(ctx context.Context, status QuoteStatus, filter shared.Filter) ([]Quote, error)

	// FindExpiredPriced finds PRICED quotes whose validity window passed before asOf
	FindExpiredPriced(ctx context.Context, asOf time.Time) ([]Quote, error)

	// Save creates or updates a quote
	Save(ctx context.Context, quote *Quote) error

	// SaveWithLock saves with optimistic locking (version check-and-set);
	// fails with CONCURRENT_MODIFICATION when the stored version moved
	SaveWithLock(ctx context.Context, quote *Quote) error

	// Count counts quotes matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByNumber(ctx context.Context, poNumber string) (*PurchaseOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, error)
	FindByStatus(ctx context.Context, status PurchaseOrderStatus, filter shared.Filter) ([]PurchaseOrder, error)
	Save(ctx context.Context, po *PurchaseOrder) error
	SaveWithLock(ctx context.Context, po *PurchaseOrder) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	Save(ctx context.Context, order *Order) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Invoice, error)

	// ExistsNonVoidedByOrder reports whether the order already carries an
	// invoice that has not been voided
	ExistsNonVoidedByOrder(ctx context.Context, orderID uuid.UUID) (bool, error)

	// FindOverdueCandidates finds SENT and PARTIALLY_PAID invoices whose
	// due date passed before asOf
	FindOverdueCandidates(ctx context.Context, asOf time.Time) ([]Invoice, error)

	Save(ctx context.Context, invoice *Invoice) error
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

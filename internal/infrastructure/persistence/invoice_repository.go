package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/epicerie/backend/internal/domain/billing"
	"github.com/epicerie/backend/internal/domain/shared"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *Database
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *Database) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := dbFrom(ctx, r.db.DB).
		Preload("Items", orderByPosition).
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByNumber finds an invoice by its invoice number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := dbFrom(ctx, r.db.DB).
		Preload("Items", orderByPosition).
		Where("invoice_number = ?", invoiceNumber).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindAll finds invoices with filtering and pagination
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := applyDocumentFilter(
		dbFrom(ctx, r.db.DB).Model(&billing.Invoice{}).Preload("Items", orderByPosition),
		filter, InvoiceSortFields, "invoice_number", "customer_name",
	)
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByOrder finds all invoices of an order, voided ones included
func (r *GormInvoiceRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	if err := dbFrom(ctx, r.db.DB).
		Preload("Items", orderByPosition).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindOverdueCandidates finds SENT and PARTIALLY_PAID invoices whose
// due date passed before asOf
func (r *GormInvoiceRepository) FindOverdueCandidates(ctx context.Context, asOf time.Time) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	if err := dbFrom(ctx, r.db.DB).
		Preload("Items", orderByPosition).
		Where("status IN ? AND due_date < ?",
			[]billing.InvoiceStatus{billing.InvoiceStatusSent, billing.InvoiceStatusPartiallyPaid}, asOf).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// ExistsNonVoidedByOrder reports whether the order already carries an
// invoice that has not been voided
func (r *GormInvoiceRepository) ExistsNonVoidedByOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := dbFrom(ctx, r.db.DB).Model(&billing.Invoice{}).
		Where("order_id = ? AND status <> ?", orderID, billing.InvoiceStatusVoided).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an invoice together with its lines. The
// partial unique index on (order_id) over non-voided rows rejects a
// second live invoice for the same order even under concurrent writes;
// the conflict surfaces as INVOICE_ALREADY_EXISTS.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return dbFrom(ctx, r.db.DB).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainErrorf(shared.CodeInvoiceAlreadyExists,
					"Order %s already has a non-voided invoice", invoice.OrderID)
			}
			return err
		}
		return saveLineItems(tx, invoice.ID, invoice.Items)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	return dbFrom(ctx, r.db.DB).Transaction(func(tx *gorm.DB) error {
		currentVersion, err := readVersion(tx, &billing.Invoice{}, invoice.ID)
		if err != nil {
			return err
		}
		if currentVersion != invoice.Version {
			return shared.ErrConcurrentModification
		}

		invoice.Version++
		invoice.UpdatedAt = time.Now()

		result := tx.Model(&billing.Invoice{}).
			Where("id = ? AND version = ?", invoice.ID, currentVersion).
			Updates(map[string]interface{}{
				"invoice_number": invoice.InvoiceNumber,
				"order_id":       invoice.OrderID,
				"customer_id":    invoice.CustomerID,
				"customer_name":  invoice.CustomerName,
				"status":         invoice.Status,
				"issue_date":     invoice.IssueDate,
				"due_date":       invoice.DueDate,
				"paid_amount":    invoice.PaidAmount,
				"sent_at":        invoice.SentAt,
				"paid_at":        invoice.PaidAt,
				"cancelled_at":   invoice.CancelledAt,
				"voided_at":      invoice.VoidedAt,
				"cancel_reason":  invoice.CancelReason,
				"void_reason":    invoice.VoidReason,
				"version":        invoice.Version,
				"updated_at":     invoice.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrentModification
		}

		return saveLineItems(tx, invoice.ID, invoice.Items)
	})
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyDocumentFilterWithoutPagination(
		dbFrom(ctx, r.db.DB).Model(&billing.Invoice{}),
		filter, "invoice_number", "customer_name",
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormInvoiceRepository implements billing.InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)

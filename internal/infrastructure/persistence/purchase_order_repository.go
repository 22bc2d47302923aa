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

// GormPurchaseOrderRepository implements billing.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *Database
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *Database) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order by its ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PurchaseOrder, error) {
	var po billing.PurchaseOrder
	if err := dbFrom(ctx, r.db.DB).
		Preload("Items", orderByPosition).
		First(&po, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// FindByNumber finds a purchase order by its internal PO number
func (r *GormPurchaseOrderRepository) FindByNumber(ctx context.Context, poNumber string) (*billing.PurchaseOrder, error) {
	var po billing.PurchaseOrder
	if err := dbFrom(ctx, r.db.DB).
		Preload("Items", orderByPosition).
		Where("po_number = ?", poNumber).
		First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// FindAll finds purchase orders with filtering and pagination
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.PurchaseOrder, error) {
	var pos []billing.PurchaseOrder
	query := applyDocumentFilter(
		dbFrom(ctx, r.db.DB).Model(&billing.PurchaseOrder{}).Preload("Items", orderByPosition),
		filter, PurchaseOrderSortFields, "po_number", "client_reference", "customer_name",
	)
	if err := query.Find(&pos).Error; err != nil {
		return nil, err
	}
	return pos, nil
}

// FindByStatus finds purchase orders by status
func (r *GormPurchaseOrderRepository) FindByStatus(ctx context.Context, status billing.PurchaseOrderStatus, filter shared.Filter) ([]billing.PurchaseOrder, error) {
	var pos []billing.PurchaseOrder
	query := applyDocumentFilter(
		dbFrom(ctx, r.db.DB).Model(&billing.PurchaseOrder{}).
			Preload("Items", orderByPosition).
			Where("status = ?", status),
		filter, PurchaseOrderSortFields, "po_number", "client_reference", "customer_name",
	)
	if err := query.Find(&pos).Error; err != nil {
		return nil, err
	}
	return pos, nil
}

// Save creates or updates a purchase order together with its lines
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, po *billing.PurchaseOrder) error {
	return dbFrom(ctx, r.db.DB).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(po).Error; err != nil {
			return err
		}
		return saveLineItems(tx, po.ID, po.Items)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, po *billing.PurchaseOrder) error {
	return dbFrom(ctx, r.db.DB).Transaction(func(tx *gorm.DB) error {
		currentVersion, err := readVersion(tx, &billing.PurchaseOrder{}, po.ID)
		if err != nil {
			return err
		}
		if currentVersion != po.Version {
			return shared.ErrConcurrentModification
		}

		po.Version++
		po.UpdatedAt = time.Now()

		result := tx.Model(&billing.PurchaseOrder{}).
			Where("id = ? AND version = ?", po.ID, currentVersion).
			Updates(map[string]interface{}{
				"po_number":          po.PONumber,
				"client_reference":   po.ClientReference,
				"attachment_key":     po.AttachmentKey,
				"customer_id":        po.CustomerID,
				"customer_name":      po.CustomerName,
				"status":             po.Status,
				"reject_reason":      po.RejectReason,
				"converted_order_id": po.ConvertedOrderID,
				"review_started_at":  po.ReviewStartedAt,
				"approved_at":        po.ApprovedAt,
				"rejected_at":        po.RejectedAt,
				"converted_at":       po.ConvertedAt,
				"version":            po.Version,
				"updated_at":         po.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrentModification
		}

		return saveLineItems(tx, po.ID, po.Items)
	})
}

// Count counts purchase orders matching the filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyDocumentFilterWithoutPagination(
		dbFrom(ctx, r.db.DB).Model(&billing.PurchaseOrder{}),
		filter, "po_number", "client_reference", "customer_name",
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormPurchaseOrderRepository implements billing.PurchaseOrderRepository
var _ billing.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)

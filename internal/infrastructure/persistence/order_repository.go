package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/epicerie/backend/internal/domain/billing"
	"github.com/epicerie/backend/internal/domain/shared"
)

// GormOrderRepository implements billing.OrderRepository using GORM
type GormOrderRepository struct {
	db *Database
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *Database) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Order, error) {
	var order billing.Order
	if err := dbFrom(ctx, r.db.DB).
		Preload("Items", orderByPosition).
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByNumber finds an order by its order number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*billing.Order, error) {
	var order billing.Order
	if err := dbFrom(ctx, r.db.DB).
		Preload("Items", orderByPosition).
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll finds orders with filtering and pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Order, error) {
	var orders []billing.Order
	query := applyDocumentFilter(
		dbFrom(ctx, r.db.DB).Model(&billing.Order{}).Preload("Items", orderByPosition),
		filter, OrderSortFields, "order_number", "customer_name",
	)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates an order together with its lines. Orders are
// immutable once created; Save exists for the conversion write path.
func (r *GormOrderRepository) Save(ctx context.Context, order *billing.Order) error {
	return dbFrom(ctx, r.db.DB).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(order).Error; err != nil {
			return err
		}
		return saveLineItems(tx, order.ID, order.Items)
	})
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyDocumentFilterWithoutPagination(
		dbFrom(ctx, r.db.DB).Model(&billing.Order{}),
		filter, "order_number", "customer_name",
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormOrderRepository implements billing.OrderRepository
var _ billing.OrderRepository = (*GormOrderRepository)(nil)

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

// GormQuoteRepository implements billing.QuoteRepository using GORM
type GormQuoteRepository struct {
	db *Database
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *Database) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByID finds a quote by its ID
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Quote, error) {
	var quote billing.Quote
	if err := dbFrom(ctx, r.db.DB).
		Preload("Items", orderByPosition).
		First(&quote, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// FindByNumber finds a quote by its quote number
func (r *GormQuoteRepository) FindByNumber(ctx context.Context, quoteNumber string) (*billing.Quote, error) {
	var quote billing.Quote
	if err := dbFrom(ctx, r.db.DB).
		Preload("Items", orderByPosition).
		Where("quote_number = ?", quoteNumber).
		First(&quote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// FindAll finds quotes with filtering and pagination
func (r *GormQuoteRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Quote, error) {
	var quotes []billing.Quote
	query := applyDocumentFilter(
		dbFrom(ctx, r.db.DB).Model(&billing.Quote{}).Preload("Items", orderByPosition),
		filter, QuoteSortFields, "quote_number", "customer_name",
	)
	if err := query.Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// FindByStatus finds quotes by status
func (r *GormQuoteRepository) FindByStatus(ctx context.Context, status billing.QuoteStatus, filter shared.Filter) ([]billing.Quote, error) {
	var quotes []billing.Quote
	query := applyDocumentFilter(
		dbFrom(ctx, r.db.DB).Model(&billing.Quote{}).
			Preload("Items", orderByPosition).
			Where("status = ?", status),
		filter, QuoteSortFields, "quote_number", "customer_name",
	)
	if err := query.Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// FindExpiredPriced finds PRICED quotes whose validity window passed before asOf
func (r *GormQuoteRepository) FindExpiredPriced(ctx context.Context, asOf time.Time) ([]billing.Quote, error) {
	var quotes []billing.Quote
	if err := dbFrom(ctx, r.db.DB).
		Preload("Items", orderByPosition).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", billing.QuoteStatusPriced, asOf).
		Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// Save creates or updates a quote together with its lines
func (r *GormQuoteRepository) Save(ctx context.Context, quote *billing.Quote) error {
	return dbFrom(ctx, r.db.DB).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(quote).Error; err != nil {
			return err
		}
		return saveLineItems(tx, quote.ID, quote.Items)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormQuoteRepository) SaveWithLock(ctx context.Context, quote *billing.Quote) error {
	return dbFrom(ctx, r.db.DB).Transaction(func(tx *gorm.DB) error {
		currentVersion, err := readVersion(tx, &billing.Quote{}, quote.ID)
		if err != nil {
			return err
		}
		if currentVersion != quote.Version {
			return shared.ErrConcurrentModification
		}

		quote.Version++
		quote.UpdatedAt = time.Now()

		result := tx.Model(&billing.Quote{}).
			Where("id = ? AND version = ?", quote.ID, currentVersion).
			Updates(map[string]interface{}{
				"quote_number":       quote.QuoteNumber,
				"customer_id":        quote.CustomerID,
				"customer_name":      quote.CustomerName,
				"status":             quote.Status,
				"valid_until":        quote.ValidUntil,
				"customer_notes":     quote.CustomerNotes,
				"admin_notes":        quote.AdminNotes,
				"reject_reason":      quote.RejectReason,
				"converted_order_id": quote.ConvertedOrderID,
				"priced_at":          quote.PricedAt,
				"accepted_at":        quote.AcceptedAt,
				"rejected_at":        quote.RejectedAt,
				"expired_at":         quote.ExpiredAt,
				"converted_at":       quote.ConvertedAt,
				"version":            quote.Version,
				"updated_at":         quote.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrentModification
		}

		return saveLineItems(tx, quote.ID, quote.Items)
	})
}

// Count counts quotes matching the filter
func (r *GormQuoteRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyDocumentFilterWithoutPagination(
		dbFrom(ctx, r.db.DB).Model(&billing.Quote{}),
		filter, "quote_number", "customer_name",
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormQuoteRepository implements billing.QuoteRepository
var _ billing.QuoteRepository = (*GormQuoteRepository)(nil)

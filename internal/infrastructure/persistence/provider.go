package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/epicerie/backend/internal/domain/catalog"
	"github.com/epicerie/backend/internal/domain/partner"
	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

// CustomerRecord is the stored shape of a customer account
type CustomerRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"size:200;not null"`
	CompanyName     string    `gorm:"size:200"`
	TierCode        string    `gorm:"size:50"`
	TierDiscount    string    `gorm:"size:20"` // decimal percentage, e.g. "10"
	PaymentTermDays *int
}

// TableName returns the table name for customer records
func (CustomerRecord) TableName() string {
	return "customers"
}

// ProductRecord is the stored pricing and stock shape of a product or
// variant. Variants carry their parent's ID in ProductID and their own
// in VariantID; plain products leave VariantID empty.
type ProductRecord struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID  `gorm:"type:uuid;index;not null"`
	VariantID  *uuid.UUID `gorm:"type:uuid;index"`
	Name       string     `gorm:"size:200;not null"`
	BasePrice  *int64     // minor units; nil means no retail price
	Stock      int64      `gorm:"not null;default:0"`
}

// TableName returns the table name for product records
func (ProductRecord) TableName() string {
	return "catalog_products"
}

// TierPriceOverride is one explicit tier price for a product or variant
type TierPriceOverride struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID  `gorm:"type:uuid;index;not null"`
	VariantID *uuid.UUID `gorm:"type:uuid;index"`
	TierCode  string     `gorm:"size:50;not null"`
	Price     int64      `gorm:"not null"` // minor units
}

// TableName returns the table name for tier price overrides
func (TierPriceOverride) TableName() string {
	return "tier_price_overrides"
}

// GormProvider serves customer snapshots and catalog pricing/stock
// lookups from the database. It implements both partner.CustomerProvider
// and catalog.Provider.
type GormProvider struct {
	db *Database
}

// NewGormProvider creates a GormProvider
func NewGormProvider(db *Database) *GormProvider {
	return &GormProvider{db: db}
}

// CustomerByID returns the customer snapshot the billing core works with
func (p *GormProvider) CustomerByID(ctx context.Context, id uuid.UUID) (partner.Customer, error) {
	var rec CustomerRecord
	if err := dbFrom(ctx, p.db.DB).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return partner.Customer{}, shared.ErrNotFound
		}
		return partner.Customer{}, err
	}

	tier := partner.StandardTier()
	if rec.TierCode != "" {
		discount := decimal.Zero
		if rec.TierDiscount != "" {
			d, err := decimal.NewFromString(rec.TierDiscount)
			if err != nil {
				return partner.Customer{}, shared.NewDomainErrorf(shared.CodeInvalidInput,
					"Customer %s has a malformed tier discount %q", id, rec.TierDiscount)
			}
			discount = d
		}
		t, err := partner.NewCustomerTier(rec.TierCode, discount)
		if err != nil {
			return partner.Customer{}, err
		}
		tier = t
	}

	return partner.Customer{
		ID:              rec.ID,
		Name:            rec.Name,
		CompanyName:     rec.CompanyName,
		Tier:            tier,
		PaymentTermDays: rec.PaymentTermDays,
	}, nil
}

// PricingFor returns the pricing snapshot for a product/variant pair
func (p *GormProvider) PricingFor(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (catalog.PricingSnapshot, error) {
	rec, err := p.findProduct(ctx, productID, variantID)
	if err != nil {
		return catalog.PricingSnapshot{}, err
	}

	snap := catalog.PricingSnapshot{
		ProductID: productID,
		VariantID: variantID,
	}
	if rec.BasePrice != nil {
		base := valueobject.NewMoneyEUR(*rec.BasePrice)
		snap.BasePrice = &base
	}

	var overrides []TierPriceOverride
	if err := dbFrom(ctx, p.db.DB).
		Where("product_id = ?", productID).
		Find(&overrides).Error; err != nil {
		return catalog.PricingSnapshot{}, err
	}

	snap.ProductOverrides = make(map[string]valueobject.Money)
	snap.VariantOverrides = make(map[string]valueobject.Money)
	for _, o := range overrides {
		price := valueobject.NewMoneyEUR(o.Price)
		switch {
		case o.VariantID == nil:
			snap.ProductOverrides[o.TierCode] = price
		case variantID != nil && *o.VariantID == *variantID:
			snap.VariantOverrides[o.TierCode] = price
		}
	}
	return snap, nil
}

// AvailableStock returns the currently available quantity for a
// product/variant pair
func (p *GormProvider) AvailableStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (int64, error) {
	rec, err := p.findProduct(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	return rec.Stock, nil
}

func (p *GormProvider) findProduct(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*ProductRecord, error) {
	query := dbFrom(ctx, p.db.DB).Where("product_id = ?", productID)
	if variantID != nil {
		query = query.Where("variant_id = ?", *variantID)
	} else {
		query = query.Where("variant_id IS NULL")
	}

	var rec ProductRecord
	if err := query.First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Ensure GormProvider implements both provider interfaces
var (
	_ partner.CustomerProvider = (*GormProvider)(nil)
	_ catalog.Provider         = (*GormProvider)(nil)
)

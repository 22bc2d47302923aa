package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicerie/backend/internal/domain/partner"
	"github.com/epicerie/backend/internal/domain/shared"
)

func TestGormProvider_CustomerByID(t *testing.T) {
	db := setupTestDB(t)
	provider := NewGormProvider(db)
	ctx := context.Background()

	termDays := 60
	gold := CustomerRecord{
		ID:              uuid.New(),
		Name:            "Laurent",
		CompanyName:     "Fromagerie Laurent",
		TierCode:        partner.TierCodeGold,
		TierDiscount:    "10",
		PaymentTermDays: &termDays,
	}
	require.NoError(t, db.DB.Create(&gold).Error)

	untiered := CustomerRecord{ID: uuid.New(), Name: "Petit"}
	require.NoError(t, db.DB.Create(&untiered).Error)

	t.Run("tier and payment term are loaded", func(t *testing.T) {
		customer, err := provider.CustomerByID(ctx, gold.ID)
		require.NoError(t, err)
		assert.Equal(t, "Fromagerie Laurent", customer.Identifier())
		assert.Equal(t, partner.TierCodeGold, customer.Tier.Code())
		assert.Equal(t, "10", customer.Tier.DiscountPercent().String())
		require.NotNil(t, customer.PaymentTermDays)
		assert.Equal(t, 60, *customer.PaymentTermDays)
	})

	t.Run("missing tier falls back to standard", func(t *testing.T) {
		customer, err := provider.CustomerByID(ctx, untiered.ID)
		require.NoError(t, err)
		assert.Equal(t, partner.TierCodeStandard, customer.Tier.Code())
		assert.False(t, customer.Tier.HasDiscount())
		assert.Nil(t, customer.PaymentTermDays)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := provider.CustomerByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProvider_PricingFor(t *testing.T) {
	db := setupTestDB(t)
	provider := NewGormProvider(db)
	ctx := context.Background()

	productID := uuid.New()
	variantID := uuid.New()
	basePrice := int64(2500)

	require.NoError(t, db.DB.Create(&ProductRecord{
		ID:        uuid.New(),
		ProductID: productID,
		Name:      "Comté 18 months",
		BasePrice: &basePrice,
		Stock:     40,
	}).Error)
	require.NoError(t, db.DB.Create(&ProductRecord{
		ID:        uuid.New(),
		ProductID: productID,
		VariantID: &variantID,
		Name:      "Comté 18 months, whole wheel",
		BasePrice: &basePrice,
		Stock:     6,
	}).Error)

	require.NoError(t, db.DB.Create(&TierPriceOverride{
		ID:        uuid.New(),
		ProductID: productID,
		TierCode:  partner.TierCodeGold,
		Price:     2200,
	}).Error)
	require.NoError(t, db.DB.Create(&TierPriceOverride{
		ID:        uuid.New(),
		ProductID: productID,
		VariantID: &variantID,
		TierCode:  partner.TierCodeGold,
		Price:     2100,
	}).Error)

	t.Run("product level snapshot", func(t *testing.T) {
		snap, err := provider.PricingFor(ctx, productID, nil)
		require.NoError(t, err)
		require.NotNil(t, snap.BasePrice)
		assert.Equal(t, int64(2500), snap.BasePrice.Amount())
		assert.Equal(t, int64(2200), snap.ProductOverrides[partner.TierCodeGold].Amount())
		assert.Empty(t, snap.VariantOverrides)
	})

	t.Run("variant snapshot carries both override levels", func(t *testing.T) {
		snap, err := provider.PricingFor(ctx, productID, &variantID)
		require.NoError(t, err)
		assert.Equal(t, int64(2200), snap.ProductOverrides[partner.TierCodeGold].Amount())
		assert.Equal(t, int64(2100), snap.VariantOverrides[partner.TierCodeGold].Amount())
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := provider.PricingFor(ctx, uuid.New(), nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProvider_AvailableStock(t *testing.T) {
	db := setupTestDB(t)
	provider := NewGormProvider(db)
	ctx := context.Background()

	productID := uuid.New()
	variantID := uuid.New()
	require.NoError(t, db.DB.Create(&ProductRecord{
		ID:        uuid.New(),
		ProductID: productID,
		Name:      "Olive oil, 1L",
		Stock:     120,
	}).Error)
	require.NoError(t, db.DB.Create(&ProductRecord{
		ID:        uuid.New(),
		ProductID: productID,
		VariantID: &variantID,
		Name:      "Olive oil, 5L",
		Stock:     12,
	}).Error)

	stock, err := provider.AvailableStock(ctx, productID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(120), stock)

	stock, err = provider.AvailableStock(ctx, productID, &variantID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), stock)
}

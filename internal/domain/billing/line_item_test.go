package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

func TestNewLineItem(t *testing.T) {
	docID := uuid.New()
	productID := uuid.New()

	tests := []struct {
		name        string
		productID   uuid.UUID
		description string
		quantity    int64
		unitPrice   valueobject.Money
		expectError bool
	}{
		{
			name:        "valid line",
			productID:   productID,
			description: "Comté 18 mois",
			quantity:    3,
			unitPrice:   valueobject.NewMoneyEUR(1250),
		},
		{
			name:        "quantity of one",
			productID:   productID,
			description: "Huile d'olive 1L",
			quantity:    1,
			unitPrice:   valueobject.NewMoneyEUR(1890),
		},
		{
			name:        "free sample at zero price",
			productID:   productID,
			description: "Sample",
			quantity:    1,
			unitPrice:   valueobject.ZeroEUR(),
		},
		{
			name:        "zero quantity",
			productID:   productID,
			description: "Comté 18 mois",
			quantity:    0,
			unitPrice:   valueobject.NewMoneyEUR(1250),
			expectError: true,
		},
		{
			name:        "negative quantity",
			productID:   productID,
			description: "Comté 18 mois",
			quantity:    -2,
			unitPrice:   valueobject.NewMoneyEUR(1250),
			expectError: true,
		},
		{
			name:        "negative price",
			productID:   productID,
			description: "Comté 18 mois",
			quantity:    1,
			unitPrice:   valueobject.NewMoneyEUR(-100),
			expectError: true,
		},
		{
			name:        "missing product",
			productID:   uuid.Nil,
			description: "Comté 18 mois",
			quantity:    1,
			unitPrice:   valueobject.NewMoneyEUR(1250),
			expectError: true,
		},
		{
			name:        "empty description",
			productID:   productID,
			description: "",
			quantity:    1,
			unitPrice:   valueobject.NewMoneyEUR(1250),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewLineItem(docID, tt.productID, nil, tt.description, tt.quantity, tt.unitPrice, valueobject.MustVATRate("20"), 0)
			if tt.expectError {
				assert.Error(t, err)
				assert.True(t, shared.IsCode(err, shared.CodeInvalidLineItem))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, docID, item.DocumentID)
			assert.Equal(t, tt.quantity, item.Quantity)
		})
	}
}

func TestLineItem_ComputeLine(t *testing.T) {
	tests := []struct {
		name          string
		quantity      int64
		unitPrice     int64
		rate          string
		expectedNet   int64
		expectedTax   int64
		expectedGross int64
	}{
		{
			name:          "standard rate",
			quantity:      2,
			unitPrice:     1400, // 2 x 14.00 = 28.00, 20% = 5.60
			rate:          "20",
			expectedNet:   2800,
			expectedTax:   560,
			expectedGross: 3360,
		},
		{
			name:          "reduced rate",
			quantity:      4,
			unitPrice:     2500, // 100.00, 5.5% = 5.50
			rate:          "5.5",
			expectedNet:   10000,
			expectedTax:   550,
			expectedGross: 10550,
		},
		{
			name:          "tax rounds half up once on line total",
			quantity:      3,
			unitPrice:     333, // 9.99, 5.5% = 54.945 -> 55
			rate:          "5.5",
			expectedNet:   999,
			expectedTax:   55,
			expectedGross: 1054,
		},
		{
			name:          "zero rate keeps zero tax",
			quantity:      5,
			unitPrice:     200,
			rate:          "0",
			expectedNet:   1000,
			expectedTax:   0,
			expectedGross: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewLineItem(uuid.New(), uuid.New(), nil, "Produit", tt.quantity, valueobject.NewMoneyEUR(tt.unitPrice), valueobject.MustVATRate(tt.rate), 0)
			require.NoError(t, err)

			amounts, err := item.ComputeLine()
			require.NoError(t, err)
			assert.Equal(t, tt.expectedNet, amounts.Net.Amount())
			assert.Equal(t, tt.expectedTax, amounts.Tax.Amount())
			assert.Equal(t, tt.expectedGross, amounts.Gross.Amount())
		})
	}
}

func TestLineItem_ComputeLineRejectsCorruptedLine(t *testing.T) {
	item, err := NewLineItem(uuid.New(), uuid.New(), nil, "Produit", 2, valueobject.NewMoneyEUR(1400), valueobject.MustVATRate("20"), 0)
	require.NoError(t, err)

	// Simulates a line loaded from storage with a bad quantity
	item.Quantity = 0
	_, err = item.ComputeLine()
	assert.True(t, shared.IsCode(err, shared.CodeInvalidLineItem))
}

func TestLineItem_CopyForDocument(t *testing.T) {
	original, err := NewLineItem(uuid.New(), uuid.New(), nil, "Comté 18 mois", 3, valueobject.NewMoneyEUR(1250), valueobject.MustVATRate("5.5"), 2)
	require.NoError(t, err)

	targetDoc := uuid.New()
	cp := original.CopyForDocument(targetDoc)

	assert.NotEqual(t, original.ID, cp.ID)
	assert.Equal(t, targetDoc, cp.DocumentID)
	assert.Equal(t, original.ProductID, cp.ProductID)
	assert.Equal(t, original.Quantity, cp.Quantity)
	assert.True(t, cp.UnitPrice.Equals(original.UnitPrice))
	assert.True(t, cp.VATRate.Equal(original.VATRate))
	assert.Equal(t, original.Position, cp.Position)
}

package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

// LineItem is one line of a commercial document: a product/variant
// reference, an integer quantity, the unit price resolved when the line
// was added (a snapshot, not a live reference), and the line's VAT rate.
// Once the owning document is submitted the price and rate are immutable;
// editing a line means replacing it.
//
// All document types share this shape; lines are linked to their owning
// document through DocumentID.
type LineItem struct {
	ID          uuid.UUID
	DocumentID  uuid.UUID
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	Description string
	Quantity    int64
	UnitPrice   valueobject.Money   `gorm:"type:bigint"`
	VATRate     valueobject.VATRate `gorm:"type:text"`
	Position    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the shared table for document lines
func (LineItem) TableName() string {
	return "line_items"
}

// NewLineItem creates a new document line
func NewLineItem(documentID, productID uuid.UUID, variantID *uuid.UUID, description string, quantity int64, unitPrice valueobject.Money, vatRate valueobject.VATRate, position int) (*LineItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidLineItem, "Product ID cannot be empty")
	}
	if description == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidLineItem, "Description cannot be empty")
	}
	if quantity < 1 {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidLineItem, "Quantity must be a positive integer, got %d", quantity)
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidLineItem, "Unit price cannot be negative")
	}

	now := time.Now()
	return &LineItem{
		ID:          uuid.New(),
		DocumentID:  documentID,
		ProductID:   productID,
		VariantID:   variantID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		VATRate:     vatRate,
		Position:    position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CopyForDocument returns a frozen copy of the line attached to another
// document. The copy keeps the resolved unit price and rate; only the
// identity and ownership change.
func (l *LineItem) CopyForDocument(documentID uuid.UUID) LineItem {
	now := time.Now()
	cp := *l
	cp.ID = uuid.New()
	cp.DocumentID = documentID
	cp.CreatedAt = now
	cp.UpdatedAt = now
	return cp
}

// SetUnitPrice replaces the snapshot unit price. Document aggregates
// guard this behind their own state checks.
func (l *LineItem) SetUnitPrice(unitPrice valueobject.Money) error {
	if unitPrice.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidLineItem, "Unit price cannot be negative")
	}
	l.UnitPrice = unitPrice
	l.UpdatedAt = time.Now()
	return nil
}

// LineAmounts holds the computed amounts for a single line
type LineAmounts struct {
	Net   valueobject.Money
	Tax   valueobject.Money
	Gross valueobject.Money
}

// ComputeLine computes net, tax and gross for the line:
//
//	net   = unitPrice * quantity        (exact integer multiplication)
//	tax   = net * vatRate / 100         (rounded half-up, once, per line)
//	gross = net + tax
//
// Recomputing from the stored snapshot is deterministic; running it twice
// yields identical Money values.
func (l *LineItem) ComputeLine() (LineAmounts, error) {
	if l.Quantity < 1 {
		return LineAmounts{}, shared.NewDomainErrorf(shared.CodeInvalidLineItem,
			"Quantity must be a positive integer, got %d", l.Quantity)
	}
	// Rates built through the VATRate constructor are always in range;
	// re-validate because persistence scanning bypasses it.
	if _, err := valueobject.NewVATRate(l.VATRate.Decimal()); err != nil {
		return LineAmounts{}, err
	}

	net, err := l.UnitPrice.MultiplyQuantity(l.Quantity)
	if err != nil {
		return LineAmounts{}, err
	}
	tax := net.ApplyRate(l.VATRate.Decimal())
	gross, err := net.Add(tax)
	if err != nil {
		return LineAmounts{}, err
	}

	return LineAmounts{Net: net, Tax: tax, Gross: gross}, nil
}

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicerie/backend/internal/domain/billing"
	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

func newStoredOrder(t *testing.T) *billing.Order {
	t.Helper()

	line, err := billing.NewLineItem(uuid.New(), uuid.New(), nil, "Roquefort AOP, half wheel", 2, valueobject.NewMoneyEUR(3200), valueobject.MustVATRate("5.5"), 0)
	require.NoError(t, err)

	sourceID := uuid.New()
	order, err := billing.NewOrderFromLines("ORD-FROMAGER-20250315-0001", uuid.New(), "Fromagerie Laurent",
		billing.OrderSourceQuote, &sourceID, []billing.LineItem{*line})
	require.NoError(t, err)
	return order
}

func newStoredInvoice(t *testing.T, order *billing.Order, number string) *billing.Invoice {
	t.Helper()

	issueDate := time.Now()
	invoice, err := billing.NewInvoice(number, order, issueDate, issueDate.AddDate(0, 0, 30), true)
	require.NoError(t, err)
	return invoice
}

func TestGormInvoiceRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	orders := NewGormOrderRepository(db)
	invoices := NewGormInvoiceRepository(db)
	ctx := context.Background()

	order := newStoredOrder(t)
	require.NoError(t, orders.Save(ctx, order))

	invoice := newStoredInvoice(t, order, "INV-FROMAGER-20250315-0001")
	require.NoError(t, invoices.Save(ctx, invoice))

	found, err := invoices.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusIssued, found.Status)
	assert.Equal(t, order.ID, found.OrderID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, int64(3200), found.Items[0].UnitPrice.Amount())
	assert.True(t, found.PaidAmount.IsZero())

	byNumber, err := invoices.FindByNumber(ctx, "INV-FROMAGER-20250315-0001")
	require.NoError(t, err)
	assert.Equal(t, invoice.ID, byNumber.ID)
}

func TestGormInvoiceRepository_ExistsNonVoidedByOrder(t *testing.T) {
	db := setupTestDB(t)
	orders := NewGormOrderRepository(db)
	invoices := NewGormInvoiceRepository(db)
	ctx := context.Background()

	order := newStoredOrder(t)
	require.NoError(t, orders.Save(ctx, order))

	exists, err := invoices.ExistsNonVoidedByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	invoice := newStoredInvoice(t, order, "INV-FROMAGER-20250315-0001")
	require.NoError(t, invoices.Save(ctx, invoice))

	exists, err = invoices.ExistsNonVoidedByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	// Voiding the invoice frees the order for re-invoicing
	require.NoError(t, invoice.MarkSent())
	require.NoError(t, invoice.Void("Wrong payment term"))
	require.NoError(t, invoices.SaveWithLock(ctx, invoice))

	exists, err = invoices.ExistsNonVoidedByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormInvoiceRepository_FindByOrder(t *testing.T) {
	db := setupTestDB(t)
	orders := NewGormOrderRepository(db)
	invoices := NewGormInvoiceRepository(db)
	ctx := context.Background()

	order := newStoredOrder(t)
	require.NoError(t, orders.Save(ctx, order))

	voided := newStoredInvoice(t, order, "INV-FROMAGER-20250315-0001")
	require.NoError(t, voided.MarkSent())
	require.NoError(t, voided.Void("Issued too early"))
	require.NoError(t, invoices.Save(ctx, voided))

	replacement := newStoredInvoice(t, order, "INV-FROMAGER-20250316-0001")
	require.NoError(t, invoices.Save(ctx, replacement))

	all, err := invoices.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGormInvoiceRepository_FindOverdueCandidates(t *testing.T) {
	db := setupTestDB(t)
	orders := NewGormOrderRepository(db)
	invoices := NewGormInvoiceRepository(db)
	ctx := context.Background()

	issueDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)

	pastDueOrder := newStoredOrder(t)
	require.NoError(t, orders.Save(ctx, pastDueOrder))
	pastDue, err := billing.NewInvoice("INV-FROMAGER-20250301-0001", pastDueOrder, issueDate, issueDate.AddDate(0, 0, 30), true)
	require.NoError(t, err)
	require.NoError(t, pastDue.MarkSent())
	require.NoError(t, invoices.Save(ctx, pastDue))

	// Past due but still ISSUED, never sent; not a candidate
	unsentOrder := newStoredOrder(t)
	require.NoError(t, orders.Save(ctx, unsentOrder))
	unsent, err := billing.NewInvoice("INV-FROMAGER-20250301-0002", unsentOrder, issueDate, issueDate.AddDate(0, 0, 30), true)
	require.NoError(t, err)
	require.NoError(t, invoices.Save(ctx, unsent))

	// Sent but due date still ahead of the sweep
	currentOrder := newStoredOrder(t)
	require.NoError(t, orders.Save(ctx, currentOrder))
	current, err := billing.NewInvoice("INV-FROMAGER-20250401-0001", currentOrder, asOf, asOf.AddDate(0, 0, 30), true)
	require.NoError(t, err)
	require.NoError(t, current.MarkSent())
	require.NoError(t, invoices.Save(ctx, current))

	due, err := invoices.FindOverdueCandidates(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, pastDue.ID, due[0].ID)
}

func TestGormInvoiceRepository_SecondLiveInvoiceRejected(t *testing.T) {
	db := setupTestDB(t)
	orders := NewGormOrderRepository(db)
	invoices := NewGormInvoiceRepository(db)
	ctx := context.Background()

	order := newStoredOrder(t)
	require.NoError(t, orders.Save(ctx, order))

	first := newStoredInvoice(t, order, "INV-FROMAGER-20250315-0001")
	require.NoError(t, invoices.Save(ctx, first))

	// The unique index holds even when the caller skipped the
	// existence check, so racing writers cannot both land.
	duplicate := newStoredInvoice(t, order, "INV-FROMAGER-20250315-0002")
	err := invoices.Save(ctx, duplicate)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvoiceAlreadyExists))

	all, err := invoices.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// A voided invoice leaves the index; the replacement lands
	require.NoError(t, first.MarkSent())
	require.NoError(t, first.Void("Montant erroné"))
	require.NoError(t, invoices.SaveWithLock(ctx, first))

	replacement := newStoredInvoice(t, order, "INV-FROMAGER-20250316-0001")
	require.NoError(t, invoices.Save(ctx, replacement))
}

func TestGormInvoiceRepository_SaveWithLock_PaymentRace(t *testing.T) {
	db := setupTestDB(t)
	orders := NewGormOrderRepository(db)
	invoices := NewGormInvoiceRepository(db)
	ctx := context.Background()

	order := newStoredOrder(t)
	require.NoError(t, orders.Save(ctx, order))

	invoice := newStoredInvoice(t, order, "INV-FROMAGER-20250315-0001")
	require.NoError(t, invoice.MarkSent())
	require.NoError(t, invoices.Save(ctx, invoice))

	stale, err := invoices.FindByID(ctx, invoice.ID)
	require.NoError(t, err)

	require.NoError(t, invoice.ApplyPayment(valueobject.NewMoneyEUR(3000)))
	require.NoError(t, invoices.SaveWithLock(ctx, invoice))

	require.NoError(t, stale.ApplyPayment(valueobject.NewMoneyEUR(3000)))
	err = invoices.SaveWithLock(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrentModification)

	found, err := invoices.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), found.PaidAmount.Amount())
	assert.Equal(t, billing.InvoiceStatusPartiallyPaid, found.Status)
}

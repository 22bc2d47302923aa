package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	lines := []LineItem{
		mustLine(t, 2, 1400, "20"),  // net 28.00, tax 5.60
		mustLine(t, 4, 2500, "5.5"), // net 100.00, tax 5.50
	}
	src := uuid.New()
	order, err := NewOrderFromLines("ORD-FROMAGER-20250315-0001", uuid.New(), "Fromagerie Laurent", OrderSourceQuote, &src, lines)
	require.NoError(t, err)
	return order
}

func newSentInvoice(t *testing.T) *Invoice {
	t.Helper()
	issueDate := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	inv, err := NewInvoice("INV-FROMAGER-20250315-0001", newTestOrder(t), issueDate, issueDate.AddDate(0, 0, 30), true)
	require.NoError(t, err)
	require.NoError(t, inv.MarkSent())
	return inv
}

func TestNewOrderFromLines(t *testing.T) {
	order := newTestOrder(t)
	require.Len(t, order.Items, 2)
	for _, item := range order.Items {
		assert.Equal(t, order.ID, item.DocumentID)
	}

	breakdown, err := order.TaxBreakdown()
	require.NoError(t, err)
	assert.Equal(t, int64(13910), breakdown.GrandTotal.Amount())

	_, err = NewOrderFromLines("ORD-X-20250315-0001", uuid.New(), "X", OrderSourceQuote, nil, nil)
	assert.Error(t, err)

	_, err = NewOrderFromLines("ORD-X-20250315-0001", uuid.New(), "X", OrderSource("FAX"), nil, []LineItem{mustLine(t, 1, 100, "20")})
	assert.Error(t, err)
}

func TestInvoiceStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    InvoiceStatus
		to      InvoiceStatus
		allowed bool
	}{
		{InvoiceStatusDraft, InvoiceStatusIssued, true},
		{InvoiceStatusDraft, InvoiceStatusSent, false},
		{InvoiceStatusIssued, InvoiceStatusSent, true},
		{InvoiceStatusSent, InvoiceStatusPaid, true},
		{InvoiceStatusSent, InvoiceStatusPartiallyPaid, true},
		{InvoiceStatusSent, InvoiceStatusOverdue, true},
		{InvoiceStatusSent, InvoiceStatusVoided, true},
		{InvoiceStatusPartiallyPaid, InvoiceStatusPaid, true},
		{InvoiceStatusPartiallyPaid, InvoiceStatusOverdue, true},
		{InvoiceStatusPartiallyPaid, InvoiceStatusVoided, false},
		{InvoiceStatusOverdue, InvoiceStatusPaid, true},
		{InvoiceStatusOverdue, InvoiceStatusPartiallyPaid, true},
		{InvoiceStatusPaid, InvoiceStatusOverdue, false},
		{InvoiceStatusCancelled, InvoiceStatusIssued, false},
		{InvoiceStatusVoided, InvoiceStatusIssued, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewInvoice(t *testing.T) {
	order := newTestOrder(t)
	issueDate := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	dueDate := issueDate.AddDate(0, 0, 30)

	inv, err := NewInvoice("INV-FROMAGER-20250315-0001", order, issueDate, dueDate, true)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusIssued, inv.Status)
	assert.Equal(t, order.ID, inv.OrderID)
	require.Len(t, inv.Items, 2)
	for _, item := range inv.Items {
		assert.Equal(t, inv.ID, item.DocumentID)
	}
	assert.True(t, inv.PaidAmount.IsZero())

	draft, err := NewInvoice("INV-FROMAGER-20250315-0002", order, issueDate, dueDate, false)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusDraft, draft.Status)

	_, err = NewInvoice("INV-X-20250315-0003", order, issueDate, issueDate.AddDate(0, 0, -1), true)
	assert.Error(t, err)
}

func TestInvoice_IssueAndSend(t *testing.T) {
	order := newTestOrder(t)
	issueDate := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	inv, err := NewInvoice("INV-FROMAGER-20250315-0001", order, issueDate, issueDate.AddDate(0, 0, 30), false)
	require.NoError(t, err)

	// Cannot send a draft
	assert.Error(t, inv.MarkSent())

	require.NoError(t, inv.Issue())
	require.NoError(t, inv.MarkSent())
	assert.Equal(t, InvoiceStatusSent, inv.Status)
	assert.NotNil(t, inv.SentAt)
}

func TestInvoice_ApplyPayment(t *testing.T) {
	inv := newSentInvoice(t)
	// Grand total 139.10

	require.NoError(t, inv.ApplyPayment(valueobject.NewMoneyEUR(5000)))
	assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
	assert.Equal(t, int64(5000), inv.PaidAmount.Amount())

	require.NoError(t, inv.ApplyPayment(valueobject.NewMoneyEUR(8910)))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.Equal(t, int64(13910), inv.PaidAmount.Amount())
	assert.NotNil(t, inv.PaidAt)

	// Terminal now
	assert.Error(t, inv.ApplyPayment(valueobject.NewMoneyEUR(1)))
}

func TestInvoice_ApplyPaymentValidation(t *testing.T) {
	inv := newSentInvoice(t)

	err := inv.ApplyPayment(valueobject.ZeroEUR())
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))

	err = inv.ApplyPayment(valueobject.NewMoneyEUR(20000))
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	assert.True(t, inv.PaidAmount.IsZero())
}

func TestInvoice_MarkOverdue(t *testing.T) {
	inv := newSentInvoice(t)

	// Not yet past due
	assert.Error(t, inv.MarkOverdue(inv.DueDate))

	require.NoError(t, inv.MarkOverdue(inv.DueDate.AddDate(0, 0, 1)))
	assert.Equal(t, InvoiceStatusOverdue, inv.Status)

	// A late payment still settles the invoice
	require.NoError(t, inv.ApplyPayment(valueobject.NewMoneyEUR(13910)))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
}

func TestInvoice_CancelAndVoid(t *testing.T) {
	cancelled := newSentInvoice(t)
	assert.Error(t, cancelled.Cancel(""))
	require.NoError(t, cancelled.Cancel("Commande annulée"))
	assert.Equal(t, InvoiceStatusCancelled, cancelled.Status)

	voided := newSentInvoice(t)
	require.NoError(t, voided.Void("Montant erroné"))
	assert.Equal(t, InvoiceStatusVoided, voided.Status)
	assert.True(t, voided.Status.IsVoided())
	assert.NotNil(t, voided.VoidedAt)

	// A partially paid invoice cannot be voided
	partial := newSentInvoice(t)
	require.NoError(t, partial.ApplyPayment(valueobject.NewMoneyEUR(100)))
	assert.Error(t, partial.Void("trop tard"))
}

package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/epicerie/backend/internal/domain/billing"
	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*billing.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[uuid.UUID]*billing.Invoice)}
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) FindByNumber(_ context.Context, _ string) (*billing.Invoice, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeInvoiceRepo) FindAll(_ context.Context, _ shared.Filter) ([]billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]billing.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, nil
}

func (r *fakeInvoiceRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []billing.Invoice
	for _, inv := range r.invoices {
		if inv.OrderID == orderID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) FindOverdueCandidates(_ context.Context, asOf time.Time) ([]billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []billing.Invoice
	for _, inv := range r.invoices {
		if (inv.Status == billing.InvoiceStatusSent || inv.Status == billing.InvoiceStatusPartiallyPaid) &&
			asOf.After(inv.DueDate) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) ExistsNonVoidedByOrder(_ context.Context, orderID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.OrderID == orderID && !inv.Status.IsVoided() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvoiceRepo) Save(_ context.Context, inv *billing.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) SaveWithLock(_ context.Context, inv *billing.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != inv.Version {
		return shared.ErrConcurrentModification
	}
	cp := *inv
	cp.IncrementVersion()
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.invoices)), nil
}

func newSentInvoice(t *testing.T, number string, issueDate, dueDate time.Time) *billing.Invoice {
	t.Helper()

	line, err := billing.NewLineItem(uuid.New(), uuid.New(), nil, "Brie de Meaux, whole wheel", 3, valueobject.NewMoneyEUR(2800), valueobject.MustVATRate("5.5"), 0)
	require.NoError(t, err)
	sourceID := uuid.New()
	order, err := billing.NewOrderFromLines("ORD-FROMAGER-20250301-0001", uuid.New(), "Fromagerie Laurent",
		billing.OrderSourceQuote, &sourceID, []billing.LineItem{*line})
	require.NoError(t, err)

	invoice, err := billing.NewInvoice(number, order, issueDate, dueDate, true)
	require.NoError(t, err)
	require.NoError(t, invoice.MarkSent())
	return invoice
}

func TestInvoiceService_MarkOverdueDue(t *testing.T) {
	repo := newFakeInvoiceRepo()
	service := NewInvoiceService(repo, nil, nil, zap.NewNop()).WithClock(func() time.Time {
		return time.Date(2025, 4, 5, 8, 0, 0, 0, time.UTC)
	})
	ctx := context.Background()

	pastDue := newSentInvoice(t, "INV-FROMAGER-20250301-0001",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, pastDue))

	current := newSentInvoice(t, "INV-FROMAGER-20250401-0001",
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, current))

	flagged, err := service.MarkOverdueDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	stored, err := repo.FindByID(ctx, pastDue.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusOverdue, stored.Status)

	untouched, err := repo.FindByID(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusSent, untouched.Status)

	// A second sweep finds nothing left to flag
	flagged, err = service.MarkOverdueDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)
}

func TestInvoiceService_OverdueInvoiceStillAcceptsPayment(t *testing.T) {
	repo := newFakeInvoiceRepo()
	service := NewInvoiceService(repo, nil, nil, zap.NewNop()).WithClock(func() time.Time {
		return time.Date(2025, 4, 5, 8, 0, 0, 0, time.UTC)
	})
	ctx := context.Background()

	invoice := newSentInvoice(t, "INV-FROMAGER-20250301-0001",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, invoice))

	_, err := service.MarkOverdueDue(ctx)
	require.NoError(t, err)

	// 3 x 28.00 @ 5.5%: gross 88.62
	resp, err := service.ApplyPayment(ctx, invoice.ID, ApplyPaymentRequest{Amount: 8862})
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid.String(), resp.Status)
}

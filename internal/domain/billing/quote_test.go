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

func newTestQuote(t *testing.T) *Quote {
	t.Helper()
	q, err := NewQuote(uuid.New(), "Fromagerie Laurent", "Livraison avant vendredi svp")
	require.NoError(t, err)
	return q
}

func newPricedQuote(t *testing.T, validUntil time.Time) *Quote {
	t.Helper()
	q := newTestQuote(t)
	_, err := q.AddLine(uuid.New(), nil, "Comté 18 mois", 2, valueobject.NewMoneyEUR(1400), valueobject.MustVATRate("20"))
	require.NoError(t, err)
	require.NoError(t, q.MarkPriced("QUO-FROMAGER-20250315-0001", validUntil))
	return q
}

func TestQuoteStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    QuoteStatus
		to      QuoteStatus
		allowed bool
	}{
		{QuoteStatusPendingReview, QuoteStatusPriced, true},
		{QuoteStatusPendingReview, QuoteStatusRejected, true},
		{QuoteStatusPendingReview, QuoteStatusAccepted, false},
		{QuoteStatusPendingReview, QuoteStatusExpired, false},
		{QuoteStatusPriced, QuoteStatusAccepted, true},
		{QuoteStatusPriced, QuoteStatusRejected, true},
		{QuoteStatusPriced, QuoteStatusExpired, true},
		{QuoteStatusPriced, QuoteStatusConverted, false},
		{QuoteStatusAccepted, QuoteStatusConverted, true},
		{QuoteStatusAccepted, QuoteStatusRejected, false},
		{QuoteStatusConverted, QuoteStatusPriced, false},
		{QuoteStatusRejected, QuoteStatusPriced, false},
		{QuoteStatusExpired, QuoteStatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewQuote(t *testing.T) {
	q := newTestQuote(t)
	assert.Equal(t, QuoteStatusPendingReview, q.Status)
	assert.Empty(t, q.QuoteNumber)
	assert.Empty(t, q.Items)

	_, err := NewQuote(uuid.Nil, "Fromagerie Laurent", "")
	assert.Error(t, err)

	_, err = NewQuote(uuid.New(), "", "")
	assert.Error(t, err)
}

func TestQuote_AddAndRemoveLines(t *testing.T) {
	q := newTestQuote(t)

	first, err := q.AddLine(uuid.New(), nil, "Comté 18 mois", 2, valueobject.NewMoneyEUR(1400), valueobject.MustVATRate("20"))
	require.NoError(t, err)
	second, err := q.AddLine(uuid.New(), nil, "Huile d'olive 1L", 1, valueobject.NewMoneyEUR(1890), valueobject.MustVATRate("5.5"))
	require.NoError(t, err)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)

	require.NoError(t, q.RemoveLine(first.ID))
	require.Len(t, q.Items, 1)
	assert.Equal(t, 0, q.Items[0].Position)

	err = q.RemoveLine(uuid.New())
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestQuote_AddLineOnlyWhilePending(t *testing.T) {
	q := newPricedQuote(t, time.Now().AddDate(0, 0, 14))

	_, err := q.AddLine(uuid.New(), nil, "Moutarde", 1, valueobject.NewMoneyEUR(450), valueobject.MustVATRate("5.5"))
	assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
	assert.Error(t, q.RemoveLine(q.Items[0].ID))
}

func TestQuote_ProposeLinePrice(t *testing.T) {
	q := newTestQuote(t)
	line, err := q.AddLine(uuid.New(), nil, "Comté 18 mois", 2, valueobject.NewMoneyEUR(1400), valueobject.MustVATRate("20"))
	require.NoError(t, err)

	// Re-pricing is allowed in PENDING_REVIEW and again in PRICED
	require.NoError(t, q.ProposeLinePrice(line.ID, valueobject.NewMoneyEUR(1300)))
	assert.Equal(t, int64(1300), q.Items[0].UnitPrice.Amount())

	require.NoError(t, q.MarkPriced("QUO-FROMAGER-20250315-0001", time.Now().AddDate(0, 0, 14)))
	require.NoError(t, q.ProposeLinePrice(line.ID, valueobject.NewMoneyEUR(1250)))
	assert.Equal(t, int64(1250), q.Items[0].UnitPrice.Amount())
	assert.Equal(t, QuoteStatusPriced, q.Status)

	// Once accepted the prices are frozen
	require.NoError(t, q.Accept(time.Now()))
	err = q.ProposeLinePrice(line.ID, valueobject.NewMoneyEUR(1200))
	assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
}

func TestQuote_MarkPriced(t *testing.T) {
	q := newTestQuote(t)

	// No lines yet
	err := q.MarkPriced("QUO-FROMAGER-20250315-0001", time.Now().AddDate(0, 0, 14))
	assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))

	_, err = q.AddLine(uuid.New(), nil, "Comté 18 mois", 2, valueobject.NewMoneyEUR(1400), valueobject.MustVATRate("20"))
	require.NoError(t, err)

	assert.Error(t, q.MarkPriced("", time.Now().AddDate(0, 0, 14)))

	validUntil := time.Now().AddDate(0, 0, 14)
	require.NoError(t, q.MarkPriced("QUO-FROMAGER-20250315-0001", validUntil))
	assert.Equal(t, QuoteStatusPriced, q.Status)
	assert.Equal(t, "QUO-FROMAGER-20250315-0001", q.QuoteNumber)
	require.NotNil(t, q.ValidUntil)
	assert.NotNil(t, q.PricedAt)
}

func TestQuote_Accept(t *testing.T) {
	q := newPricedQuote(t, time.Now().AddDate(0, 0, 14))
	require.NoError(t, q.Accept(time.Now()))
	assert.Equal(t, QuoteStatusAccepted, q.Status)
	assert.True(t, q.IsConvertible())
}

func TestQuote_AcceptAfterValidityFails(t *testing.T) {
	validUntil := time.Now().AddDate(0, 0, -1)
	q := newPricedQuote(t, validUntil)

	err := q.Accept(time.Now())
	assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
	assert.Equal(t, QuoteStatusPriced, q.Status)
}

func TestQuote_Reject(t *testing.T) {
	q := newTestQuote(t)

	assert.Error(t, q.Reject(""))
	require.NoError(t, q.Reject("Produits indisponibles"))
	assert.Equal(t, QuoteStatusRejected, q.Status)
	assert.Equal(t, "Produits indisponibles", q.RejectReason)

	// Terminal
	assert.Error(t, q.Reject("again"))
}

func TestQuote_Expire(t *testing.T) {
	q := newPricedQuote(t, time.Now().AddDate(0, 0, -1))
	require.NoError(t, q.Expire(time.Now()))
	assert.Equal(t, QuoteStatusExpired, q.Status)

	// Still within validity
	fresh := newPricedQuote(t, time.Now().AddDate(0, 0, 14))
	err := fresh.Expire(time.Now())
	assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
}

func TestQuote_MarkConverted(t *testing.T) {
	q := newPricedQuote(t, time.Now().AddDate(0, 0, 14))
	require.NoError(t, q.Accept(time.Now()))

	orderID := uuid.New()
	require.NoError(t, q.MarkConverted(orderID))
	assert.Equal(t, QuoteStatusConverted, q.Status)
	require.NotNil(t, q.ConvertedOrderID)
	assert.Equal(t, orderID, *q.ConvertedOrderID)

	// Second conversion is refused with a dedicated code
	err := q.MarkConverted(uuid.New())
	assert.True(t, shared.IsCode(err, shared.CodeAlreadyConverted))
	assert.Equal(t, orderID, *q.ConvertedOrderID)
}

func TestQuote_ConvertBeforeAcceptanceFails(t *testing.T) {
	q := newPricedQuote(t, time.Now().AddDate(0, 0, 14))
	err := q.MarkConverted(uuid.New())
	assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
}

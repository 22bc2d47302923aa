package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

// QuoteStatus represents the status of a quote request
type QuoteStatus string

const (
	QuoteStatusPendingReview QuoteStatus = "PENDING_REVIEW"
	QuoteStatusPriced        QuoteStatus = "PRICED"
	QuoteStatusAccepted      QuoteStatus = "ACCEPTED_BY_CLIENT"
	QuoteStatusConverted     QuoteStatus = "CONVERTED"
	QuoteStatusRejected      QuoteStatus = "REJECTED"
	QuoteStatusExpired       QuoteStatus = "EXPIRED"
)

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusPendingReview, QuoteStatusPriced, QuoteStatusAccepted,
		QuoteStatusConverted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of QuoteStatus
func (s QuoteStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status is terminal
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusConverted || s == QuoteStatusRejected || s == QuoteStatusExpired
}

// CanTransitionTo checks if the status can transition to the target status
func (s QuoteStatus) CanTransitionTo(target QuoteStatus) bool {
	switch s {
	case QuoteStatusPendingReview:
		return target == QuoteStatusPriced || target == QuoteStatusRejected
	case QuoteStatusPriced:
		return target == QuoteStatusAccepted || target == QuoteStatusRejected || target == QuoteStatusExpired
	case QuoteStatusAccepted:
		return target == QuoteStatusConverted
	case QuoteStatusConverted, QuoteStatusRejected, QuoteStatusExpired:
		return false // Terminal states
	}
	return false
}

// CanReprice returns true while line prices may still be changed.
// Re-pricing does not itself change the quote's state.
func (s QuoteStatus) CanReprice() bool {
	return s == QuoteStatusPendingReview || s == QuoteStatusPriced
}

// Quote represents a B2B quote request aggregate root. It is created
// when a customer submits a cart for pricing, priced by an admin, and
// either accepted and converted into an order, or rejected or expired.
type Quote struct {
	shared.BaseAggregateRoot
	QuoteNumber      string // empty until the quote is priced (issued)
	CustomerID       uuid.UUID
	CustomerName     string
	Status           QuoteStatus
	Items            []LineItem `gorm:"foreignKey:DocumentID"`
	ValidUntil       *time.Time
	CustomerNotes    string
	AdminNotes       string
	RejectReason     string
	ConvertedOrderID *uuid.UUID
	PricedAt         *time.Time
	AcceptedAt       *time.Time
	RejectedAt       *time.Time
	ExpiredAt        *time.Time
	ConvertedAt      *time.Time
}

// NewQuote creates a new quote request in PENDING_REVIEW
func NewQuote(customerID uuid.UUID, customerName, customerNotes string) (*Quote, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer name cannot be empty")
	}

	return &Quote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		CustomerName:      customerName,
		Status:            QuoteStatusPendingReview,
		Items:             make([]LineItem, 0),
		CustomerNotes:     customerNotes,
	}, nil
}

// AddLine adds a line to the quote. Only allowed in PENDING_REVIEW;
// once priced, a line change means replacing the line.
func (q *Quote) AddLine(productID uuid.UUID, variantID *uuid.UUID, description string, quantity int64, unitPrice valueobject.Money, vatRate valueobject.VATRate) (*LineItem, error) {
	if q.Status != QuoteStatusPendingReview {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot add lines to quote %s in %s status", q.ID, q.Status)
	}

	item, err := NewLineItem(q.ID, productID, variantID, description, quantity, unitPrice, vatRate, len(q.Items))
	if err != nil {
		return nil, err
	}

	q.Items = append(q.Items, *item)
	q.UpdatedAt = time.Now()
	return item, nil
}

// RemoveLine removes a line from the quote. Only allowed in PENDING_REVIEW.
func (q *Quote) RemoveLine(lineID uuid.UUID) error {
	if q.Status != QuoteStatusPendingReview {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot remove lines from quote %s in %s status", q.ID, q.Status)
	}

	for idx, item := range q.Items {
		if item.ID == lineID {
			q.Items = append(q.Items[:idx], q.Items[idx+1:]...)
			for i := range q.Items {
				q.Items[i].Position = i
			}
			q.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainErrorf(shared.CodeNotFound, "Quote line %s not found", lineID)
}

// ProposeLinePrice sets the admin-proposed unit price for a line. Only
// permitted while the quote is in PENDING_REVIEW or PRICED; it does not
// itself change the quote's state. Once the quote leaves PENDING_REVIEW
// the most recently proposed admin price is authoritative.
func (q *Quote) ProposeLinePrice(lineID uuid.UUID, unitPrice valueobject.Money) error {
	if !q.Status.CanReprice() {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot re-price quote %s in %s status", q.ID, q.Status)
	}

	for idx := range q.Items {
		if q.Items[idx].ID == lineID {
			if err := q.Items[idx].SetUnitPrice(unitPrice); err != nil {
				return err
			}
			q.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainErrorf(shared.CodeNotFound, "Quote line %s not found", lineID)
}

// MarkPriced transitions PENDING_REVIEW -> PRICED, issuing the quote
// with its number and validity window.
func (q *Quote) MarkPriced(quoteNumber string, validUntil time.Time) error {
	if !q.Status.CanTransitionTo(QuoteStatusPriced) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot price quote %s in %s status", q.ID, q.Status)
	}
	if quoteNumber == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Quote number cannot be empty")
	}
	if len(q.Items) == 0 {
		return shared.NewDomainErrorf(shared.CodeInvalidInput, "Cannot price quote %s without lines", q.ID)
	}

	now := time.Now()
	q.QuoteNumber = quoteNumber
	q.ValidUntil = &validUntil
	q.Status = QuoteStatusPriced
	q.PricedAt = &now
	q.UpdatedAt = now
	return nil
}

// Accept transitions PRICED -> ACCEPTED_BY_CLIENT. A quote whose
// validity window has passed cannot be accepted.
func (q *Quote) Accept(now time.Time) error {
	if !q.Status.CanTransitionTo(QuoteStatusAccepted) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot accept quote %s in %s status", q.ID, q.Status)
	}
	if q.ValidUntil != nil && now.After(*q.ValidUntil) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Quote %s expired on %s", q.ID, q.ValidUntil.Format("2006-01-02"))
	}

	q.Status = QuoteStatusAccepted
	q.AcceptedAt = &now
	q.UpdatedAt = now
	return nil
}

// Reject transitions PENDING_REVIEW or PRICED -> REJECTED
func (q *Quote) Reject(reason string) error {
	if !q.Status.CanTransitionTo(QuoteStatusRejected) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot reject quote %s in %s status", q.ID, q.Status)
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Reject reason is required")
	}

	now := time.Now()
	q.Status = QuoteStatusRejected
	q.RejectReason = reason
	q.RejectedAt = &now
	q.UpdatedAt = now
	return nil
}

// Expire transitions PRICED -> EXPIRED once the validity window has passed
func (q *Quote) Expire(now time.Time) error {
	if !q.Status.CanTransitionTo(QuoteStatusExpired) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot expire quote %s in %s status", q.ID, q.Status)
	}
	if q.ValidUntil == nil || !now.After(*q.ValidUntil) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Quote %s is still within its validity window", q.ID)
	}

	q.Status = QuoteStatusExpired
	q.ExpiredAt = &now
	q.UpdatedAt = now
	return nil
}

// MarkConverted records the one-way conversion into an order. A second
// conversion attempt fails with ALREADY_CONVERTED instead of creating a
// duplicate order.
func (q *Quote) MarkConverted(orderID uuid.UUID) error {
	if q.Status == QuoteStatusConverted {
		return shared.NewDomainErrorf(shared.CodeAlreadyConverted,
			"Quote %s has already been converted to order %s", q.ID, convertedOrderRef(q.ConvertedOrderID))
	}
	if !q.Status.CanTransitionTo(QuoteStatusConverted) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot convert quote %s in %s status", q.ID, q.Status)
	}

	now := time.Now()
	q.Status = QuoteStatusConverted
	q.ConvertedOrderID = &orderID
	q.ConvertedAt = &now
	q.UpdatedAt = now
	return nil
}

// SetAdminNotes sets the admin notes
func (q *Quote) SetAdminNotes(notes string) {
	q.AdminNotes = notes
	q.UpdatedAt = time.Now()
}

// TaxBreakdown recomputes the quote totals from its lines
func (q *Quote) TaxBreakdown() (TaxBreakdown, error) {
	return AggregateTax(q.Items)
}

// IsConvertible returns true if the quote may be converted to an order
func (q *Quote) IsConvertible() bool {
	return q.Status == QuoteStatusAccepted
}

func convertedOrderRef(id *uuid.UUID) string {
	if id == nil {
		return "?"
	}
	return id.String()
}

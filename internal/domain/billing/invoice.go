package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusIssued        InvoiceStatus = "ISSUED"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
	InvoiceStatusVoided        InvoiceStatus = "VOIDED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusSent, InvoiceStatusPaid,
		InvoiceStatusPartiallyPaid, InvoiceStatusOverdue, InvoiceStatusCancelled, InvoiceStatusVoided:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status is terminal
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled || s == InvoiceStatusVoided
}

// IsVoided returns true for voided invoices; a voided invoice no longer
// counts against the one-invoice-per-order invariant.
func (s InvoiceStatus) IsVoided() bool {
	return s == InvoiceStatusVoided
}

// CanTransitionTo checks if the status can transition to the target status.
// Late payments keep OVERDUE open toward the payment states.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusIssued
	case InvoiceStatusIssued:
		return target == InvoiceStatusSent
	case InvoiceStatusSent:
		return target == InvoiceStatusPaid || target == InvoiceStatusPartiallyPaid ||
			target == InvoiceStatusOverdue || target == InvoiceStatusCancelled || target == InvoiceStatusVoided
	case InvoiceStatusPartiallyPaid:
		return target == InvoiceStatusPaid || target == InvoiceStatusOverdue
	case InvoiceStatusOverdue:
		return target == InvoiceStatusPaid || target == InvoiceStatusPartiallyPaid ||
			target == InvoiceStatusCancelled || target == InvoiceStatusVoided
	case InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusVoided:
		return false // Terminal states
	}
	return false
}

// CanApplyPayment returns true if payments can be applied in this status
func (s InvoiceStatus) CanApplyPayment() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusPartiallyPaid || s == InvoiceStatusOverdue
}

// Invoice is the commercial document generated from exactly one order.
// It carries frozen copies of the order's lines, the issue and due
// dates, and tracks payment through its status and paid amount.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string
	// The partial unique index is the authority for the one-non-voided-
	// invoice-per-order invariant; a read-then-write check alone cannot
	// serialize concurrent generation at read-committed isolation.
	OrderID uuid.UUID `gorm:"index:ux_invoices_order_nonvoided,unique,where:status <> 'VOIDED'"`
	CustomerID    uuid.UUID
	CustomerName  string
	Status        InvoiceStatus
	Items         []LineItem `gorm:"foreignKey:DocumentID"`
	IssueDate     time.Time
	DueDate       time.Time
	PaidAmount    valueobject.Money `gorm:"type:bigint"`
	SentAt        *time.Time
	PaidAt        *time.Time
	CancelledAt   *time.Time
	VoidedAt      *time.Time
	CancelReason  string
	VoidReason    string
}

// NewInvoice creates an invoice from an order's frozen lines, in DRAFT
// or ISSUED status as the caller specifies.
func NewInvoice(invoiceNumber string, order *Order, issueDate, dueDate time.Time, issued bool) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invoice number cannot be empty")
	}
	if order == nil || order.ID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order is required")
	}
	if len(order.Items) == 0 {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Cannot invoice order %s without lines", order.ID)
	}
	if dueDate.Before(issueDate) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Due date cannot precede issue date")
	}

	status := InvoiceStatusDraft
	if issued {
		status = InvoiceStatusIssued
	}

	currency := order.Items[0].UnitPrice.Currency()
	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		OrderID:           order.ID,
		CustomerID:        order.CustomerID,
		CustomerName:      order.CustomerName,
		Status:            status,
		Items:             make([]LineItem, 0, len(order.Items)),
		IssueDate:         issueDate,
		DueDate:           dueDate,
		PaidAmount:        valueobject.Zero(currency),
	}
	for i := range order.Items {
		inv.Items = append(inv.Items, order.Items[i].CopyForDocument(inv.ID))
	}
	return inv, nil
}

// Issue transitions DRAFT -> ISSUED
func (inv *Invoice) Issue() error {
	if !inv.Status.CanTransitionTo(InvoiceStatusIssued) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot issue invoice %s in %s status", inv.ID, inv.Status)
	}

	inv.Status = InvoiceStatusIssued
	inv.UpdatedAt = time.Now()
	return nil
}

// MarkSent transitions ISSUED -> SENT
func (inv *Invoice) MarkSent() error {
	if !inv.Status.CanTransitionTo(InvoiceStatusSent) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot mark invoice %s sent in %s status", inv.ID, inv.Status)
	}

	now := time.Now()
	inv.Status = InvoiceStatusSent
	inv.SentAt = &now
	inv.UpdatedAt = now
	return nil
}

// ApplyPayment records a payment against the invoice and moves it to
// PARTIALLY_PAID or PAID depending on the remaining balance. The amount
// must be positive and must not exceed the outstanding balance.
func (inv *Invoice) ApplyPayment(amount valueobject.Money) error {
	if !inv.Status.CanApplyPayment() {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot apply payment to invoice %s in %s status", inv.ID, inv.Status)
	}
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Payment amount must be positive")
	}

	breakdown, err := inv.TaxBreakdown()
	if err != nil {
		return err
	}
	paid, err := inv.PaidAmount.Add(amount)
	if err != nil {
		return err
	}
	over, err := paid.GreaterThan(breakdown.GrandTotal)
	if err != nil {
		return err
	}
	if over {
		return shared.NewDomainErrorf(shared.CodeInvalidInput,
			"Payment would exceed invoice total %s", breakdown.GrandTotal)
	}

	now := time.Now()
	inv.PaidAmount = paid
	if paid.Equals(breakdown.GrandTotal) {
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &now
	} else {
		inv.Status = InvoiceStatusPartiallyPaid
	}
	inv.UpdatedAt = now
	return nil
}

// MarkOverdue transitions SENT or PARTIALLY_PAID -> OVERDUE once the
// due date has passed.
func (inv *Invoice) MarkOverdue(now time.Time) error {
	if !inv.Status.CanTransitionTo(InvoiceStatusOverdue) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot mark invoice %s overdue in %s status", inv.ID, inv.Status)
	}
	if !now.After(inv.DueDate) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Invoice %s is not yet past its due date", inv.ID)
	}

	inv.Status = InvoiceStatusOverdue
	inv.UpdatedAt = now
	return nil
}

// Cancel transitions the invoice to CANCELLED
func (inv *Invoice) Cancel(reason string) error {
	if !inv.Status.CanTransitionTo(InvoiceStatusCancelled) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot cancel invoice %s in %s status", inv.ID, inv.Status)
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Cancel reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelReason = reason
	inv.CancelledAt = &now
	inv.UpdatedAt = now
	return nil
}

// Void transitions the invoice to VOIDED, freeing the order for
// re-invoicing.
func (inv *Invoice) Void(reason string) error {
	if !inv.Status.CanTransitionTo(InvoiceStatusVoided) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot void invoice %s in %s status", inv.ID, inv.Status)
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Void reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusVoided
	inv.VoidReason = reason
	inv.VoidedAt = &now
	inv.UpdatedAt = now
	return nil
}

// TaxBreakdown recomputes the invoice totals from its lines
func (inv *Invoice) TaxBreakdown() (TaxBreakdown, error) {
	return AggregateTax(inv.Items)
}

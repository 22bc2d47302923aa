package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/epicerie/backend/internal/domain/shared"
	"github.com/epicerie/backend/internal/domain/shared/valueobject"
)

// PurchaseOrderStatus represents the status of a client purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusSubmitted   PurchaseOrderStatus = "SUBMITTED"
	PurchaseOrderStatusUnderReview PurchaseOrderStatus = "UNDER_REVIEW"
	PurchaseOrderStatusApproved    PurchaseOrderStatus = "APPROVED"
	PurchaseOrderStatusConverted   PurchaseOrderStatus = "CONVERTED"
	PurchaseOrderStatusRejected    PurchaseOrderStatus = "REJECTED"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusSubmitted, PurchaseOrderStatusUnderReview,
		PurchaseOrderStatusApproved, PurchaseOrderStatusConverted, PurchaseOrderStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status is terminal
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusConverted || s == PurchaseOrderStatusRejected
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	switch s {
	case PurchaseOrderStatusSubmitted:
		return target == PurchaseOrderStatusUnderReview || target == PurchaseOrderStatusRejected
	case PurchaseOrderStatusUnderReview:
		return target == PurchaseOrderStatusApproved || target == PurchaseOrderStatusRejected
	case PurchaseOrderStatusApproved:
		return target == PurchaseOrderStatusConverted
	case PurchaseOrderStatusConverted, PurchaseOrderStatusRejected:
		return false // Terminal states
	}
	return false
}

// PurchaseOrder represents a client-submitted purchase order aggregate
// root. B2B clients submit it with their own PO reference and an
// attached reference document; it passes through admin review and is
// converted into an order or rejected.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	PONumber         string // internal number, assigned at submission
	ClientReference  string // the client's own PO reference
	AttachmentKey    string // storage key of the client-supplied document
	CustomerID       uuid.UUID
	CustomerName     string
	Status           PurchaseOrderStatus
	Items            []LineItem `gorm:"foreignKey:DocumentID"`
	RejectReason     string
	ConvertedOrderID *uuid.UUID
	ReviewStartedAt  *time.Time
	ApprovedAt       *time.Time
	RejectedAt       *time.Time
	ConvertedAt      *time.Time
}

// NewPurchaseOrder creates a purchase order in SUBMITTED status
func NewPurchaseOrder(poNumber string, customerID uuid.UUID, customerName, clientReference, attachmentKey string) (*PurchaseOrder, error) {
	if poNumber == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "PO number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer name cannot be empty")
	}
	if clientReference == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Client PO reference cannot be empty")
	}

	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PONumber:          poNumber,
		ClientReference:   clientReference,
		AttachmentKey:     attachmentKey,
		CustomerID:        customerID,
		CustomerName:      customerName,
		Status:            PurchaseOrderStatusSubmitted,
		Items:             make([]LineItem, 0),
	}, nil
}

// AddLine adds a line to the purchase order. Only allowed in SUBMITTED
// status; review fixes the lines.
func (po *PurchaseOrder) AddLine(productID uuid.UUID, variantID *uuid.UUID, description string, quantity int64, unitPrice valueobject.Money, vatRate valueobject.VATRate) (*LineItem, error) {
	if po.Status != PurchaseOrderStatusSubmitted {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot add lines to purchase order %s in %s status", po.ID, po.Status)
	}

	item, err := NewLineItem(po.ID, productID, variantID, description, quantity, unitPrice, vatRate, len(po.Items))
	if err != nil {
		return nil, err
	}

	po.Items = append(po.Items, *item)
	po.UpdatedAt = time.Now()
	return item, nil
}

// StartReview transitions SUBMITTED -> UNDER_REVIEW
func (po *PurchaseOrder) StartReview() error {
	if !po.Status.CanTransitionTo(PurchaseOrderStatusUnderReview) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot start review of purchase order %s in %s status", po.ID, po.Status)
	}

	now := time.Now()
	po.Status = PurchaseOrderStatusUnderReview
	po.ReviewStartedAt = &now
	po.UpdatedAt = now
	return nil
}

// Approve transitions UNDER_REVIEW -> APPROVED
func (po *PurchaseOrder) Approve() error {
	if !po.Status.CanTransitionTo(PurchaseOrderStatusApproved) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot approve purchase order %s in %s status", po.ID, po.Status)
	}
	if len(po.Items) == 0 {
		return shared.NewDomainErrorf(shared.CodeInvalidInput, "Cannot approve purchase order %s without lines", po.ID)
	}

	now := time.Now()
	po.Status = PurchaseOrderStatusApproved
	po.ApprovedAt = &now
	po.UpdatedAt = now
	return nil
}

// Reject transitions SUBMITTED or UNDER_REVIEW -> REJECTED
func (po *PurchaseOrder) Reject(reason string) error {
	if !po.Status.CanTransitionTo(PurchaseOrderStatusRejected) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot reject purchase order %s in %s status", po.ID, po.Status)
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Reject reason is required")
	}

	now := time.Now()
	po.Status = PurchaseOrderStatusRejected
	po.RejectReason = reason
	po.RejectedAt = &now
	po.UpdatedAt = now
	return nil
}

// MarkConverted records the one-way conversion into an order. A second
// conversion attempt fails with ALREADY_CONVERTED.
func (po *PurchaseOrder) MarkConverted(orderID uuid.UUID) error {
	if po.Status == PurchaseOrderStatusConverted {
		return shared.NewDomainErrorf(shared.CodeAlreadyConverted,
			"Purchase order %s has already been converted to order %s", po.ID, convertedOrderRef(po.ConvertedOrderID))
	}
	if !po.Status.CanTransitionTo(PurchaseOrderStatusConverted) {
		return shared.NewDomainErrorf(shared.CodeInvalidStateTransition,
			"Cannot convert purchase order %s in %s status", po.ID, po.Status)
	}

	now := time.Now()
	po.Status = PurchaseOrderStatusConverted
	po.ConvertedOrderID = &orderID
	po.ConvertedAt = &now
	po.UpdatedAt = now
	return nil
}

// TaxBreakdown recomputes the purchase order totals from its lines
func (po *PurchaseOrder) TaxBreakdown() (TaxBreakdown, error) {
	return AggregateTax(po.Items)
}

// IsConvertible returns true if the purchase order may be converted to an order
func (po *PurchaseOrder) IsConvertible() bool {
	return po.Status == PurchaseOrderStatusApproved
}

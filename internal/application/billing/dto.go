package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/epicerie/backend/internal/domain/billing"
)

// ==================== Shared DTOs ====================

// LineItemInput represents one requested line in an intake request.
// No price is accepted from the client; prices are resolved server-side.
type LineItemInput struct {
	ProductID   uuid.UUID  `json:"product_id" binding:"required"`
	VariantID   *uuid.UUID `json:"variant_id"`
	Description string     `json:"description" binding:"required,min=1,max=200"`
	Quantity    int64      `json:"quantity" binding:"required,min=1"`
	VATRate     string     `json:"vat_rate" binding:"required"`
}

// LineItemResponse represents a document line in API responses.
// Monetary amounts are minor units (cents); rates are decimal strings.
type LineItemResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	Description string     `json:"description"`
	Quantity    int64      `json:"quantity"`
	UnitPrice   int64      `json:"unit_price"`
	VATRate     string     `json:"vat_rate"`
	Net         int64      `json:"net"`
	Tax         int64      `json:"tax"`
	Gross       int64      `json:"gross"`
	Position    int        `json:"position"`
}

// RateGroupResponse is one per-rate subtotal of a tax breakdown
type RateGroupResponse struct {
	Rate string `json:"rate"`
	Net  int64  `json:"net"`
	Tax  int64  `json:"tax"`
}

// TaxBreakdownResponse is the recomputed tax summary of a document
type TaxBreakdownResponse struct {
	Groups     []RateGroupResponse `json:"groups"`
	GrandNet   int64               `json:"grand_net"`
	GrandTax   int64               `json:"grand_tax"`
	GrandTotal int64               `json:"grand_total"`
	Currency   string              `json:"currency"`
}

// ==================== Quote DTOs ====================

// SubmitQuoteRequest represents a customer submitting a cart for pricing
type SubmitQuoteRequest struct {
	CustomerID    uuid.UUID       `json:"customer_id" binding:"required"`
	Items         []LineItemInput `json:"items" binding:"required,min=1,dive"`
	CustomerNotes string          `json:"customer_notes" binding:"max=2000"`
}

// ProposeLinePriceRequest represents an admin proposing a line price,
// in minor units
type ProposeLinePriceRequest struct {
	UnitPrice int64 `json:"unit_price" binding:"min=0"`
}

// PriceQuoteRequest represents an admin issuing the priced quote
type PriceQuoteRequest struct {
	ValidityDays int    `json:"validity_days" binding:"omitempty,min=1,max=365"`
	AdminNotes   string `json:"admin_notes" binding:"max=2000"`
}

// RejectRequest carries the mandatory reason for a rejection
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// QuoteListFilter represents filter options for the quote list
type QuoteListFilter struct {
	Search     string     `form:"search"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Status     string     `form:"status"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// QuoteResponse represents a quote in API responses
type QuoteResponse struct {
	ID               uuid.UUID            `json:"id"`
	QuoteNumber      string               `json:"quote_number,omitempty"`
	CustomerID       uuid.UUID            `json:"customer_id"`
	CustomerName     string               `json:"customer_name"`
	Status           string               `json:"status"`
	Items            []LineItemResponse   `json:"items"`
	Totals           TaxBreakdownResponse `json:"totals"`
	ValidUntil       *time.Time           `json:"valid_until,omitempty"`
	CustomerNotes    string               `json:"customer_notes,omitempty"`
	AdminNotes       string               `json:"admin_notes,omitempty"`
	RejectReason     string               `json:"reject_reason,omitempty"`
	ConvertedOrderID *uuid.UUID           `json:"converted_order_id,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// ==================== Purchase Order DTOs ====================

// SubmitPurchaseOrderRequest represents a B2B client submitting a
// purchase order with their own reference
type SubmitPurchaseOrderRequest struct {
	CustomerID      uuid.UUID       `json:"customer_id" binding:"required"`
	ClientReference string          `json:"client_reference" binding:"required,min=1,max=100"`
	AttachmentKey   string          `json:"attachment_key" binding:"max=500"`
	Items           []LineItemInput `json:"items" binding:"required,min=1,dive"`
}

// PurchaseOrderListFilter represents filter options for the PO list
type PurchaseOrderListFilter struct {
	Search     string     `form:"search"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Status     string     `form:"status"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID               uuid.UUID            `json:"id"`
	PONumber         string               `json:"po_number"`
	ClientReference  string               `json:"client_reference"`
	AttachmentKey    string               `json:"attachment_key,omitempty"`
	CustomerID       uuid.UUID            `json:"customer_id"`
	CustomerName     string               `json:"customer_name"`
	Status           string               `json:"status"`
	Items            []LineItemResponse   `json:"items"`
	Totals           TaxBreakdownResponse `json:"totals"`
	RejectReason     string               `json:"reject_reason,omitempty"`
	ConvertedOrderID *uuid.UUID           `json:"converted_order_id,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// ==================== Order DTOs ====================

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID           uuid.UUID            `json:"id"`
	OrderNumber  string               `json:"order_number"`
	CustomerID   uuid.UUID            `json:"customer_id"`
	CustomerName string               `json:"customer_name"`
	Source       string               `json:"source"`
	SourceID     *uuid.UUID           `json:"source_id,omitempty"`
	Items        []LineItemResponse   `json:"items"`
	Totals       TaxBreakdownResponse `json:"totals"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ==================== Invoice DTOs ====================

// GenerateInvoiceRequest represents a request to invoice an order
type GenerateInvoiceRequest struct {
	AsDraft bool `json:"as_draft"`
}

// ApplyPaymentRequest records a payment in minor units
type ApplyPaymentRequest struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}

// CancelInvoiceRequest carries the mandatory cancellation reason
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// VoidInvoiceRequest carries the mandatory void reason
type VoidInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// InvoiceListFilter represents filter options for the invoice list
type InvoiceListFilter struct {
	Search     string     `form:"search"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Status     string     `form:"status"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID            `json:"id"`
	InvoiceNumber string               `json:"invoice_number"`
	OrderID       uuid.UUID            `json:"order_id"`
	CustomerID    uuid.UUID            `json:"customer_id"`
	CustomerName  string               `json:"customer_name"`
	Status        string               `json:"status"`
	Items         []LineItemResponse   `json:"items"`
	Totals        TaxBreakdownResponse `json:"totals"`
	IssueDate     time.Time            `json:"issue_date"`
	DueDate       time.Time            `json:"due_date"`
	PaidAmount    int64                `json:"paid_amount"`
	Outstanding   int64                `json:"outstanding"`
	SentAt        *time.Time           `json:"sent_at,omitempty"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	CancelReason  string               `json:"cancel_reason,omitempty"`
	VoidReason    string               `json:"void_reason,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ==================== Mappers ====================

func toLineItemResponses(items []billing.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for i := range items {
		resp := LineItemResponse{
			ID:          items[i].ID,
			ProductID:   items[i].ProductID,
			VariantID:   items[i].VariantID,
			Description: items[i].Description,
			Quantity:    items[i].Quantity,
			UnitPrice:   items[i].UnitPrice.Amount(),
			VATRate:     items[i].VATRate.String(),
			Position:    items[i].Position,
		}
		if amounts, err := items[i].ComputeLine(); err == nil {
			resp.Net = amounts.Net.Amount()
			resp.Tax = amounts.Tax.Amount()
			resp.Gross = amounts.Gross.Amount()
		}
		out = append(out, resp)
	}
	return out
}

func toTaxBreakdownResponse(breakdown billing.TaxBreakdown) TaxBreakdownResponse {
	groups := make([]RateGroupResponse, 0, len(breakdown.Groups))
	for _, g := range breakdown.Groups {
		groups = append(groups, RateGroupResponse{
			Rate: g.Rate.String(),
			Net:  g.Net.Amount(),
			Tax:  g.Tax.Amount(),
		})
	}
	return TaxBreakdownResponse{
		Groups:     groups,
		GrandNet:   breakdown.GrandNet.Amount(),
		GrandTax:   breakdown.GrandTax.Amount(),
		GrandTotal: breakdown.GrandTotal.Amount(),
		Currency:   string(breakdown.GrandTotal.Currency()),
	}
}

// ToQuoteResponse converts a quote to its API response
func ToQuoteResponse(q *billing.Quote) QuoteResponse {
	resp := QuoteResponse{
		ID:               q.ID,
		QuoteNumber:      q.QuoteNumber,
		CustomerID:       q.CustomerID,
		CustomerName:     q.CustomerName,
		Status:           q.Status.String(),
		Items:            toLineItemResponses(q.Items),
		ValidUntil:       q.ValidUntil,
		CustomerNotes:    q.CustomerNotes,
		AdminNotes:       q.AdminNotes,
		RejectReason:     q.RejectReason,
		ConvertedOrderID: q.ConvertedOrderID,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
	if breakdown, err := q.TaxBreakdown(); err == nil {
		resp.Totals = toTaxBreakdownResponse(breakdown)
	}
	return resp
}

// ToPurchaseOrderResponse converts a purchase order to its API response
func ToPurchaseOrderResponse(po *billing.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:               po.ID,
		PONumber:         po.PONumber,
		ClientReference:  po.ClientReference,
		AttachmentKey:    po.AttachmentKey,
		CustomerID:       po.CustomerID,
		CustomerName:     po.CustomerName,
		Status:           po.Status.String(),
		Items:            toLineItemResponses(po.Items),
		RejectReason:     po.RejectReason,
		ConvertedOrderID: po.ConvertedOrderID,
		CreatedAt:        po.CreatedAt,
		UpdatedAt:        po.UpdatedAt,
	}
	if breakdown, err := po.TaxBreakdown(); err == nil {
		resp.Totals = toTaxBreakdownResponse(breakdown)
	}
	return resp
}

// ToOrderResponse converts an order to its API response
func ToOrderResponse(o *billing.Order) OrderResponse {
	resp := OrderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		Source:       string(o.Source),
		SourceID:     o.SourceID,
		Items:        toLineItemResponses(o.Items),
		CreatedAt:    o.CreatedAt,
	}
	if breakdown, err := o.TaxBreakdown(); err == nil {
		resp.Totals = toTaxBreakdownResponse(breakdown)
	}
	return resp
}

// ToInvoiceResponse converts an invoice to its API response
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		OrderID:       inv.OrderID,
		CustomerID:    inv.CustomerID,
		CustomerName:  inv.CustomerName,
		Status:        inv.Status.String(),
		Items:         toLineItemResponses(inv.Items),
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		PaidAmount:    inv.PaidAmount.Amount(),
		SentAt:        inv.SentAt,
		PaidAt:        inv.PaidAt,
		CancelReason:  inv.CancelReason,
		VoidReason:    inv.VoidReason,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	if breakdown, err := inv.TaxBreakdown(); err == nil {
		resp.Totals = toTaxBreakdownResponse(breakdown)
		resp.Outstanding = breakdown.GrandTotal.Amount() - inv.PaidAmount.Amount()
	}
	return resp
}

package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/epicerie/backend/internal/application/billing"
)

// PurchaseOrderHandler handles client purchase order API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	poService *billingapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(poService *billingapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{poService: poService}
}

// RegisterRoutes registers purchase order routes
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	pos := rg.Group("/purchase-orders")
	{
		pos.POST("", h.Submit)
		pos.GET("", h.List)
		pos.GET("/:id", h.Get)
		pos.POST("/:id/review", h.StartReview)
		pos.POST("/:id/approve", h.Approve)
		pos.POST("/:id/reject", h.Reject)
		pos.POST("/:id/convert", h.Convert)
	}
}

// Submit handles POST /purchase-orders
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	var req billingapp.SubmitPurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	po, err := h.poService.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, po)
}

// List handles GET /purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var filter billingapp.PurchaseOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	pos, total, err := h.poService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, pos, total, page, pageSize)
}

// Get handles GET /purchase-orders/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	po, err := h.poService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// StartReview handles POST /purchase-orders/:id/review
func (h *PurchaseOrderHandler) StartReview(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	po, err := h.poService.StartReview(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// Approve handles POST /purchase-orders/:id/approve
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	po, err := h.poService.Approve(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// Reject handles POST /purchase-orders/:id/reject
func (h *PurchaseOrderHandler) Reject(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	var req billingapp.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	po, err := h.poService.Reject(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// Convert handles POST /purchase-orders/:id/convert
func (h *PurchaseOrderHandler) Convert(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	order, err := h.poService.Convert(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

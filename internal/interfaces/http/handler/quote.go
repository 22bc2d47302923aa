package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/epicerie/backend/internal/application/billing"
)

// QuoteHandler handles quote request API endpoints
type QuoteHandler struct {
	BaseHandler
	quoteService *billingapp.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService *billingapp.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

// RegisterRoutes registers quote routes
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	{
		quotes.POST("", h.Submit)
		quotes.GET("", h.List)
		quotes.GET("/:id", h.Get)
		quotes.PUT("/:id/lines/:lineId/price", h.ProposeLinePrice)
		quotes.POST("/:id/price", h.Price)
		quotes.POST("/:id/accept", h.Accept)
		quotes.POST("/:id/reject", h.Reject)
		quotes.POST("/:id/convert", h.Convert)
	}
}

// Submit handles POST /quotes
func (h *QuoteHandler) Submit(c *gin.Context) {
	var req billingapp.SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	quote, err := h.quoteService.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, quote)
}

// List handles GET /quotes
func (h *QuoteHandler) List(c *gin.Context) {
	var filter billingapp.QuoteListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	quotes, total, err := h.quoteService.List(c.Request.Context(), filter)
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
	h.SuccessWithMeta(c, quotes, total, page, pageSize)
}

// Get handles GET /quotes/:id
func (h *QuoteHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid quote ID")
		return
	}

	quote, err := h.quoteService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// ProposeLinePrice handles PUT /quotes/:id/lines/:lineId/price
func (h *QuoteHandler) ProposeLinePrice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid quote ID")
		return
	}
	lineID, err := parseUUID(c.Param("lineId"))
	if err != nil {
		h.BadRequest(c, "Invalid line ID")
		return
	}

	var req billingapp.ProposeLinePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	quote, err := h.quoteService.ProposeLinePrice(c.Request.Context(), id, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Price handles POST /quotes/:id/price
func (h *QuoteHandler) Price(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid quote ID")
		return
	}

	var req billingapp.PriceQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	quote, err := h.quoteService.Price(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Accept handles POST /quotes/:id/accept
func (h *QuoteHandler) Accept(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid quote ID")
		return
	}

	quote, err := h.quoteService.Accept(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Reject handles POST /quotes/:id/reject
func (h *QuoteHandler) Reject(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid quote ID")
		return
	}

	var req billingapp.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	quote, err := h.quoteService.Reject(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Convert handles POST /quotes/:id/convert
func (h *QuoteHandler) Convert(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid quote ID")
		return
	}

	order, err := h.quoteService.Convert(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/secu-devis/internal/application/service"
	"github.com/garyjia/secu-devis/internal/domain/entity"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeJSON = "application/json"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger *zap.Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// TotalsResponse carries the priced lines and totals of a quote
type TotalsResponse struct {
	QuoteID string             `json:"quoteId"`
	Variant entity.Variant     `json:"variant"`
	Items   []entity.QuoteItem `json:"items"`
	Totals  entity.QuoteTotals `json:"totals"`
}

// ListQuotesRequest represents query parameters for listing quotes
type ListQuotesRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// ExtractRequest is the body of POST /api/quotes/extract
type ExtractRequest struct {
	Email string `json:"email" binding:"required"`
}

// DuplicateRequest is the optional body of POST /api/layouts/:id/duplicate
type DuplicateRequest struct {
	Name string `json:"name"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if h.services.Health != nil {
		health := h.services.Health.Health(c.Request.Context())
		response.Components = health.Components
		if !health.Overall {
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// GetSettings handles GET /api/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	settings, err := h.services.Settings.Get(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: settings})
}

// UpdateSettings handles PUT /api/settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var settings entity.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, "invalid settings document")
		return
	}

	saved, err := h.services.Settings.Update(c.Request.Context(), &settings)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: saved})
}

// ListQuotes handles GET /api/quotes
func (h *Handlers) ListQuotes(c *gin.Context) {
	var req ListQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	quotes, err := h.services.Quotes.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if quotes == nil {
		quotes = []*entity.Quote{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: quotes})
}

// CreateQuote handles POST /api/quotes
func (h *Handlers) CreateQuote(c *gin.Context) {
	var quote entity.Quote
	if err := c.ShouldBindJSON(&quote); err != nil {
		badRequest(c, "invalid quote document")
		return
	}

	created, err := h.services.Quotes.Create(c.Request.Context(), &quote)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// GetQuote handles GET /api/quotes/:id
func (h *Handlers) GetQuote(c *gin.Context) {
	quote, err := h.services.Quotes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: quote})
}

// UpdateQuote handles PUT /api/quotes/:id. The path id wins over the body.
func (h *Handlers) UpdateQuote(c *gin.Context) {
	var quote entity.Quote
	if err := c.ShouldBindJSON(&quote); err != nil {
		badRequest(c, "invalid quote document")
		return
	}
	quote.ID = c.Param("id")

	updated, err := h.services.Quotes.Update(c.Request.Context(), &quote)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// GetQuoteTotals handles GET /api/quotes/:id/totals
func (h *Handlers) GetQuoteTotals(c *gin.Context) {
	priced, err := h.services.Quotes.Price(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: TotalsResponse{
		QuoteID: priced.Quote.ID,
		Variant: priced.Quote.EffectiveVariant(),
		Items:   priced.Quote.Items,
		Totals:  priced.Totals,
	}})
}

// GetQuoteDocument handles GET /api/quotes/:id/document
func (h *Handlers) GetQuoteDocument(c *gin.Context) {
	html, err := h.services.Documents.RenderQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, []byte(html))
}

// ExportPDF handles POST /api/quotes/:id/pdf
func (h *Handlers) ExportPDF(c *gin.Context) {
	doc, err := h.services.Documents.ExportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: doc})
}

// ExportDOCX handles POST /api/quotes/:id/docx
func (h *Handlers) ExportDOCX(c *gin.Context) {
	doc, err := h.services.Documents.ExportDOCX(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: doc})
}

// ExportXLSX handles GET /api/quotes/:id/xlsx
func (h *Handlers) ExportXLSX(c *gin.Context) {
	data, name, err := h.services.Documents.ExportXLSX(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentTypeXLSX, data)
}

// ListDocuments handles GET /api/quotes/:id/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	docs, err := h.services.Documents.ListDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if docs == nil {
		docs = []*entity.GeneratedDocument{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: docs})
}

// ExtractQuote handles POST /api/quotes/extract
func (h *Handlers) ExtractQuote(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email is required")
		return
	}

	draft, err := h.services.Quotes.ExtractDraft(c.Request.Context(), req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: draft})
}

// Render handles POST /api/render
func (h *Handlers) Render(c *gin.Context) {
	var req service.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid render request")
		return
	}

	html, err := h.services.Documents.Render(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, []byte(html))
}

// ListLayouts handles GET /api/layouts?variant=
func (h *Handlers) ListLayouts(c *gin.Context) {
	variant := entity.Variant(c.Query("variant"))
	if variant != "" && !variant.IsValid() {
		badRequest(c, "unknown variant")
		return
	}

	layouts, err := h.services.Layouts.List(c.Request.Context(), variant)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if layouts == nil {
		layouts = []*entity.PDFLayoutConfig{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: layouts})
}

// SaveLayout handles POST /api/layouts
func (h *Handlers) SaveLayout(c *gin.Context) {
	var layout entity.PDFLayoutConfig
	if err := c.ShouldBindJSON(&layout); err != nil {
		badRequest(c, "invalid layout document")
		return
	}

	saved, err := h.services.Layouts.Save(c.Request.Context(), &layout)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: saved})
}

// GetLayout handles GET /api/layouts/:id
func (h *Handlers) GetLayout(c *gin.Context) {
	layout, err := h.services.Layouts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: layout})
}

// DeleteLayout handles DELETE /api/layouts/:id
func (h *Handlers) DeleteLayout(c *gin.Context) {
	if err := h.services.Layouts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ExportLayout handles GET /api/layouts/:id/export
func (h *Handlers) ExportLayout(c *gin.Context) {
	id := c.Param("id")
	data, err := h.services.Layouts.Export(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "layout-"+id+".json"))
	c.Data(http.StatusOK, contentTypeJSON, data)
}

// ImportLayout handles POST /api/layouts/import with a raw layout document
func (h *Handlers) ImportLayout(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil || len(data) == 0 {
		badRequest(c, "layout document is required")
		return
	}

	layout, err := h.services.Layouts.Import(c.Request.Context(), data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: layout})
}

// DuplicateLayout handles POST /api/layouts/:id/duplicate
func (h *Handlers) DuplicateLayout(c *gin.Context) {
	var req DuplicateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid duplicate request")
			return
		}
	}

	layout, err := h.services.Layouts.Duplicate(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: layout})
}

// ActivateLayout handles POST /api/layouts/:id/activate
func (h *Handlers) ActivateLayout(c *gin.Context) {
	if err := h.services.Layouts.Activate(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// GetActiveLayout handles GET /api/layouts/active/:variant
func (h *Handlers) GetActiveLayout(c *gin.Context) {
	variant := entity.Variant(c.Param("variant"))
	if !variant.IsValid() {
		badRequest(c, "unknown variant")
		return
	}

	layout, err := h.services.Layouts.Active(c.Request.Context(), variant)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: layout})
}

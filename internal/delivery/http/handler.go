package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/savemate/backend/internal/domain"
	"github.com/savemate/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	comparisons *usecase.ComparisonService
	savings     *usecase.SavingsService
	extractor   *usecase.Extractor
	feedFilter  *usecase.FeedFilter
}

// NewHandler creates a new HTTP handler
func NewHandler(
	comparisons *usecase.ComparisonService,
	savings *usecase.SavingsService,
	extractor *usecase.Extractor,
	feedFilter *usecase.FeedFilter,
) *Handler {
	return &Handler{
		comparisons: comparisons,
		savings:     savings,
		extractor:   extractor,
		feedFilter:  feedFilter,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "savemate-backend",
		"version": "1.0.0",
	})
}

// startComparisonRequest is sent by the content script on detection
type startComparisonRequest struct {
	Product domain.Product `json:"product" binding:"required"`
	NavKey  string         `json:"navKey"`
}

// StartComparison writes the searching record and launches the run.
// Responds immediately; the popup polls GetComparison for the result.
func (h *Handler) StartComparison(c *gin.Context) {
	if h.comparisons == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "comparison service not configured"})
		return
	}

	var req startComparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if !domain.IsSupportedSite(req.Product.Site) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unsupported site: " + string(req.Product.Site)})
		return
	}

	record := h.comparisons.StartComparison(req.Product, req.NavKey)
	c.JSON(http.StatusAccepted, record)
}

// GetComparison returns the comparison record for a navigation key,
// falling back to the most recent comparison.
func (h *Handler) GetComparison(c *gin.Context) {
	if h.comparisons == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "comparison service not configured"})
		return
	}

	navKey := c.Param("key")
	if navKey == "last" {
		navKey = ""
	}
	record, err := h.comparisons.GetComparison(c.Request.Context(), navKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no comparison found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// ClearComparison cancels any in-flight run for the key and removes the
// stored records. The navigation watcher calls this on route changes.
func (h *Handler) ClearComparison(c *gin.Context) {
	if h.comparisons == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "comparison service not configured"})
		return
	}

	h.comparisons.ClearComparison(c.Request.Context(), c.Param("key"))
	c.Status(http.StatusNoContent)
}

// extractRequest carries the page URL and optionally its markup
type extractRequest struct {
	URL  string `json:"url" binding:"required"`
	HTML string `json:"html"`
}

// ExtractProduct pulls a product title and price from a page
func (h *Handler) ExtractProduct(c *gin.Context) {
	if h.extractor == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "extractor not configured"})
		return
	}

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	var html io.Reader
	if req.HTML != "" {
		html = strings.NewReader(req.HTML)
	}
	product, err := h.extractor.ExtractProduct(req.URL, html)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedSite):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unsupported retailer"})
		case errors.Is(err, domain.ErrNoProduct):
			c.JSON(http.StatusNotFound, gin.H{"error": "no product detected"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, product)
}

// purchaseRequest confirms a purchase for savings tracking
type purchaseRequest struct {
	Product domain.Product `json:"product" binding:"required"`
}

// RecordPurchase stores a confirmed purchase and reports the savings
func (h *Handler) RecordPurchase(c *gin.Context) {
	if h.savings == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "savings service not configured"})
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	record, err := h.savings.RecordPurchase(c.Request.Context(), &req.Product)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "purchase needs a title and a price"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"saved": record.Saved, "record": record})
}

// GetHistory returns the purchase history and cumulative savings
func (h *Handler) GetHistory(c *gin.Context) {
	if h.savings == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "savings service not configured"})
		return
	}

	history, totalSaved := h.savings.History(c.Request.Context())
	if history == nil {
		history = []domain.PurchaseRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history, "totalSaved": totalSaved})
}

// feedCheckRequest asks for filtering decisions on a title or query
type feedCheckRequest struct {
	Title string `json:"title"`
	Query string `json:"query"`
}

// CheckFeed reports whether a video stays visible and whether a search
// query is blocked under the current filter context.
func (h *Handler) CheckFeed(c *gin.Context) {
	if h.feedFilter == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "feed filter not configured"})
		return
	}

	var req feedCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allowVideo":  h.feedFilter.AllowVideo(req.Title),
		"blockSearch": h.feedFilter.BlockSearch(req.Query),
	})
}

// UpdateFeedContext replaces the feed filter context. This is the
// subscription path for settings changes from the popup.
func (h *Handler) UpdateFeedContext(c *gin.Context) {
	if h.feedFilter == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "feed filter not configured"})
		return
	}

	var ctx usecase.FilterContext
	if err := c.ShouldBindJSON(&ctx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	h.feedFilter.Update(ctx)
	c.Status(http.StatusNoContent)
}

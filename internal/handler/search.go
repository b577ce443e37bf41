package handler

import (
	"net/http"
	"strconv"

	"rentsearch/internal/config"
	"rentsearch/internal/filter"
	"rentsearch/internal/model"
	"rentsearch/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultSimilarLimit = 6
	maxSimilarLimit     = 20
)

// SearchHandler handles listing search HTTP requests
type SearchHandler struct {
	searchService *service.SearchService
	cfg           config.SearchConfig
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService, cfg config.SearchConfig) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		cfg:           cfg,
	}
}

// List handles GET /api/v1/listings
func (h *SearchHandler) List(c *gin.Context) {
	values := c.Request.URL.Query()
	fs := filter.FromQuery(values)
	page := filter.ParsePage(values.Get("page"))
	size := filter.ClampLimit(values.Get("page_size"), h.cfg.PageSize, h.cfg.MaxPageSize)

	response, err := h.searchService.List(c.Request.Context(), fs, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Search handles POST /api/v1/listings/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	response, err := h.searchService.List(c.Request.Context(), filter.FromMap(req.Filters), req.Page, req.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Map handles GET /api/v1/map/listings
func (h *SearchHandler) Map(c *gin.Context) {
	values := c.Request.URL.Query()
	fs, extras := filter.FromMapQuery(values)
	limit := filter.ClampLimit(values.Get("limit"), h.cfg.MapDefaultLimit, h.cfg.MapMaxLimit)

	response, err := h.searchService.Map(c.Request.Context(), fs, extras, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Map search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetListing handles GET /api/v1/listings/:id
func (h *SearchHandler) GetListing(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	listing, err := h.searchService.GetListing(c.Request.Context(), listingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing: " + err.Error()})
		return
	}

	if listing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Similar handles GET /api/v1/listings/:id/similar
func (h *SearchHandler) Similar(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}
	limit := filter.ClampLimit(c.Query("limit"), defaultSimilarLimit, maxSimilarLimit)

	listings, err := h.searchService.Similar(c.Request.Context(), listingID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find similar listings: " + err.Error()})
		return
	}

	if listings == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(listings), "results": listings})
}

// Amenities handles GET /api/v1/amenities
func (h *SearchHandler) Amenities(c *gin.Context) {
	amenities, err := h.searchService.Amenities(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list amenities: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, amenities)
}

// Suggestions handles GET /api/v1/search/suggestions
func (h *SearchHandler) Suggestions(c *gin.Context) {
	suggestions, err := h.searchService.Suggestions(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load suggestions: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.SuggestionsResponse{Suggestions: suggestions})
}

// listingIDParam parses the :id path parameter, replying 400 when malformed
func listingIDParam(c *gin.Context) (int64, bool) {
	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || listingID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return 0, false
	}
	return listingID, true
}

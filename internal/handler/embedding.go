package handler

import (
	"fmt"
	"net/http"

	"rentsearch/internal/model"
	"rentsearch/internal/service"

	"github.com/gin-gonic/gin"
)

// EmbeddingHandler accepts listing embeddings computed outside the service
type EmbeddingHandler struct {
	searchService *service.SearchService
}

// NewEmbeddingHandler creates a new embedding handler
func NewEmbeddingHandler(searchService *service.SearchService) *EmbeddingHandler {
	return &EmbeddingHandler{
		searchService: searchService,
	}
}

// BatchUpdate handles POST /api/v1/embeddings/batch.
//
// Each item succeeds or fails on its own. The reply is 200 when every item
// was stored, 206 when some were, and 422 when none were.
func (h *EmbeddingHandler) BatchUpdate(c *gin.Context) {
	var req model.EmbeddingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if len(req.Embeddings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No embeddings provided"})
		return
	}

	items, rejected := screenEmbeddings(req.Embeddings)

	var success int
	var storeErrors []string
	if len(items) > 0 {
		success, storeErrors = h.searchService.UpdateEmbeddings(c.Request.Context(), items)
	}

	response := model.EmbeddingBatchResponse{
		Success:    success,
		Failed:     len(req.Embeddings) - success,
		Dimensions: h.searchService.EmbeddingDims(),
		Errors:     append(rejected, storeErrors...),
	}

	c.JSON(batchStatus(response), response)
}

// screenEmbeddings drops items that cannot be stored whatever the store
// says: non-positive ids, empty vectors and repeated ids (the first wins)
func screenEmbeddings(items []model.EmbeddingItem) ([]model.EmbeddingItem, []string) {
	var kept []model.EmbeddingItem
	var rejected []string
	seen := make(map[int64]bool, len(items))

	for i, item := range items {
		switch {
		case item.ListingID <= 0:
			rejected = append(rejected, fmt.Sprintf("item %d: listing_id must be positive", i))
		case len(item.Embedding) == 0:
			rejected = append(rejected, fmt.Sprintf("listing_id %d: empty embedding", item.ListingID))
		case seen[item.ListingID]:
			rejected = append(rejected, fmt.Sprintf("listing_id %d: duplicate in batch", item.ListingID))
		default:
			seen[item.ListingID] = true
			kept = append(kept, item)
		}
	}
	return kept, rejected
}

func batchStatus(r model.EmbeddingBatchResponse) int {
	switch {
	case r.Failed == 0:
		return http.StatusOK
	case r.Success > 0:
		return http.StatusPartialContent
	default:
		return http.StatusUnprocessableEntity
	}
}

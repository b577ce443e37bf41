package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers served under /api/v1
type Handlers struct {
	Search    *SearchHandler
	Chat      *ChatHandler
	Embedding *EmbeddingHandler
	Feedback  *FeedbackHandler
}

// RegisterRoutes mounts the API routes on router
func RegisterRoutes(router *gin.Engine, h Handlers) {
	apiV1 := router.Group("/api/v1")
	{
		// Listing endpoints
		apiV1.GET("/listings", h.Search.List)
		apiV1.POST("/listings/search", h.Search.Search)
		apiV1.GET("/listings/:id", h.Search.GetListing)
		apiV1.GET("/listings/:id/similar", h.Search.Similar)
		apiV1.GET("/map/listings", h.Search.Map)
		apiV1.GET("/amenities", h.Search.Amenities)
		apiV1.GET("/search/suggestions", h.Search.Suggestions)

		// Chat endpoints
		apiV1.POST("/chat", h.Chat.Chat)
		apiV1.POST("/chat/recommendations", h.Chat.Recommendations)
		apiV1.POST("/chat/insights", h.Chat.Insights)

		// Embedding endpoints
		apiV1.POST("/embeddings/batch", h.Embedding.BatchUpdate)

		// Feedback endpoint
		apiV1.POST("/feedback", h.Feedback.Submit)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

package handler

import (
	"net/http"
	"strings"

	"rentsearch/internal/model"
	"rentsearch/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles chat assistant HTTP requests
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if !bindJSON(c, &req) {
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	c.JSON(http.StatusOK, h.chatService.Chat(c.Request.Context(), &req))
}

// Recommendations handles POST /api/v1/chat/recommendations
func (h *ChatHandler) Recommendations(c *gin.Context) {
	var req model.RecommendationRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.chatService.Recommend(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recommendations: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Insights handles POST /api/v1/chat/insights
func (h *ChatHandler) Insights(c *gin.Context) {
	var req model.InsightsRequest
	if !bindJSON(c, &req) {
		return
	}

	if strings.TrimSpace(req.District) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "District is required"})
		return
	}

	insights, err := h.chatService.Insights(c.Request.Context(), req.District)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get insights: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, insights)
}

// bindJSON decodes the request body, replying 400 when it is not JSON
func bindJSON(c *gin.Context, target any) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return false
	}
	return true
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	// 1. The assistant only exists when GEMINI_API_KEY is set
	if h.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured"})
		return
	}

	// 2. Run the AI Agent
	response, err := h.Assistant.Ask(c.Request.Context(), req.Message)
	if err != nil {
		h.Log.WithField("module", "handlers").WithError(err).Warn("assistant failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant request failed"})
		return
	}

	// 3. Return the Answer
	c.JSON(http.StatusOK, gin.H{"reply": response})
}

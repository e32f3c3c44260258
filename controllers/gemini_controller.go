package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/prompts"
)

// Gateway is the model behind POST /api/gemini.
type Gateway interface {
	Configured() bool
	Generate(ctx context.Context, action prompts.Action, payload prompts.Payload) (string, error)
}

type GeminiHandler struct {
	log     *logger.Logger
	gateway Gateway
}

func NewGeminiHandler(log *logger.Logger, gateway Gateway) *GeminiHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GeminiHandler{log: log.With("handler", "GeminiHandler"), gateway: gateway}
}

type geminiRequest struct {
	Action  prompts.Action  `json:"action"`
	Payload prompts.Payload `json:"payload"`
}

// ANY /api/gemini
// Only POST is served. The body is {action, payload}; the answer is the
// raw model text as {text}.
func (h *GeminiHandler) Handle(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}
	if h.gateway == nil || !h.gateway.Configured() {
		h.log.Error("gemini api key missing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error: Missing API Key"})
		return
	}

	var req geminiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate content",
			"details": err.Error(),
		})
		return
	}

	text, err := h.gateway.Generate(c.Request.Context(), req.Action, req.Payload)
	if err != nil {
		h.log.Error("gemini generation failed", "action", req.Action, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate content",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

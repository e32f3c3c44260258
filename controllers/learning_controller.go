package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/middleware"
	"github.com/vnkhanh/koru-backend/services"
)

// LearningHandler serves the generation flows: explanations, clarifications,
// quizzes, quiz feedback and title refinement.
type LearningHandler struct {
	log *logger.Logger
	svc *services.LearningService
}

func NewLearningHandler(log *logger.Logger, svc *services.LearningService) *LearningHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LearningHandler{log: log.With("handler", "LearningHandler"), svc: svc}
}

func viewer(c *gin.Context) services.Viewer {
	if id, ok := middleware.UserID(c); ok {
		return services.Viewer{UserID: id}
	}
	return services.Viewer{GuestID: middleware.GuestID(c)}
}

type topicRequest struct {
	Topic string `json:"topic"`
}

// POST /api/explanations
func (h *LearningHandler) Explain(c *gin.Context) {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res, err := h.svc.Explain(c.Request.Context(), viewer(c), req.Topic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type clarifyRequest struct {
	Topic     string `json:"topic"`
	Confusion string `json:"confusion"`
}

// POST /api/clarifications
func (h *LearningHandler) Clarify(c *gin.Context) {
	var req clarifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	cards, err := h.svc.Clarify(c.Request.Context(), req.Topic, req.Confusion)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

// POST /api/quizzes/generate
func (h *LearningHandler) GenerateQuiz(c *gin.Context) {
	var req services.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	quiz, err := h.svc.GenerateQuiz(c.Request.Context(), viewer(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

type feedbackRequest struct {
	Topic   string `json:"topic"`
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
}

// POST /api/quizzes/feedback
func (h *LearningHandler) QuizFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	text, err := h.svc.QuizFeedback(c.Request.Context(), req.Topic, req.Correct, req.Total)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": text})
}

// POST /api/titles/refine
// Never fails on generation: the original topic comes back instead.
func (h *LearningHandler) RefineTitle(c *gin.Context) {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refinedTitle": h.svc.RefineTitle(c.Request.Context(), req.Topic)})
}

package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/koru-backend/apperr"
	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/models"
	"github.com/vnkhanh/koru-backend/repository"
	"github.com/vnkhanh/koru-backend/utils"
)

type QuizRepository interface {
	ListQuizzes(ctx context.Context, userID string) ([]models.Quiz, error)
	GetQuiz(ctx context.Context, userID string, id uuid.UUID) (*models.Quiz, error)
	UpdateQuiz(ctx context.Context, userID string, id uuid.UUID, patch repository.QuizPatch) (*models.Quiz, error)
	RecordQuizResult(ctx context.Context, quizID uuid.UUID, userID string, result models.QuizResult) (*models.Quiz, error)
	SetQuizShareURL(ctx context.Context, userID string, id uuid.UUID, url string) (*models.Quiz, error)
	DeleteQuiz(ctx context.Context, userID string, id uuid.UUID) error
}

type QuizHandler struct {
	log      *logger.Logger
	repo     QuizRepository
	exporter *utils.QuizExporter
}

func NewQuizHandler(log *logger.Logger, repo QuizRepository, exporter *utils.QuizExporter) *QuizHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &QuizHandler{log: log.With("handler", "QuizHandler"), repo: repo, exporter: exporter}
}

// GET /api/quizzes
func (h *QuizHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	quizzes, err := h.repo.ListQuizzes(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("list quizzes failed", "user_id", userID, "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": quizzes})
}

// GET /api/quizzes/:id
func (h *QuizHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	quiz, err := h.repo.GetQuiz(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// PATCH /api/quizzes/:id
// Only the fields present in the body change.
func (h *QuizHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var patch repository.QuizPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c)
		return
	}
	if patch.Mode != nil && *patch.Mode != string(models.QuizModeStep) && *patch.Mode != string(models.QuizModeFull) {
		badRequest(c)
		return
	}
	quiz, err := h.repo.UpdateQuiz(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// POST /api/quizzes/:id/result
func (h *QuizHandler) RecordResult(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var result models.QuizResult
	if err := c.ShouldBindJSON(&result); err != nil {
		badRequest(c)
		return
	}
	if result.TotalQuestions <= 0 || result.Score < 0 || result.Score > result.TotalQuestions {
		badRequest(c)
		return
	}
	quiz, err := h.repo.RecordQuizResult(c.Request.Context(), id, userID, result)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// POST /api/quizzes/:id/share
// Uploads the quiz to storage and stores the public link on it.
func (h *QuizHandler) Share(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	quiz, err := h.repo.GetQuiz(ctx, userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	url, err := h.exporter.Export(quiz)
	if err != nil {
		if errors.Is(err, utils.ErrStorageDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sharing is not configured", "code": apperr.API})
			return
		}
		h.log.Error("export quiz failed", "quiz_id", id, "error", err)
		respondError(c, apperr.New(apperr.API, "quiz.share", err))
		return
	}

	quiz, err = h.repo.SetQuizShareURL(ctx, userID, id, url)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shareUrl": url, "quiz": quiz})
}

// DELETE /api/quizzes/:id
func (h *QuizHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	quiz, err := h.repo.GetQuiz(ctx, userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.repo.DeleteQuiz(ctx, userID, id); err != nil {
		respondError(c, err)
		return
	}
	if err := h.exporter.Remove(quiz); err != nil {
		h.log.Warn("remove shared quiz failed", "quiz_id", id, "error", err)
	}
	c.Status(http.StatusNoContent)
}

package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/models"
	"github.com/vnkhanh/koru-backend/parser"
	"github.com/vnkhanh/koru-backend/services"
	"github.com/vnkhanh/koru-backend/ws"
)

type HistoryRepository interface {
	ListHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error)
	TogglePin(ctx context.Context, userID string, id uuid.UUID, pinned bool) (*models.HistoryEntry, error)
	DeleteHistory(ctx context.Context, userID string, id uuid.UUID) error
}

type HistoryHandler struct {
	log    *logger.Logger
	repo   HistoryRepository
	parser *parser.Parser
	events services.HistoryPublisher
}

func NewHistoryHandler(log *logger.Logger, repo HistoryRepository, p *parser.Parser, events services.HistoryPublisher) *HistoryHandler {
	if log == nil {
		log = logger.Nop()
	}
	if p == nil {
		p = parser.New()
	}
	return &HistoryHandler{log: log.With("handler", "HistoryHandler"), repo: repo, parser: p, events: events}
}

type historyItem struct {
	ID        string                   `json:"id"`
	Query     string                   `json:"query"`
	Content   models.ExplanationResult `json:"content"`
	CreatedAt time.Time                `json:"created_at"`
	IsPinned  bool                     `json:"is_pinned"`
	PinnedAt  *time.Time               `json:"pinned_at"`
}

func (h *HistoryHandler) item(e models.HistoryEntry) historyItem {
	return historyItem{
		ID:        e.ID.String(),
		Query:     e.Query,
		Content:   h.parser.HistoryContent(json.RawMessage(e.Content), e.Query),
		CreatedAt: e.CreatedAt,
		IsPinned:  e.IsPinned,
		PinnedAt:  e.PinnedAt,
	}
}

func (h *HistoryHandler) publish(userID string, ev ws.HistoryEvent) {
	if h.events != nil {
		h.events.PublishHistory(userID, ev)
	}
}

// GET /api/history
// Pinned first (most recently pinned first), then newest.
func (h *HistoryHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	entries, err := h.repo.ListHistory(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("list history failed", "user_id", userID, "error", err)
		respondError(c, err)
		return
	}
	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, h.item(e))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type pinRequest struct {
	Pinned *bool `json:"pinned"`
}

// PATCH /api/history/:id/pin
func (h *HistoryHandler) Pin(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Pinned == nil {
		badRequest(c)
		return
	}

	entry, err := h.repo.TogglePin(c.Request.Context(), userID, id, *req.Pinned)
	if err != nil {
		respondError(c, err)
		return
	}
	h.publish(userID, ws.HistoryEvent{Type: ws.EventUpdate, ID: entry.ID.String(), Query: entry.Query})
	c.JSON(http.StatusOK, h.item(*entry))
}

// DELETE /api/history/:id
func (h *HistoryHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.repo.DeleteHistory(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	h.publish(userID, ws.HistoryEvent{Type: ws.EventDelete, ID: id.String()})
	c.Status(http.StatusNoContent)
}

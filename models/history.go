package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HistoryEntry caches an explanation per user, keyed by the query text.
type HistoryEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string         `gorm:"size:64;not null;index:idx_history_user_query" json:"user_id"`
	Query     string         `gorm:"type:text;not null;index:idx_history_user_query" json:"query"`
	Content   datatypes.JSON `json:"content"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	IsPinned  bool           `gorm:"default:false" json:"is_pinned"`
	PinnedAt  *time.Time     `json:"pinned_at"`
}

func (HistoryEntry) TableName() string { return "history" }

func (h *HistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

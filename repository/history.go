package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/models"
)

type HistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
	now Clock
}

func NewHistoryRepo(db *gorm.DB, baseLog *logger.Logger) *HistoryRepo {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &HistoryRepo{db: db, log: baseLog.With("repo", "HistoryRepo"), now: utcNow}
}

// WithClock swaps the timestamp source.
func (r *HistoryRepo) WithClock(now Clock) *HistoryRepo {
	r.now = now
	return r
}

// FindHistoryByQuery returns the user's entry for query or ErrNotFound.
func (r *HistoryRepo) FindHistoryByQuery(ctx context.Context, userID, query string) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND query = ?", userID, query).
		Order("created_at DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertHistory refreshes the entry for query with content and a new
// created_at, inserting it when absent.
func (r *HistoryRepo) UpsertHistory(ctx context.Context, userID, query string, content any) (*models.HistoryEntry, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode history content: %w", err)
	}
	now := r.now()

	existing, err := r.FindHistoryByQuery(ctx, userID, query)
	switch {
	case err == nil:
		if err := r.db.WithContext(ctx).Model(existing).Updates(map[string]any{
			"content":    datatypes.JSON(raw),
			"created_at": now,
		}).Error; err != nil {
			return nil, err
		}
		existing.Content = raw
		existing.CreatedAt = now
		return existing, nil
	case errors.Is(err, ErrNotFound):
		entry := &models.HistoryEntry{
			UserID:    userID,
			Query:     query,
			Content:   raw,
			CreatedAt: now,
		}
		if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
			return nil, err
		}
		return entry, nil
	default:
		return nil, err
	}
}

// TrimHistory deletes every entry beyond the newest maxKept and returns
// how many were removed. Pinned entries are not exempt.
func (r *HistoryRepo) TrimHistory(ctx context.Context, userID string, maxKept int) (int64, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.HistoryEntry{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) <= maxKept {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids[maxKept:]).
		Delete(&models.HistoryEntry{})
	if res.Error != nil {
		return 0, res.Error
	}
	r.log.Debug("history trimmed", "user_id", userID, "deleted", res.RowsAffected)
	return res.RowsAffected, nil
}

// UsersOverLimit lists users holding more than maxKept entries.
func (r *HistoryRepo) UsersOverLimit(ctx context.Context, maxKept int) ([]string, error) {
	var users []string
	err := r.db.WithContext(ctx).
		Model(&models.HistoryEntry{}).
		Group("user_id").
		Having("COUNT(*) > ?", maxKept).
		Pluck("user_id", &users).Error
	return users, err
}

// ListHistory returns pinned entries first (latest pin first), then the
// rest newest first.
func (r *HistoryRepo) ListHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_pinned DESC").
		Order("pinned_at DESC NULLS LAST").
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// TogglePin pins or unpins an entry. Pinning fails with ErrPinLimit once
// MaxPinned other entries are pinned.
func (r *HistoryRepo) TogglePin(ctx context.Context, userID string, id uuid.UUID, pinned bool) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"is_pinned": pinned, "pinned_at": nil}
	if pinned {
		if !entry.IsPinned {
			var count int64
			if err := r.db.WithContext(ctx).
				Model(&models.HistoryEntry{}).
				Where("user_id = ? AND is_pinned = ? AND id <> ?", userID, true, id).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count >= MaxPinned {
				return nil, ErrPinLimit
			}
		}
		now := r.now()
		updates["pinned_at"] = now
		entry.PinnedAt = &now
	} else {
		entry.PinnedAt = nil
	}

	if err := r.db.WithContext(ctx).Model(&entry).Updates(updates).Error; err != nil {
		return nil, err
	}
	entry.IsPinned = pinned
	return &entry, nil
}

func (r *HistoryRepo) DeleteHistory(ctx context.Context, userID string, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&models.HistoryEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

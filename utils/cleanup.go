package utils

import (
	"context"
	"time"

	"github.com/vnkhanh/koru-backend/logger"
)

const DefaultCleanupInterval = 6 * time.Hour

// HistoryTrimmer is the part of the history store the cleanup job uses.
type HistoryTrimmer interface {
	UsersOverLimit(ctx context.Context, maxKept int) ([]string, error)
	TrimHistory(ctx context.Context, userID string, maxKept int) (int64, error)
}

// CleanupHistory trims every user holding more than maxKept entries. Trims
// happen after each save, but concurrent saves can leave a user over the
// cap; this catches those.
func CleanupHistory(ctx context.Context, repo HistoryTrimmer, maxKept int, log *logger.Logger) (int64, error) {
	if log == nil {
		log = logger.Nop()
	}
	users, err := repo.UsersOverLimit(ctx, maxKept)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, userID := range users {
		n, err := repo.TrimHistory(ctx, userID, maxKept)
		if err != nil {
			log.Error("history cleanup failed", "user_id", userID, "error", err)
			continue
		}
		total += n
	}
	if total > 0 {
		log.Info("history cleanup removed entries", "deleted", total, "users", len(users))
	}
	return total, nil
}

// StartCleanupJob runs CleanupHistory once immediately and then every
// interval until ctx is done.
func StartCleanupJob(ctx context.Context, repo HistoryTrimmer, maxKept int, interval time.Duration, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	run := func() {
		if _, err := CleanupHistory(ctx, repo, maxKept, log); err != nil && ctx.Err() == nil {
			log.Error("history cleanup failed", "error", err)
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info("cleanup job started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			run()
		}
	}
}

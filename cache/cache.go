// Package cache keeps guest state in Redis: the one-shot trial marker and
// short-lived explanation results. A nil client disables both.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnkhanh/koru-backend/models"
)

const (
	DefaultTrialTTL = 30 * 24 * time.Hour
	DefaultGuestTTL = 24 * time.Hour
)

// TrialLimiter lets each guest run a single generation.
type TrialLimiter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTrialLimiter(client *redis.Client, ttl time.Duration) *TrialLimiter {
	if ttl <= 0 {
		ttl = DefaultTrialTTL
	}
	return &TrialLimiter{client: client, ttl: ttl}
}

func (l *TrialLimiter) Enabled() bool { return l != nil && l.client != nil }

// Consume marks the guest's trial as used. It reports false when the trial
// had already been used.
func (l *TrialLimiter) Consume(ctx context.Context, guestID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.client.SetNX(ctx, trialKey(guestID), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

func (l *TrialLimiter) Used(ctx context.Context, guestID string) (bool, error) {
	if !l.Enabled() {
		return false, nil
	}
	n, err := l.client.Exists(ctx, trialKey(guestID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func trialKey(guestID string) string {
	return "koru:trial:" + guestID
}

// GuestCache holds explanations generated for guests, who have no stored
// history.
type GuestCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGuestCache(client *redis.Client, ttl time.Duration) *GuestCache {
	if ttl <= 0 {
		ttl = DefaultGuestTTL
	}
	return &GuestCache{client: client, ttl: ttl}
}

func (c *GuestCache) Enabled() bool { return c != nil && c.client != nil }

// GetExplanation returns the cached result; ok is false on a miss.
func (c *GuestCache) GetExplanation(ctx context.Context, guestID, query string) (res models.ExplanationResult, ok bool, err error) {
	if !c.Enabled() {
		return res, false, nil
	}
	raw, err := c.client.Get(ctx, explanationKey(guestID, query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return res, false, nil
	}
	if err != nil {
		return res, false, err
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return res, false, err
	}
	return res, true, nil
}

func (c *GuestCache) SetExplanation(ctx context.Context, guestID, query string, res models.ExplanationResult) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, explanationKey(guestID, query), raw, c.ttl).Err()
}

func explanationKey(guestID, query string) string {
	return "koru:guest:" + guestID + ":explain:" + strings.ToLower(strings.TrimSpace(query))
}

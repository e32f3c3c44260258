package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/koru-backend/models"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestTrialLimiterConsumesOnce(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	l := NewTrialLimiter(client, time.Hour)

	used, err := l.Used(ctx, "guest-1")
	require.NoError(t, err)
	assert.False(t, used)

	ok, err := l.Consume(ctx, "guest-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Consume(ctx, "guest-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Consume(ctx, "guest-2")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, mr.Exists("koru:trial:guest-1"))
	assert.Equal(t, time.Hour, mr.TTL("koru:trial:guest-1"))

	mr.FastForward(2 * time.Hour)
	ok, err = l.Consume(ctx, "guest-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTrialLimiterDisabledWithoutClient(t *testing.T) {
	l := NewTrialLimiter(nil, 0)
	assert.False(t, l.Enabled())

	for i := 0; i < 3; i++ {
		ok, err := l.Consume(context.Background(), "guest")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestGuestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	c := NewGuestCache(client, 0)

	_, ok, err := c.GetExplanation(ctx, "g", "Gravity")
	require.NoError(t, err)
	assert.False(t, ok)

	want := models.ExplanationResult{CleanTopic: "Gravity", Cards: []models.Card{{Title: "A", Content: "B"}}}
	require.NoError(t, c.SetExplanation(ctx, "g", "Gravity", want))

	got, ok, err := c.GetExplanation(ctx, "g", "  gravity ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, ok, err = c.GetExplanation(ctx, "other", "Gravity")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(DefaultGuestTTL + time.Second)
	_, ok, err = c.GetExplanation(ctx, "g", "Gravity")
	require.NoError(t, err)
	assert.False(t, ok)
}

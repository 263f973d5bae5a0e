package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todobot/core/internal/dialog"
	"github.com/todobot/core/internal/infrastructure/config"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestSessionStoreRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	missing, err := store.Load(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, missing)

	categoryID := "cat000000001"
	session := dialog.NewSession(dialog.Identity{ChatID: 1, UserID: 2})
	session.State = dialog.StateCreatePriority
	session.Draft = dialog.Draft{Title: "Buy milk", CategoryID: &categoryID, CategoryName: "Shopping"}
	require.NoError(t, store.Save(ctx, session))

	assert.True(t, mr.Exists("dialog:1:2"))
	assert.Equal(t, time.Hour, mr.TTL("dialog:1:2"))

	loaded, err := store.Load(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, session, loaded)

	mr.FastForward(2 * time.Hour)
	expired, err := store.Load(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestSessionStoreRejectsCorruptValue(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	require.NoError(t, mr.Set("dialog:1:2", "not json"))

	_, err := store.Load(context.Background(), 1, 2)
	assert.Error(t, err)
}

func TestReminderQueueClaimsDueOnce(t *testing.T) {
	_, client := newTestRedis(t)
	queue := NewReminderQueue(client)
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, queue.Schedule(ctx, "early0000001", now.Add(-time.Minute)))
	require.NoError(t, queue.Schedule(ctx, "exact0000001", now))
	require.NoError(t, queue.Schedule(ctx, "later0000001", now.Add(time.Minute)))

	claimed, err := queue.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"early0000001", "exact0000001"}, claimed)

	again, err := queue.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	later, err := queue.ClaimDue(ctx, now.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"later0000001"}, later)
}

func TestReminderQueueRescheduleReplaces(t *testing.T) {
	_, client := newTestRedis(t)
	queue := NewReminderQueue(client)
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, queue.Schedule(ctx, "task00000001", now.Add(-time.Minute)))
	require.NoError(t, queue.Schedule(ctx, "task00000001", now.Add(time.Hour)))

	claimed, err := queue.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestReminderQueueRespectsBatchLimit(t *testing.T) {
	_, client := newTestRedis(t)
	queue := NewReminderQueue(client)
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a00000000001", "a00000000002", "a00000000003"} {
		require.NoError(t, queue.Schedule(ctx, id, now.Add(-time.Duration(3-i)*time.Minute)))
	}

	claimed, err := queue.ClaimDue(ctx, now, 2)
	require.NoError(t, err)
	assert.Len(t, claimed, 2)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{URL: "://nope"})
	assert.Error(t, err)
}

func TestNewClientConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr() + "/1"})
	require.NoError(t, err)
	client.Close()
}

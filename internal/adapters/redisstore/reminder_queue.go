package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/todobot/core/internal/ports"
)

const remindersKey = "reminders"

// ReminderQueue keeps pending reminders in a sorted set scored by fire time
type ReminderQueue struct {
	client *redis.Client
	key    string
}

// NewReminderQueue creates a new reminder queue
func NewReminderQueue(client *redis.Client) ports.ReminderQueue {
	return &ReminderQueue{client: client, key: remindersKey}
}

// Schedule sets the reminder for taskID, replacing any earlier one for the same task
func (q *ReminderQueue) Schedule(ctx context.Context, taskID string, notifyAt time.Time) error {
	err := q.client.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(notifyAt.Unix()),
		Member: taskID,
	}).Err()
	if err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}

	return nil
}

// ClaimDue returns reminders due at or before now. A reminder is returned only to the
// caller whose ZREM removed it, so concurrent workers never fire the same one twice.
func (q *ReminderQueue) ClaimDue(ctx context.Context, now time.Time, limit int64) ([]string, error) {
	candidates, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("load due reminders: %w", err)
	}

	claimed := make([]string, 0, len(candidates))
	for _, taskID := range candidates {
		removed, err := q.client.ZRem(ctx, q.key, taskID).Result()
		if err != nil {
			return claimed, fmt.Errorf("claim reminder: %w", err)
		}
		if removed == 1 {
			claimed = append(claimed, taskID)
		}
	}

	return claimed, nil
}

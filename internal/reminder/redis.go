// Package reminder schedules todo notifications in Redis.
package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/model"
)

// DefaultKey is the sorted set holding pending reminders.
const DefaultKey = "lifesort:reminders"

// RedisScheduler keeps reminders in a sorted set scored by fire time, with
// the reminder bodies in a companion hash.
type RedisScheduler struct {
	rdb redis.Cmdable
	key string
}

// NewRedisScheduler connects to addr and verifies the connection.
func NewRedisScheduler(ctx context.Context, addr, key string) (*RedisScheduler, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}

	return NewScheduler(rdb, key), rdb, nil
}

// NewScheduler wraps an existing redis client.
func NewScheduler(rdb redis.Cmdable, key string) *RedisScheduler {
	if key == "" {
		key = DefaultKey
	}
	return &RedisScheduler{rdb: rdb, key: key}
}

func (s *RedisScheduler) dataKey() string {
	return s.key + ":data"
}

// Schedule queues a reminder, replacing any earlier one with the same id.
func (s *RedisScheduler) Schedule(ctx context.Context, r model.Reminder) error {
	if r.ID == "" {
		return fmt.Errorf("reminder without id: %w", common.ErrInvalidConfig)
	}
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode reminder: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, s.key, redis.Z{Score: score(r.FireAt), Member: r.ID})
		pipe.HSet(ctx, s.dataKey(), r.ID, body)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder %s: %w", r.ID, err)
	}
	return nil
}

// Due returns reminders whose fire time is at or before now, earliest first.
func (s *RedisScheduler) Due(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, s.key, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatFloat(score(now), 'f', -1, 64),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	bodies, err := s.rdb.HMGet(ctx, s.dataKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load reminders: %w", err)
	}

	reminders := make([]model.Reminder, 0, len(bodies))
	for i, raw := range bodies {
		body, ok := raw.(string)
		if !ok {
			// Body lost; keep the id so the caller can still cancel it.
			reminders = append(reminders, model.Reminder{ID: ids[i], RecordID: ids[i]})
			continue
		}
		var r model.Reminder
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("failed to decode reminder %s: %w", ids[i], err)
		}
		reminders = append(reminders, r)
	}
	return reminders, nil
}

// Cancel removes a reminder.
func (s *RedisScheduler) Cancel(ctx context.Context, id string) error {
	var removed *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, s.key, id)
		pipe.HDel(ctx, s.dataKey(), id)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to cancel reminder %s: %w", id, err)
	}
	if removed.Val() == 0 {
		return fmt.Errorf("reminder %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func score(t time.Time) float64 {
	return float64(t.Unix())
}

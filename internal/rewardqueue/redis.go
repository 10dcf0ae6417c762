package rewardqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vocab-amas/internal/types"
)

// RedisQueue is the distributed backend for when the host deploys
// multiple engine processes sharing one reward queue. It mirrors the
// `go-llama` pack repo's redisdb client pattern (key-format constants,
// one context-scoped command per call, no connection pooling beyond
// what *redis.Client already provides) but swaps plain GET/SET for a
// sorted set so due rows can be range-scanned by due_ts.
type RedisQueue struct {
	rdb    *redis.Client
	prefix string
}

const (
	redisZSetFmt  = "%s:reward:due"     // sorted set, member = idempotency key, score = due_ts unix
	redisRowFmt   = "%s:reward:row:%s"  // hash of one row's fields, keyed by idempotency key
	redisSeenTTL  = 30 * 24 * time.Hour // idempotency rows linger a month past delivery
)

// NewRedisQueue wraps an existing client. prefix namespaces keys so
// multiple AMAS deployments can share a Redis instance.
func NewRedisQueue(rdb *redis.Client, prefix string) *RedisQueue {
	return &RedisQueue{rdb: rdb, prefix: prefix}
}

func (q *RedisQueue) zsetKey() string      { return fmt.Sprintf(redisZSetFmt, q.prefix) }
func (q *RedisQueue) rowKey(key string) string { return fmt.Sprintf(redisRowFmt, q.prefix, key) }

func (q *RedisQueue) Enqueue(ctx context.Context, reward types.DelayedReward) error {
	rowKey := q.rowKey(reward.IdempotencyKey)
	exists, err := q.rdb.Exists(ctx, rowKey).Result()
	if err != nil {
		return fmt.Errorf("rewardqueue: check existing row: %w", err)
	}
	if exists > 0 {
		return nil
	}
	payload, err := json.Marshal(reward)
	if err != nil {
		return fmt.Errorf("rewardqueue: marshal row: %w", err)
	}
	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, rowKey, payload, redisSeenTTL)
	pipe.ZAdd(ctx, q.zsetKey(), redis.Z{Score: float64(reward.DueTs.Unix()), Member: reward.IdempotencyKey})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rewardqueue: enqueue: %w", err)
	}
	return nil
}

func (q *RedisQueue) Due(ctx context.Context, now time.Time, limit int) ([]types.DelayedReward, error) {
	opt := &redis.ZRangeBy{
		Min:    "-inf",
		Max:    fmt.Sprintf("%d", now.Unix()),
		Offset: 0,
	}
	if limit > 0 {
		opt.Count = int64(limit)
	}
	keys, err := q.rdb.ZRangeByScore(ctx, q.zsetKey(), opt).Result()
	if err != nil {
		return nil, fmt.Errorf("rewardqueue: zrangebyscore: %w", err)
	}
	out := make([]types.DelayedReward, 0, len(keys))
	for _, key := range keys {
		raw, err := q.rdb.Get(ctx, q.rowKey(key)).Result()
		if err == redis.Nil {
			// Row expired or was purged out from under the zset entry;
			// drop the dangling score so future scans don't retry it.
			q.rdb.ZRem(ctx, q.zsetKey(), key)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("rewardqueue: fetch row %q: %w", key, err)
		}
		var reward types.DelayedReward
		if err := json.Unmarshal([]byte(raw), &reward); err != nil {
			return nil, fmt.Errorf("rewardqueue: unmarshal row %q: %w", key, err)
		}
		if reward.Delivered {
			continue
		}
		out = append(out, reward)
	}
	return out, nil
}

func (q *RedisQueue) MarkDelivered(ctx context.Context, idempotencyKey string) error {
	rowKey := q.rowKey(idempotencyKey)
	raw, err := q.rdb.Get(ctx, rowKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rewardqueue: fetch row %q: %w", idempotencyKey, err)
	}
	var reward types.DelayedReward
	if err := json.Unmarshal([]byte(raw), &reward); err != nil {
		return fmt.Errorf("rewardqueue: unmarshal row %q: %w", idempotencyKey, err)
	}
	reward.Delivered = true
	payload, err := json.Marshal(reward)
	if err != nil {
		return fmt.Errorf("rewardqueue: marshal row %q: %w", idempotencyKey, err)
	}
	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, rowKey, payload, redisSeenTTL)
	pipe.ZRem(ctx, q.zsetKey(), idempotencyKey)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("rewardqueue: mark delivered %q: %w", idempotencyKey, err)
	}
	return nil
}

package rewardqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-amas/internal/types"
)

func TestHeapQueueDueReturnsOldestFirst(t *testing.T) {
	q := NewHeapQueue()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, types.DelayedReward{IdempotencyKey: "c", DueTs: base.Add(2 * time.Minute)}))
	require.NoError(t, q.Enqueue(ctx, types.DelayedReward{IdempotencyKey: "a", DueTs: base}))
	require.NoError(t, q.Enqueue(ctx, types.DelayedReward{IdempotencyKey: "b", DueTs: base.Add(1 * time.Minute)}))

	due, err := q.Due(ctx, base.Add(10*time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{due[0].IdempotencyKey, due[1].IdempotencyKey, due[2].IdempotencyKey})
}

func TestHeapQueueDueExcludesNotYetDue(t *testing.T) {
	q := NewHeapQueue()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, types.DelayedReward{IdempotencyKey: "future", DueTs: base.Add(time.Hour)}))
	require.NoError(t, q.Enqueue(ctx, types.DelayedReward{IdempotencyKey: "now", DueTs: base}))

	due, err := q.Due(ctx, base, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "now", due[0].IdempotencyKey)
}

func TestHeapQueueDueRespectsLimit(t *testing.T) {
	q := NewHeapQueue()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(ctx, types.DelayedReward{IdempotencyKey: string(rune('a' + i)), DueTs: base}))
	}
	due, err := q.Due(ctx, base, 2)
	require.NoError(t, err)
	assert.Len(t, due, 2)
}

func TestHeapQueueEnqueueIsIdempotent(t *testing.T) {
	q := NewHeapQueue()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, types.DelayedReward{IdempotencyKey: "dup", DueTs: base, Reward: 1}))
	require.NoError(t, q.Enqueue(ctx, types.DelayedReward{IdempotencyKey: "dup", DueTs: base, Reward: 99}))

	due, err := q.Due(ctx, base, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1.0, due[0].Reward, "second enqueue with the same idempotency key must not overwrite the first")
}

func TestHeapQueueMarkDeliveredExcludesFromDue(t *testing.T) {
	q := NewHeapQueue()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, types.DelayedReward{IdempotencyKey: "x", DueTs: base}))
	require.NoError(t, q.MarkDelivered(ctx, "x"))

	due, err := q.Due(ctx, base, 0)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestHeapQueueMarkDeliveredUnknownKeyIsNoop(t *testing.T) {
	q := NewHeapQueue()
	assert.NoError(t, q.MarkDelivered(context.Background(), "ghost"))
}

package rewardqueue

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"vocab-amas/internal/types"
)

// HeapQueue is the default single-process backend: an in-memory
// min-heap ordered by due_ts, guarded by a mutex. No library in the
// pack implements a delayed/priority queue; container/heap is the
// stdlib building block every Go priority-queue example (including the
// standard library's own documentation) is built on, so this one entry
// point stays on stdlib rather than reach for an unrelated dependency
// -- see DESIGN.md.
type HeapQueue struct {
	mu    sync.Mutex
	items rewardHeap
	byKey map[string]*rewardItem
}

type rewardItem struct {
	reward types.DelayedReward
	index  int
}

type rewardHeap []*rewardItem

func (h rewardHeap) Len() int { return len(h) }
func (h rewardHeap) Less(i, j int) bool {
	return h[i].reward.DueTs.Before(h[j].reward.DueTs)
}
func (h rewardHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *rewardHeap) Push(x interface{}) {
	item := x.(*rewardItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *rewardHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// NewHeapQueue returns an empty heap-backed queue.
func NewHeapQueue() *HeapQueue {
	return &HeapQueue{byKey: make(map[string]*rewardItem)}
}

func (q *HeapQueue) Enqueue(ctx context.Context, reward types.DelayedReward) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.byKey[reward.IdempotencyKey]; exists {
		return nil
	}
	item := &rewardItem{reward: reward}
	q.byKey[reward.IdempotencyKey] = item
	heap.Push(&q.items, item)
	return nil
}

func (q *HeapQueue) Due(ctx context.Context, now time.Time, limit int) ([]types.DelayedReward, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	// The heap's backing slice is only heap-ordered (root is the
	// minimum), not fully sorted, so due rows are collected then
	// sorted by due_ts to honor "oldest first".
	candidates := make([]*rewardItem, 0, len(q.items))
	for _, item := range q.items {
		if item.reward.Delivered || item.reward.DueTs.After(now) {
			continue
		}
		candidates = append(candidates, item)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].reward.DueTs.Before(candidates[j].reward.DueTs)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]types.DelayedReward, len(candidates))
	for i, item := range candidates {
		out[i] = item.reward
	}
	return out, nil
}

func (q *HeapQueue) MarkDelivered(ctx context.Context, idempotencyKey string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.byKey[idempotencyKey]
	if !ok {
		return nil
	}
	item.reward.Delivered = true
	return nil
}

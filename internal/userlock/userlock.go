// Package userlock provides per-user serialization for the decision
// pipeline (spec.md §5: "concurrent requests for the same user queue
// behind a fair per-user lock to preserve trace ordering and posterior
// update causality. Cross-user requests run in parallel unbounded by
// that lock."). Table shards a user's lock across N independently
// lockable buckets instead of the teacher's single process-global
// `sync.RWMutex` (internal/storage/memory.go), per spec.md §9's
// redesign note that a process-global mutex would serialize every
// user's decisions behind one another.
package userlock

import (
	"hash/fnv"
	"sync"
)

// Table is a sharded mutex keyed by user id.
type Table struct {
	shards []sync.Mutex
}

// New builds a table with n shards. n is clamped to at least 1.
func New(n int) *Table {
	if n <= 0 {
		n = 1
	}
	return &Table{shards: make([]sync.Mutex, n)}
}

func (t *Table) shardFor(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	idx := int(h.Sum32()) % len(t.shards)
	if idx < 0 {
		idx += len(t.shards)
	}
	return &t.shards[idx]
}

// Lock acquires the shard guarding userID. Two different user ids that
// happen to hash to the same shard will serialize against each other
// too -- an accepted, tunable collision cost in exchange for bounded
// memory, rather than one lock per user id ever seen.
func (t *Table) Lock(userID string) {
	t.shardFor(userID).Lock()
}

// Unlock releases the shard guarding userID.
func (t *Table) Unlock(userID string) {
	t.shardFor(userID).Unlock()
}

// WithLock runs fn while holding userID's shard lock.
func (t *Table) WithLock(userID string, fn func()) {
	t.Lock(userID)
	defer t.Unlock(userID)
	fn()
}

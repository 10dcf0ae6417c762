// Package confusion implements the confusion cache (spec.md §3, §4.7):
// a read-only-at-request-time lookup of semantically confusable word
// pairs used to build distractor option pools. Two interchangeable
// stores satisfy the same Cache interface: GraphCache (default,
// in-memory, grounded on the teacher's Graph-of-Thoughts vertex/edge
// model) and VectorCache (optional, nearest-neighbor lookup over
// embeddings when the deployment has them).
package confusion

import "context"

// Pair is one confusable neighbor of a word, as returned by a batch
// lookup (spec.md §6 "find_confusable_batch" hook).
type Pair struct {
	OtherID  string
	Distance float64 // [0,1], lower = more confusable
}

// Cache is the confusion-cache hook spec.md §6 and §4.7 depend on.
// Implementations never return a word paired against itself; a
// self-pair surfacing here is an integrity violation the caller should
// drop with a warning rather than fail the request (spec.md §7
// IntegrityError).
type Cache interface {
	FindConfusableBatch(ctx context.Context, wordIDs []string, distanceThreshold float64, perWordLimit int) (map[string][]Pair, error)
}

package confusion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dominikbraun/graph"

	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/obslog"
	"vocab-amas/internal/types"
)

func vertexHash(id string) string { return id }

// GraphCache is the default confusion store: an in-memory undirected
// weighted graph of word vertices, generalized from the teacher's
// Graph-of-Thoughts controller (internal/modes/graph.go), which threads
// a dominikbraun/graph structural graph alongside an out-of-band map
// carrying the domain-specific edge payload (there ThoughtEdge.Weight,
// here the confusion distance). Safe for concurrent use.
type GraphCache struct {
	mu    sync.RWMutex
	g     graph.Graph[string, string]
	pairs map[string]types.ConfusionPair // keyed by pairKey(a, b)
}

// NewGraphCache returns an empty confusability graph.
func NewGraphCache() *GraphCache {
	return &GraphCache{
		g:     graph.New(vertexHash, graph.Undirected()),
		pairs: make(map[string]types.ConfusionPair),
	}
}

// NewGraphCacheFromPairs seeds a graph from a previously persisted set
// of confusion pairs (e.g. loaded from storage at startup).
func NewGraphCacheFromPairs(pairs []types.ConfusionPair) (*GraphCache, error) {
	c := NewGraphCache()
	for _, p := range pairs {
		if err := c.AddPair(context.Background(), p.WordA, p.WordB, p.Distance); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (c *GraphCache) ensureVertex(id string) error {
	err := c.g.AddVertex(id)
	if err == nil || errors.Is(err, graph.ErrVertexAlreadyExists) {
		return nil
	}
	return err
}

// AddPair records a symmetric confusable relationship. distance should
// be in [0,1]; lower means more confusable.
func (c *GraphCache) AddPair(ctx context.Context, wordA, wordB string, distance float64) error {
	if wordA == wordB {
		return amaserr.Integrity("confusion pair %q references itself", wordA)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureVertex(wordA); err != nil {
		return fmt.Errorf("confusion cache: add vertex %q: %w", wordA, err)
	}
	if err := c.ensureVertex(wordB); err != nil {
		return fmt.Errorf("confusion cache: add vertex %q: %w", wordB, err)
	}

	key := pairKey(wordA, wordB)
	if _, exists := c.pairs[key]; !exists {
		if err := c.g.AddEdge(wordA, wordB); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return fmt.Errorf("confusion cache: add edge %s-%s: %w", wordA, wordB, err)
		}
	}
	c.pairs[key] = types.ConfusionPair{WordA: wordA, WordB: wordB, Distance: distance}
	return nil
}

// RemovePair drops a previously recorded confusable relationship.
func (c *GraphCache) RemovePair(wordA, wordB string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := pairKey(wordA, wordB)
	if _, exists := c.pairs[key]; !exists {
		return
	}
	delete(c.pairs, key)
	_ = c.g.RemoveEdge(wordA, wordB)
}

// FindConfusableBatch implements the Cache interface over the graph
// store (spec.md §6, §4.7 step 7).
func (c *GraphCache) FindConfusableBatch(ctx context.Context, wordIDs []string, distanceThreshold float64, perWordLimit int) (map[string][]Pair, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	adj, err := c.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("confusion cache: adjacency map: %w", err)
	}

	out := make(map[string][]Pair, len(wordIDs))
	for _, id := range wordIDs {
		edges, ok := adj[id]
		if !ok {
			out[id] = nil
			continue
		}

		candidates := make([]Pair, 0, len(edges))
		for other := range edges {
			if other == id {
				obslog.Warnf(ctx, "confusion cache: word %q confusable with itself, skipped", id)
				continue
			}
			pair, ok := c.pairs[pairKey(id, other)]
			if !ok {
				continue
			}
			if pair.Distance <= distanceThreshold {
				candidates = append(candidates, Pair{OtherID: other, Distance: pair.Distance})
			}
		}

		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].Distance != candidates[j].Distance {
				return candidates[i].Distance < candidates[j].Distance
			}
			return candidates[i].OtherID < candidates[j].OtherID
		})
		if perWordLimit > 0 && len(candidates) > perWordLimit {
			candidates = candidates[:perWordLimit]
		}
		out[id] = candidates
	}
	return out, nil
}

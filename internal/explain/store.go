// Package explain implements the Explainability Recorder (spec.md
// §4.9): persists each decision's DecisionTrace and serves get/timeline/
// counterfactual queries over it.
package explain

import (
	"context"
	"sort"
	"sync"

	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/types"
)

// Store is the persistence port; InMemoryStore is the default backend,
// mirroring the teacher's EpisodicMemoryStore (internal/memory) shape --
// one map keyed by record id plus a per-subject index -- generalized
// from reasoning trajectories keyed by session to decision traces keyed
// by user. internal/storage's SQLite backend implements the same
// interface for durability across restarts.
type Store interface {
	Record(ctx context.Context, trace types.DecisionTrace) error
	Get(ctx context.Context, decisionID string) (types.DecisionTrace, error)
	// Timeline returns up to limit traces for userID, newest first,
	// starting strictly after cursor (the decision_id last seen by the
	// caller; empty cursor starts at the newest trace). nextCursor is
	// empty when there are no more pages.
	Timeline(ctx context.Context, userID string, cursor string, limit int) (traces []types.DecisionTrace, nextCursor string, err error)
}

// InMemoryStore is the default Store backend.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]types.DecisionTrace
	byUser map[string][]string // decision ids for that user, insertion order
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[string]types.DecisionTrace),
		byUser: make(map[string][]string),
	}
}

func (s *InMemoryStore) Record(ctx context.Context, trace types.DecisionTrace) error {
	if trace.DecisionID == "" {
		return amaserr.Validation("decision trace missing decision_id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[trace.DecisionID]; !exists {
		s.byUser[trace.UserID] = append(s.byUser[trace.UserID], trace.DecisionID)
	}
	s.byID[trace.DecisionID] = trace
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, decisionID string) (types.DecisionTrace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trace, ok := s.byID[decisionID]
	if !ok {
		return types.DecisionTrace{}, amaserr.NotFound("decision %q not found", decisionID)
	}
	return trace, nil
}

func (s *InMemoryStore) Timeline(ctx context.Context, userID string, cursor string, limit int) ([]types.DecisionTrace, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	traces := make([]types.DecisionTrace, 0, len(ids))
	for _, id := range ids {
		traces = append(traces, s.byID[id])
	}
	sort.Slice(traces, func(i, j int) bool {
		if !traces[i].Ts.Equal(traces[j].Ts) {
			return traces[i].Ts.After(traces[j].Ts)
		}
		return traces[i].DecisionID > traces[j].DecisionID
	})

	start := 0
	if cursor != "" {
		found := false
		for i, t := range traces {
			if t.DecisionID == cursor {
				start = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, "", amaserr.Validation("unknown timeline cursor %q", cursor)
		}
	}
	if start >= len(traces) {
		return nil, "", nil
	}

	end := len(traces)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	page := traces[start:end]

	nextCursor := ""
	if end < len(traces) {
		nextCursor = page[len(page)-1].DecisionID
	}
	return page, nextCursor, nil
}

// Package coldstart implements the Cold-Start Manager (spec.md §4.3):
// the three-phase life cycle (Classify -> Explore -> Normal) that gates
// which strategy members are consulted and how much the ensemble trusts
// learned weights versus the heuristic fallback.
package coldstart

import (
	"sync"

	"vocab-amas/internal/types"
)

const (
	// classifyCeiling is the exclusive upper bound on lifetime
	// interaction count N for the Classify phase.
	classifyCeiling = 5
	// exploreCeiling is the exclusive upper bound on N for Explore;
	// N >= exploreCeiling is Normal.
	exploreCeiling = 8
)

// DerivePhase maps a lifetime interaction count to its cold-start phase
// (spec.md §4.3). Pure function, no caching.
func DerivePhase(n int) types.ColdStartPhase {
	switch {
	case n < classifyCeiling:
		return types.PhaseClassify
	case n < exploreCeiling:
		return types.PhaseExplore
	default:
		return types.PhaseNormal
	}
}

// Transition records a cached phase change for one user, which the
// caller turns into a DecisionTrace stage event (spec.md §4.3 "fire a
// trace event").
type Transition struct {
	UserID string
	From   types.ColdStartPhase
	To     types.ColdStartPhase
}

// Manager caches the last-seen phase per user so repeated calls with
// the same N don't re-fire transition events, and so callers needing
// "did this user's phase just change" don't recompute it from scratch
// every decision.
type Manager struct {
	mu    sync.RWMutex
	cache map[string]types.ColdStartPhase
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{cache: make(map[string]types.ColdStartPhase)}
}

// Phase returns the cached phase for userID, deriving and caching one
// from n if none is cached yet. The returned Transition is non-nil only
// when the phase actually changed (including the initial derivation,
// which transitions from the empty string).
func (m *Manager) Phase(userID string, n int) (types.ColdStartPhase, *Transition) {
	next := DerivePhase(n)

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.cache[userID]
	m.cache[userID] = next

	if !ok {
		return next, &Transition{UserID: userID, From: "", To: next}
	}
	if prev == next {
		return next, nil
	}
	return next, &Transition{UserID: userID, From: prev, To: next}
}

// Peek returns the cached phase without deriving or caching a new one.
// ok is false if the user has never been seen by Phase.
func (m *Manager) Peek(userID string) (phase types.ColdStartPhase, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	phase, ok = m.cache[userID]
	return
}

// Forget drops a user's cached phase, e.g. on account deletion.
func (m *Manager) Forget(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, userID)
}

// Gate describes which members a phase consults and how the ensemble
// should weight learned posteriors versus exploration (spec.md §4.3).
type Gate struct {
	Phase             types.ColdStartPhase
	ConsultMembers    []types.MemberID
	UpdatePosteriors  bool
	ElevatedEpsilon   bool
	Source            types.DecisionSource
}

// GateFor returns the consultation gate for a phase.
func GateFor(phase types.ColdStartPhase) Gate {
	switch phase {
	case types.PhaseClassify:
		return Gate{
			Phase:            phase,
			ConsultMembers:   []types.MemberID{types.MemberHeuristic},
			UpdatePosteriors: false,
			ElevatedEpsilon:  false,
			Source:           types.SourceColdStart,
		}
	case types.PhaseExplore:
		return Gate{
			Phase: phase,
			ConsultMembers: []types.MemberID{
				types.MemberThompson, types.MemberLinUCB, types.MemberACTR, types.MemberHeuristic,
			},
			UpdatePosteriors: true,
			ElevatedEpsilon:  true,
			Source:           types.SourceEnsemble,
		}
	default:
		return Gate{
			Phase: types.PhaseNormal,
			ConsultMembers: []types.MemberID{
				types.MemberThompson, types.MemberLinUCB, types.MemberACTR, types.MemberHeuristic,
			},
			UpdatePosteriors: true,
			ElevatedEpsilon:  false,
			Source:           types.SourceEnsemble,
		}
	}
}

// Package members implements the four Strategy Members (spec.md §4.4):
// Thompson-sampling bandit, LinUCB, an ACT-R-driven selector, and a
// deterministic heuristic. Every member receives the same Context and
// returns a MemberVote; the Ensemble Coordinator (internal/ensemble)
// combines their votes into one StrategyParams.
package members

import "vocab-amas/internal/types"

// Context bundles everything a member may read to propose a strategy.
// CurrentParams lets a member that only controls one or two fields
// (e.g. Thompson controls difficulty and new_ratio) leave the rest
// untouched rather than guessing defaults.
type Context struct {
	State          types.UserState
	ContextFeature float64 // a single scalar in [0,1] used for context discretization (Thompson) and the context vector (LinUCB); canonically State.Conf unless overridden by the caller
	CurrentParams  types.StrategyParams
}

// Member is the closed set of strategy proposers (spec.md §4.4). There
// are exactly four implementations; callers type-switch on ID() when
// they need member-specific behavior (e.g. routing a reward to the
// right posterior update).
type Member interface {
	ID() types.MemberID
	Propose(ctx Context) types.MemberVote
}

// newRatioBounds mirror types.StrategyParams.Clamp's declared range.
const (
	newRatioMin = 0.05
	newRatioMax = 0.6
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package members

import (
	"vocab-amas/internal/actr"
	"vocab-amas/internal/types"
)

// ACTRMember scores candidate strategies by how well they fit the
// user's predicted recall curve (spec.md §4.4): higher stability and
// memory shift toward harder/larger batches, higher fatigue toward
// easier/smaller ones. It consumes internal/actr's personalized-decay
// and recall-probability model rather than reimplementing it.
type ACTRMember struct {
	BaseDecay       float64
	TargetRetention float64
}

// NewACTRMember builds a member with the documented defaults (decay
// 0.5, target retention 0.9); callers may override per deployment.
func NewACTRMember() *ACTRMember {
	return &ACTRMember{BaseDecay: 0.5, TargetRetention: 0.9}
}

func (m *ACTRMember) ID() types.MemberID { return types.MemberACTR }

func (m *ACTRMember) Propose(ctx Context) types.MemberVote {
	decay := actr.PersonalizedDecay(m.BaseDecay, ctx.State.Cognitive)

	action := ctx.CurrentParams

	// Mem and stability push toward a harder, larger-batch strategy;
	// fatigue pulls the other way. Weighted sum stays in roughly
	// [-1, 1] given each input is already in [0,1]/[-1,1].
	loadCapacity := 0.4*ctx.State.Cognitive.Mem + 0.3*ctx.State.Cognitive.Stability - 0.5*ctx.State.EffectiveFatigue()

	switch {
	case loadCapacity > 0.15:
		action.Difficulty = types.DifficultyHard
	case loadCapacity < -0.15:
		action.Difficulty = types.DifficultyEasy
	default:
		action.Difficulty = types.DifficultyMid
	}

	action.BatchSize = int(clamp(float64(action.BatchSize)+loadCapacity*6, 4, 20))

	// A more stable, slower-decaying learner can tolerate a longer
	// interval; decay is already personalized so this reads directly
	// off it relative to the base.
	action.IntervalScale = clamp(action.IntervalScale*(m.BaseDecay/decay), 0.6, 1.6)

	action.Clamp()

	// Confidence tracks how far decay moved from the population
	// baseline: a well-characterized user (decay far from base) is one
	// ACT-R has more to say about.
	confidence := clamp(0.4+2*absFloat(decay-m.BaseDecay), 0.3, 0.95)

	return types.MemberVote{
		MemberID:   types.MemberACTR,
		Action:     action,
		Confidence: confidence,
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

package members

import "vocab-amas/internal/types"

// Heuristic is the deterministic rule-based member (spec.md §4.4):
// always available, always reports high confidence under uncertainty
// since it has no posteriors to be unsure about. It is the only member
// consulted during the Classify cold-start phase (internal/coldstart).
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) ID() types.MemberID { return types.MemberHeuristic }

func (h *Heuristic) Propose(ctx Context) types.MemberVote {
	state := ctx.State
	fatigue := state.EffectiveFatigue()

	action := ctx.CurrentParams

	switch {
	case fatigue > 0.75:
		action.Difficulty = types.DifficultyEasy
	case state.Attention > 0.75 && state.Motivation > 0.2:
		action.Difficulty = types.DifficultyHard
	default:
		action.Difficulty = types.DifficultyMid
	}

	batch := 8 + 3*state.Motivation - 2.5*fatigue
	action.BatchSize = int(clamp(round(batch), 4, 20))

	if fatigue > 0.6 {
		action.HintLevel = 2
	} else if fatigue > 0.35 {
		action.HintLevel = 1
	} else {
		action.HintLevel = 0
	}

	action.Clamp()

	return types.MemberVote{
		MemberID:   types.MemberHeuristic,
		Action:     action,
		Confidence: 0.9,
	}
}

func round(v float64) float64 {
	if v >= 0 {
		return float64(int(v + 0.5))
	}
	return float64(int(v - 0.5))
}

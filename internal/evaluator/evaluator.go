// Package evaluator implements the Multi-Objective Evaluator (spec.md
// §4.6): scores a candidate StrategyParams on short-term accuracy,
// long-term recall, and session efficiency, then repairs it if it
// would violate a configured safety constraint.
package evaluator

import "vocab-amas/internal/types"

// Weights are the sub-score aggregation coefficients. Defaults favor
// short- and long-term learning outcomes over raw throughput, since
// spec.md §4.6 leaves the exact split to the implementation.
type Weights struct {
	ShortTerm  float64
	LongTerm   float64
	Efficiency float64
}

// DefaultWeights sum to 1; the aggregate score is directly comparable
// to any individual sub-score's own [0,1] range.
func DefaultWeights() Weights {
	return Weights{ShortTerm: 0.4, LongTerm: 0.4, Efficiency: 0.2}
}

// Constraints are spec.md §4.6's documented safety bounds.
type Constraints struct {
	MaxFatigueAfter   float64
	MinAttentionAfter float64
	MaxNewRatio       float64
}

// DefaultConstraints matches spec.md §4.6 verbatim.
func DefaultConstraints() Constraints {
	return Constraints{MaxFatigueAfter: 0.85, MinAttentionAfter: 0.3, MaxNewRatio: 0.6}
}

// Score bundles the three sub-scores and their aggregate.
type Score struct {
	ShortTerm  float64
	LongTerm   float64
	Efficiency float64
	Total      float64
}

// Result is the evaluator's full output (spec.md §4.6): the original
// candidate, its score, whether it violated a constraint, and -- when
// it did -- the repaired strategy that satisfies them.
type Result struct {
	Candidate             types.StrategyParams
	Score                 Score
	ConstraintsSatisfied  bool
	Repaired              types.StrategyParams
	ViolatedConstraints   []string
}

// Inputs bundles the per-member signals the sub-scores are derived
// from, so the evaluator itself stays free of a dependency on the
// concrete member implementations.
type Inputs struct {
	// ShortTermAccuracy is LinUCB's predicted-reward estimate for this
	// candidate (members.LinUCB.PredictedReward).
	ShortTermAccuracy float64
	// LongTermRecall is ACT-R's recall probability at the candidate's
	// implied review interval (actr.Result.RecallProbability).
	LongTermRecall float64
}

// Evaluate scores candidate and repairs it if needed.
func Evaluate(state types.UserState, candidate types.StrategyParams, in Inputs, w Weights, c Constraints) Result {
	score := score(candidate, in, w)

	violations := violations(state, candidate, c)
	if len(violations) == 0 {
		return Result{Candidate: candidate, Score: score, ConstraintsSatisfied: true, Repaired: candidate}
	}

	repaired := repair(state, candidate, c)
	return Result{
		Candidate:            candidate,
		Score:                score,
		ConstraintsSatisfied: false,
		Repaired:             repaired,
		ViolatedConstraints:  violations,
	}
}

func score(candidate types.StrategyParams, in Inputs, w Weights) Score {
	efficiency := efficiencyScore(candidate)
	short := types.Clamp01(in.ShortTermAccuracy)
	long := types.Clamp01(in.LongTermRecall)
	total := w.ShortTerm*short + w.LongTerm*long + w.Efficiency*efficiency
	return Score{ShortTerm: short, LongTerm: long, Efficiency: efficiency, Total: total}
}

// efficiencyScore is a heuristic over batch_size and interval_scale:
// more words per batch and a shorter relative interval both raise
// expected words mastered per minute, normalized against the largest
// plausible value of the same ratio.
func efficiencyScore(s types.StrategyParams) float64 {
	const minutesPerWord = 1.5
	raw := float64(s.BatchSize) / (s.IntervalScale * minutesPerWord)
	const maxPlausible = 20.0 / (0.6 * minutesPerWord) // batch_size=20, interval_scale at its floor
	return types.Clamp01(raw / maxPlausible)
}

// difficultyLoad approximates the cognitive cost per word of a
// difficulty tier, used to project post-session fatigue/attention.
func difficultyLoad(d types.DifficultyLevel) float64 {
	switch d {
	case types.DifficultyEasy:
		return 0.7
	case types.DifficultyHard:
		return 1.4
	default:
		return 1.0
	}
}

func fatigueAfter(state types.UserState, s types.StrategyParams) float64 {
	load := 0.01 * float64(s.BatchSize) * difficultyLoad(s.Difficulty)
	relief := 0.05 * (s.IntervalScale - 1)
	return types.Clamp01(state.EffectiveFatigue() + load - relief)
}

func attentionAfter(state types.UserState, s types.StrategyParams) float64 {
	drain := 0.005 * float64(s.BatchSize) * difficultyLoad(s.Difficulty)
	return types.Clamp01(state.Attention - drain)
}

func violations(state types.UserState, s types.StrategyParams, c Constraints) []string {
	var out []string
	if fatigueAfter(state, s) > c.MaxFatigueAfter {
		out = append(out, "fatigue_after")
	}
	if attentionAfter(state, s) < c.MinAttentionAfter {
		out = append(out, "attention_after")
	}
	if s.NewRatio > c.MaxNewRatio {
		out = append(out, "new_ratio")
	}
	return out
}

// repair clamps the offending fields toward safety and re-checks,
// preferring to shrink batch_size (the lever shared by both fatigue and
// attention constraints) before downgrading difficulty, and always
// clamping new_ratio directly (spec.md §4.6's "repair step").
func repair(state types.UserState, s types.StrategyParams, c Constraints) types.StrategyParams {
	repaired := s

	if repaired.NewRatio > c.MaxNewRatio {
		repaired.NewRatio = c.MaxNewRatio
	}

	for repaired.BatchSize > 4 &&
		(fatigueAfter(state, repaired) > c.MaxFatigueAfter || attentionAfter(state, repaired) < c.MinAttentionAfter) {
		repaired.BatchSize--
	}

	if fatigueAfter(state, repaired) > c.MaxFatigueAfter || attentionAfter(state, repaired) < c.MinAttentionAfter {
		repaired.Difficulty = downgrade(repaired.Difficulty)
	}

	repaired.Clamp()
	return repaired
}

func downgrade(d types.DifficultyLevel) types.DifficultyLevel {
	switch d {
	case types.DifficultyHard:
		return types.DifficultyMid
	default:
		return types.DifficultyEasy
	}
}

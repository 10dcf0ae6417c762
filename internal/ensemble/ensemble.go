// Package ensemble implements the Ensemble Coordinator (spec.md §4.5):
// confidence-weighted combination of the Strategy Members' votes into
// one final StrategyParams, plus the weights and votes the
// Explainability Recorder needs to reconstruct why.
package ensemble

import (
	"sort"

	"vocab-amas/internal/types"
)

// BaseWeights are the documented per-phase starting weights (spec.md
// §4.5's "Normal: thompson 0.25, linucb 0.40, actr 0.25, heuristic
// 0.10" example, generalized to all three phases). Explore keeps the
// same learned mix since the cold-start gate already handles its
// exploration behavior via elevated epsilon upstream; Classify only
// ever has a heuristic vote to combine, so its table is moot but kept
// complete for callers that combine across all phases generically.
var BaseWeights = map[types.ColdStartPhase]types.EnsembleWeights{
	types.PhaseClassify: {
		types.MemberHeuristic: 1.0,
	},
	types.PhaseExplore: {
		types.MemberThompson:  0.25,
		types.MemberLinUCB:    0.40,
		types.MemberACTR:      0.25,
		types.MemberHeuristic: 0.10,
	},
	types.PhaseNormal: {
		types.MemberThompson:  0.25,
		types.MemberLinUCB:    0.40,
		types.MemberACTR:      0.25,
		types.MemberHeuristic: 0.10,
	},
}

// Result is the coordinator's output: the combined strategy plus the
// weights and votes that produced it, ready to be stamped onto a
// DecisionTrace.
type Result struct {
	Strategy types.StrategyParams
	Weights  types.EnsembleWeights
	Votes    []types.MemberVote
}

// Combine applies spec.md §4.5 steps 1-4: multiply each phase base
// weight by the voting member's confidence, renormalize, then combine
// each strategy field by weighted mode (categorical) or weighted mean
// (numeric). votes must be non-empty; missing members simply don't
// contribute (their base weight mass is dropped before renormalizing).
func Combine(phase types.ColdStartPhase, votes []types.MemberVote) Result {
	return CombineWithBaseWeights(BaseWeights[phase], votes)
}

// CombineWithBaseWeights is Combine with the phase base weights
// supplied directly rather than looked up by phase, so a caller can
// substitute an overridden weight table -- the Explainability
// Recorder's counterfactual query uses this to re-run the coordinator
// with modified weights without touching BaseWeights itself (spec.md
// §4.9 "re-runs sections 4.2-4.6 ... with modified inputs/weights").
func CombineWithBaseWeights(base types.EnsembleWeights, votes []types.MemberVote) Result {
	weights := make(types.EnsembleWeights, len(votes))

	byMember := make(map[types.MemberID]types.MemberVote, len(votes))
	for _, v := range votes {
		byMember[v.MemberID] = v
		w, ok := base[v.MemberID]
		if !ok {
			w = 0
		}
		weights[v.MemberID] = w * v.Confidence
	}
	weights.Normalize()

	// Stamp each vote's final fused contribution for the trace.
	finalVotes := make([]types.MemberVote, 0, len(votes))
	for _, v := range votes {
		v.Contribution = weights[v.MemberID]
		finalVotes = append(finalVotes, v)
	}
	sort.Slice(finalVotes, func(i, j int) bool { return finalVotes[i].MemberID < finalVotes[j].MemberID })

	strategy := combineStrategy(weights, byMember)

	return Result{Strategy: strategy, Weights: weights, Votes: finalVotes}
}

func combineStrategy(weights types.EnsembleWeights, byMember map[types.MemberID]types.MemberVote) types.StrategyParams {
	var out types.StrategyParams

	out.IntervalScale = weightedMean(weights, byMember, func(a types.StrategyParams) float64 { return a.IntervalScale })
	out.NewRatio = weightedMean(weights, byMember, func(a types.StrategyParams) float64 { return a.NewRatio })
	out.BatchSize = int(weightedMean(weights, byMember, func(a types.StrategyParams) float64 { return float64(a.BatchSize) }) + 0.5)

	out.Difficulty = weightedModeDifficulty(weights, byMember)
	out.HintLevel = weightedModeHintLevel(weights, byMember)

	out.Clamp()
	return out
}

func weightedMean(weights types.EnsembleWeights, byMember map[types.MemberID]types.MemberVote, field func(types.StrategyParams) float64) float64 {
	var sum, totalWeight float64
	for id, w := range weights {
		if w <= 0 {
			continue
		}
		sum += w * field(byMember[id].Action)
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

func weightedModeDifficulty(weights types.EnsembleWeights, byMember map[types.MemberID]types.MemberVote) types.DifficultyLevel {
	mass := map[types.DifficultyLevel]float64{}
	for id, w := range weights {
		mass[byMember[id].Action.Difficulty] += w
	}
	return bestCategorical(mass, weights, byMember, func(v types.MemberVote) types.DifficultyLevel { return v.Action.Difficulty })
}

func weightedModeHintLevel(weights types.EnsembleWeights, byMember map[types.MemberID]types.MemberVote) int {
	mass := map[int]float64{}
	for id, w := range weights {
		mass[byMember[id].Action.HintLevel] += w
	}
	return bestCategorical(mass, weights, byMember, func(v types.MemberVote) int { return v.Action.HintLevel })
}

// bestCategorical picks the category with the most weight mass,
// breaking ties lexicographically on the member id of the first voter
// for that category (spec.md §4.5 "stable tie-break on member id").
func bestCategorical[C comparable](mass map[C]float64, weights types.EnsembleWeights, byMember map[types.MemberID]types.MemberVote, get func(types.MemberVote) C) C {
	ids := make([]types.MemberID, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var best C
	bestMass := -1.0
	seen := map[C]bool{}
	for _, id := range ids {
		cat := get(byMember[id])
		if seen[cat] {
			continue
		}
		seen[cat] = true
		if m := mass[cat]; m > bestMass {
			bestMass = m
			best = cat
		}
	}
	return best
}

package explain

import (
	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/ensemble"
	"vocab-amas/internal/evaluator"
	"vocab-amas/internal/members"
	"vocab-amas/internal/types"
)

// CounterfactualRequest bundles the "latest state but modified
// inputs/weights" spec.md §4.9 describes. Phase and State are taken as
// given (the caller already has them from coldstart.Manager.Peek and
// the current UserState) rather than re-run, since a counterfactual
// asks "what if the downstream decision used different weights", not
// "what if a new event had arrived."
type CounterfactualRequest struct {
	State          types.UserState
	Phase          types.ColdStartPhase
	ContextFeature float64
	CurrentParams  types.StrategyParams
	Members        []members.Member

	// WeightOverrides replaces ensemble.BaseWeights[Phase] when set.
	WeightOverrides types.EnsembleWeights
	// EvaluatorWeights/EvaluatorConstraints replace evaluator defaults
	// when set; nil means DefaultWeights()/DefaultConstraints().
	EvaluatorWeights     *evaluator.Weights
	EvaluatorConstraints *evaluator.Constraints
	EvaluatorInputs      evaluator.Inputs

	// Baseline is the strategy actually chosen by the original decision
	// (from its DecisionTrace), used to compute Delta below.
	Baseline types.StrategyParams
}

// StrategyDelta is the counterfactual-vs-actual comparison spec.md
// §4.9 calls "the delta strategy". Numeric fields are signed
// differences (hypothetical minus baseline); Difficulty has no
// natural numeric delta so both values are reported instead.
type StrategyDelta struct {
	IntervalScale    float64
	NewRatio         float64
	BatchSize        int
	HintLevel        int
	DifficultyChanged bool
	BaselineDifficulty types.DifficultyLevel
	HypotheticalDifficulty types.DifficultyLevel
}

// CounterfactualResult is the full re-run output: the member votes and
// fused weights that produced it, the evaluator's verdict, and the
// delta against the baseline strategy.
type CounterfactualResult struct {
	Votes      []types.MemberVote
	Weights    types.EnsembleWeights
	Evaluation evaluator.Result
	Strategy   types.StrategyParams
	Delta      StrategyDelta
}

// Counterfactual re-runs spec.md §4.4-4.6 (Strategy Members through the
// Multi-Objective Evaluator) with the supplied overrides and returns the
// result without persisting a DecisionTrace.
func Counterfactual(req CounterfactualRequest) (CounterfactualResult, error) {
	if len(req.Members) == 0 {
		return CounterfactualResult{}, amaserr.Validation("counterfactual request needs at least one member")
	}

	ctx := members.Context{
		State:          req.State,
		ContextFeature: req.ContextFeature,
		CurrentParams:  req.CurrentParams,
	}
	votes := make([]types.MemberVote, 0, len(req.Members))
	for _, m := range req.Members {
		votes = append(votes, m.Propose(ctx))
	}

	base := req.WeightOverrides
	if base == nil {
		base = ensemble.BaseWeights[req.Phase]
	}
	combined := ensemble.CombineWithBaseWeights(base, votes)

	w := evaluator.DefaultWeights()
	if req.EvaluatorWeights != nil {
		w = *req.EvaluatorWeights
	}
	c := evaluator.DefaultConstraints()
	if req.EvaluatorConstraints != nil {
		c = *req.EvaluatorConstraints
	}
	evalResult := evaluator.Evaluate(req.State, combined.Strategy, req.EvaluatorInputs, w, c)

	final := evalResult.Repaired
	return CounterfactualResult{
		Votes:      combined.Votes,
		Weights:    combined.Weights,
		Evaluation: evalResult,
		Strategy:   final,
		Delta:      strategyDelta(req.Baseline, final),
	}, nil
}

func strategyDelta(baseline, hypothetical types.StrategyParams) StrategyDelta {
	return StrategyDelta{
		IntervalScale:          hypothetical.IntervalScale - baseline.IntervalScale,
		NewRatio:               hypothetical.NewRatio - baseline.NewRatio,
		BatchSize:              hypothetical.BatchSize - baseline.BatchSize,
		HintLevel:              hypothetical.HintLevel - baseline.HintLevel,
		DifficultyChanged:      hypothetical.Difficulty != baseline.Difficulty,
		BaselineDifficulty:     baseline.Difficulty,
		HypotheticalDifficulty: hypothetical.Difficulty,
	}
}

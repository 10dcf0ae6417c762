package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vocab-amas/internal/types"
)

func TestEvaluateSatisfiedConstraintsPreservesCandidate(t *testing.T) {
	state := types.UserState{Attention: 0.8, Fatigue: 0.1}
	candidate := types.StrategyParams{IntervalScale: 1.2, NewRatio: 0.2, Difficulty: types.DifficultyMid, BatchSize: 8}

	res := Evaluate(state, candidate, Inputs{ShortTermAccuracy: 0.7, LongTermRecall: 0.8}, DefaultWeights(), DefaultConstraints())

	assert.True(t, res.ConstraintsSatisfied)
	assert.Equal(t, candidate, res.Repaired)
	assert.Empty(t, res.ViolatedConstraints)
	assert.Greater(t, res.Score.Total, 0.0)
}

func TestEvaluateRepairsHighNewRatio(t *testing.T) {
	state := types.UserState{Attention: 0.8, Fatigue: 0.1}
	candidate := types.StrategyParams{IntervalScale: 1.0, NewRatio: 0.9, Difficulty: types.DifficultyMid, BatchSize: 8}

	res := Evaluate(state, candidate, Inputs{ShortTermAccuracy: 0.5, LongTermRecall: 0.5}, DefaultWeights(), DefaultConstraints())

	assert.False(t, res.ConstraintsSatisfied)
	assert.Contains(t, res.ViolatedConstraints, "new_ratio")
	assert.LessOrEqual(t, res.Repaired.NewRatio, 0.6)
	assert.Equal(t, candidate, res.Candidate, "unrepaired candidate must be preserved")
}

func TestEvaluateRepairsHighFatigueByShrinkingBatch(t *testing.T) {
	state := types.UserState{Attention: 0.9, Fatigue: 0.8}
	candidate := types.StrategyParams{IntervalScale: 1.0, NewRatio: 0.2, Difficulty: types.DifficultyHard, BatchSize: 20}

	res := Evaluate(state, candidate, Inputs{ShortTermAccuracy: 0.5, LongTermRecall: 0.5}, DefaultWeights(), DefaultConstraints())

	assert.False(t, res.ConstraintsSatisfied)
	assert.LessOrEqual(t, fatigueAfter(state, res.Repaired), DefaultConstraints().MaxFatigueAfter)
	assert.Less(t, res.Repaired.BatchSize, candidate.BatchSize)
}

func TestEvaluateRepairsLowAttentionByDowngradingDifficulty(t *testing.T) {
	state := types.UserState{Attention: 0.32, Fatigue: 0.1}
	candidate := types.StrategyParams{IntervalScale: 1.0, NewRatio: 0.2, Difficulty: types.DifficultyHard, BatchSize: 4}

	res := Evaluate(state, candidate, Inputs{ShortTermAccuracy: 0.5, LongTermRecall: 0.5}, DefaultWeights(), DefaultConstraints())

	assert.LessOrEqual(t, candidate.BatchSize, 4)
	if !res.ConstraintsSatisfied {
		assert.NotEqual(t, types.DifficultyHard, res.Repaired.Difficulty)
	}
}

func TestEfficiencyScoreWithinUnitRange(t *testing.T) {
	for _, bs := range []int{4, 10, 20} {
		for _, scale := range []float64{0.6, 1.0, 1.6} {
			s := efficiencyScore(types.StrategyParams{BatchSize: bs, IntervalScale: scale})
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

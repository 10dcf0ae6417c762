package members

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vocab-amas/internal/types"
)

func TestLinUCBProposeReturnsClampedAction(t *testing.T) {
	l := NewLinUCB(0.3)
	vote := l.Propose(Context{
		State:         types.UserState{Attention: 0.7, Fatigue: 0.2, Motivation: 0.3, Cognitive: types.CognitiveProfile{Mem: 0.6, Speed: 0.5, Stability: 0.6}},
		CurrentParams: types.StrategyParams{IntervalScale: 1.0, BatchSize: 10},
	})

	assert.Equal(t, types.MemberLinUCB, vote.MemberID)
	assert.GreaterOrEqual(t, vote.Action.NewRatio, newRatioMin)
	assert.LessOrEqual(t, vote.Action.NewRatio, newRatioMax)
}

func TestLinUCBLearnsPositiveAssociation(t *testing.T) {
	l := NewLinUCB(0.1)
	state := types.UserState{Attention: 0.9, Fatigue: 0.1, Motivation: 0.5, Cognitive: types.CognitiveProfile{Mem: 0.8, Speed: 0.7, Stability: 0.8}}
	action := types.StrategyParams{Difficulty: types.DifficultyHard, NewRatio: ratioBinCenter(4, 5)}

	before := l.PredictedReward(state, action)
	for i := 0; i < 30; i++ {
		l.RecordReward(state, action, 1.0)
	}
	after := l.PredictedReward(state, action)

	assert.Greater(t, after, before)
}

func TestLinUCBConfidenceWithinRange(t *testing.T) {
	l := NewLinUCB(0.3)
	vote := l.Propose(Context{State: types.UserState{}, CurrentParams: types.StrategyParams{}})
	assert.GreaterOrEqual(t, vote.Confidence, 0.0)
	assert.LessOrEqual(t, vote.Confidence, 1.0)
}

package members

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vocab-amas/internal/types"
)

func TestACTRMemberHighStabilityPushesHarder(t *testing.T) {
	m := NewACTRMember()
	low := m.Propose(Context{
		State:         types.UserState{Cognitive: types.CognitiveProfile{Mem: 0.1, Stability: 0.1}, Fatigue: 0.5},
		CurrentParams: types.StrategyParams{BatchSize: 10, IntervalScale: 1.0},
	})
	high := m.Propose(Context{
		State:         types.UserState{Cognitive: types.CognitiveProfile{Mem: 0.9, Stability: 0.9}, Fatigue: 0.1},
		CurrentParams: types.StrategyParams{BatchSize: 10, IntervalScale: 1.0},
	})

	assert.Equal(t, types.MemberACTR, low.MemberID)
	assert.GreaterOrEqual(t, high.Action.BatchSize, low.Action.BatchSize)
}

func TestACTRMemberHighFatiguePushesEasier(t *testing.T) {
	m := NewACTRMember()
	vote := m.Propose(Context{
		State:         types.UserState{Cognitive: types.CognitiveProfile{Mem: 0.2, Stability: 0.2}, Fatigue: 0.95},
		CurrentParams: types.StrategyParams{BatchSize: 10, IntervalScale: 1.0},
	})
	assert.Equal(t, types.DifficultyEasy, vote.Action.Difficulty)
}

func TestACTRMemberUsesFusedFatigueWhenPresent(t *testing.T) {
	m := NewACTRMember()
	fused := 0.95
	vote := m.Propose(Context{
		State:         types.UserState{Fatigue: 0.1, FusedFatigue: &fused, Cognitive: types.CognitiveProfile{Mem: 0.2, Stability: 0.2}},
		CurrentParams: types.StrategyParams{BatchSize: 10, IntervalScale: 1.0},
	})
	assert.Equal(t, types.DifficultyEasy, vote.Action.Difficulty)
}

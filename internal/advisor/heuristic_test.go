package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-amas/internal/config"
)

func TestHeuristicSuggestionsNoneWhenNothingTripped(t *testing.T) {
	m := WeeklyMetrics{
		Current: PeriodMetrics{LearningAccuracy: 0.7, AlertRatio: 0.05, FatigueDistribution: TierDistribution{High: 0.1}},
		Prior:   PeriodMetrics{LearningAccuracy: 0.71},
	}
	items := heuristicSuggestions(m)
	assert.Empty(t, items)
}

func TestHeuristicSuggestionsAccuracyDropReducesNewWordRatio(t *testing.T) {
	m := WeeklyMetrics{
		Current: PeriodMetrics{LearningAccuracy: 0.5, AlertRatio: 0.02, FatigueDistribution: TierDistribution{High: 0.1}},
		Prior:   PeriodMetrics{LearningAccuracy: 0.6},
	}
	items := heuristicSuggestions(m)
	require.Len(t, items, 1)
	assert.Equal(t, string(config.KeyNewWordRatioDefault), items[0].Target)
	want := config.Whitelist[config.KeyNewWordRatioDefault].Default * 0.9
	assert.InDelta(t, want, items[0].Value, 1e-9)
}

func TestHeuristicSuggestionsHighAlertRatioReducesPriorityWeight(t *testing.T) {
	m := WeeklyMetrics{
		Current: PeriodMetrics{LearningAccuracy: 0.7, AlertRatio: 0.2, FatigueDistribution: TierDistribution{High: 0.1}},
		Prior:   PeriodMetrics{LearningAccuracy: 0.71},
	}
	items := heuristicSuggestions(m)
	require.Len(t, items, 1)
	assert.Equal(t, string(config.KeyPriorityWeightNewWord), items[0].Target)
}

func TestHeuristicSuggestionsHighFatigueRaisesWrongThreshold(t *testing.T) {
	m := WeeklyMetrics{
		Current: PeriodMetrics{LearningAccuracy: 0.7, AlertRatio: 0.05, FatigueDistribution: TierDistribution{High: 0.5}},
		Prior:   PeriodMetrics{LearningAccuracy: 0.71},
	}
	items := heuristicSuggestions(m)
	require.Len(t, items, 1)
	assert.Equal(t, string(config.KeyConsecutiveWrongThreshold), items[0].Target)
	want := config.Whitelist[config.KeyConsecutiveWrongThreshold].Default + 1
	assert.Equal(t, want, items[0].Value)
}

func TestHeuristicSuggestionsHighAccuracyRaisesNewWordRatio(t *testing.T) {
	m := WeeklyMetrics{
		Current: PeriodMetrics{LearningAccuracy: 0.95, AlertRatio: 0.01, FatigueDistribution: TierDistribution{High: 0.1}},
		Prior:   PeriodMetrics{LearningAccuracy: 0.93},
	}
	items := heuristicSuggestions(m)
	require.Len(t, items, 1)
	assert.Equal(t, string(config.KeyNewWordRatioHighAccuracy), items[0].Target)
	want := config.Whitelist[config.KeyNewWordRatioHighAccuracy].Default * 1.1
	assert.InDelta(t, want, items[0].Value, 1e-9)
}

func TestHeuristicSuggestionsClampsToWhitelistRange(t *testing.T) {
	m := WeeklyMetrics{
		Current: PeriodMetrics{LearningAccuracy: 0.01, AlertRatio: 0.9, FatigueDistribution: TierDistribution{High: 0.9}},
		Prior:   PeriodMetrics{LearningAccuracy: 0.99},
	}
	items := heuristicSuggestions(m)
	for _, item := range items {
		spec := config.Whitelist[config.ParameterKey(item.Target)]
		value := item.Value.(float64)
		assert.GreaterOrEqual(t, value, spec.Min)
		assert.LessOrEqual(t, value, spec.Max)
	}
}

package advisor

import (
	"github.com/google/uuid"

	"vocab-amas/internal/config"
	"vocab-amas/internal/types"
)

// heuristicSuggestions emits suggestions from the same metric
// thresholds a human operator would eyeball, used whenever the LLM
// call fails or its output can't be parsed (spec.md §4.10 step 2: "on
// any failure fall back to a heuristic advisor that emits suggestions
// from the same metric thresholds").
func heuristicSuggestions(m WeeklyMetrics) []types.SuggestionItem {
	var items []types.SuggestionItem

	add := func(target config.ParameterKey, value float64, rationale string) {
		spec := config.Whitelist[target]
		if value < spec.Min {
			value = spec.Min
		}
		if value > spec.Max {
			value = spec.Max
		}
		items = append(items, types.SuggestionItem{
			ID:        uuid.NewString(),
			Target:    string(target),
			Value:     value,
			Rationale: rationale,
		})
	}

	accuracyDrop := m.Prior.LearningAccuracy - m.Current.LearningAccuracy
	if accuracyDrop > 0.05 {
		current := config.Whitelist[config.KeyNewWordRatioDefault].Default
		add(config.KeyNewWordRatioDefault, current*0.9,
			"accuracy dropped week over week; reducing new-word ratio to ease load")
	}

	if m.Current.AlertRatio > 0.15 {
		current := config.Whitelist[config.KeyPriorityWeightNewWord].Default
		add(config.KeyPriorityWeightNewWord, current*0.85,
			"elevated alert ratio; de-prioritizing new words in favor of review")
	}

	if m.Current.FatigueDistribution.High > 0.3 {
		current := config.Whitelist[config.KeyConsecutiveWrongThreshold].Default
		add(config.KeyConsecutiveWrongThreshold, current+1,
			"large high-fatigue cohort; raising the wrong-streak threshold before difficulty drops")
	}

	if m.Current.LearningAccuracy > config.Whitelist[config.KeyNewWordRatioHighAccuracyThreshold].Default &&
		m.Current.AlertRatio < 0.05 {
		current := config.Whitelist[config.KeyNewWordRatioHighAccuracy].Default
		add(config.KeyNewWordRatioHighAccuracy, current*1.1,
			"sustained high accuracy with low alert ratio; allowing more new words for high performers")
	}

	return items
}

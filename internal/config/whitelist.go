package config

import "fmt"

// ParameterKey is one of the closed set of tunable configuration keys
// spec.md §6 names. The Parameter Store rejects any key outside this
// set, and the LLM Advisor Loop rejects any suggestion item whose
// target is outside this set (spec.md §4.10 step 4, test case 6).
type ParameterKey string

const (
	KeyConsecutiveCorrectThreshold       ParameterKey = "consecutiveCorrectThreshold"
	KeyConsecutiveWrongThreshold         ParameterKey = "consecutiveWrongThreshold"
	KeyDifficultyAdjustmentInterval      ParameterKey = "difficultyAdjustmentInterval"
	KeyPriorityWeightNewWord             ParameterKey = "priorityWeightNewWord"
	KeyPriorityWeightErrorRate           ParameterKey = "priorityWeightErrorRate"
	KeyPriorityWeightOverdueTime         ParameterKey = "priorityWeightOverdueTime"
	KeyPriorityWeightWordScore           ParameterKey = "priorityWeightWordScore"
	KeyScoreWeightAccuracy               ParameterKey = "scoreWeightAccuracy"
	KeyScoreWeightSpeed                  ParameterKey = "scoreWeightSpeed"
	KeyScoreWeightStability              ParameterKey = "scoreWeightStability"
	KeyScoreWeightProficiency            ParameterKey = "scoreWeightProficiency"
	KeySpeedThresholdExcellent           ParameterKey = "speedThresholdExcellent"
	KeySpeedThresholdGood                ParameterKey = "speedThresholdGood"
	KeySpeedThresholdAverage             ParameterKey = "speedThresholdAverage"
	KeySpeedThresholdSlow                ParameterKey = "speedThresholdSlow"
	KeyNewWordRatioDefault               ParameterKey = "newWordRatioDefault"
	KeyNewWordRatioHighAccuracy          ParameterKey = "newWordRatioHighAccuracy"
	KeyNewWordRatioLowAccuracy           ParameterKey = "newWordRatioLowAccuracy"
	KeyNewWordRatioHighAccuracyThreshold ParameterKey = "newWordRatioHighAccuracyThreshold"
	KeyNewWordRatioLowAccuracyThreshold  ParameterKey = "newWordRatioLowAccuracyThreshold"
	KeyThompsonContextBins               ParameterKey = "thompsonContextBins"
	KeyThompsonContextWeight             ParameterKey = "thompsonContextWeight"
)

// ValueKind is the expected Go type for a parameter's value.
type ValueKind int

const (
	KindFloat ValueKind = iota
	KindInt
)

// ParameterSpec describes the validated range and type for one key.
type ParameterSpec struct {
	Kind    ValueKind
	Min     float64
	Max     float64
	Default float64
}

// Whitelist maps every valid key to its validation spec and default.
// This is the single source of truth consulted by paramstore.Store and
// advisor.Loop.
var Whitelist = map[ParameterKey]ParameterSpec{
	KeyConsecutiveCorrectThreshold:       {Kind: KindInt, Min: 1, Max: 20, Default: 3},
	KeyConsecutiveWrongThreshold:         {Kind: KindInt, Min: 1, Max: 20, Default: 2},
	KeyDifficultyAdjustmentInterval:      {Kind: KindInt, Min: 1, Max: 100, Default: 10},
	KeyPriorityWeightNewWord:             {Kind: KindFloat, Min: 0, Max: 1, Default: 0.2},
	KeyPriorityWeightErrorRate:           {Kind: KindFloat, Min: 0, Max: 1, Default: 0.3},
	KeyPriorityWeightOverdueTime:         {Kind: KindFloat, Min: 0, Max: 1, Default: 0.3},
	KeyPriorityWeightWordScore:           {Kind: KindFloat, Min: 0, Max: 1, Default: 0.2},
	KeyScoreWeightAccuracy:               {Kind: KindFloat, Min: 0, Max: 1, Default: 0.4},
	KeyScoreWeightSpeed:                  {Kind: KindFloat, Min: 0, Max: 1, Default: 0.2},
	KeyScoreWeightStability:              {Kind: KindFloat, Min: 0, Max: 1, Default: 0.2},
	KeyScoreWeightProficiency:            {Kind: KindFloat, Min: 0, Max: 1, Default: 0.2},
	KeySpeedThresholdExcellent:           {Kind: KindFloat, Min: 0, Max: 60000, Default: 1500},
	KeySpeedThresholdGood:                {Kind: KindFloat, Min: 0, Max: 60000, Default: 3000},
	KeySpeedThresholdAverage:             {Kind: KindFloat, Min: 0, Max: 60000, Default: 5000},
	KeySpeedThresholdSlow:                {Kind: KindFloat, Min: 0, Max: 60000, Default: 8000},
	KeyNewWordRatioDefault:               {Kind: KindFloat, Min: 0.05, Max: 0.6, Default: 0.25},
	KeyNewWordRatioHighAccuracy:          {Kind: KindFloat, Min: 0.05, Max: 0.6, Default: 0.4},
	KeyNewWordRatioLowAccuracy:           {Kind: KindFloat, Min: 0.05, Max: 0.6, Default: 0.1},
	KeyNewWordRatioHighAccuracyThreshold: {Kind: KindFloat, Min: 0, Max: 1, Default: 0.85},
	KeyNewWordRatioLowAccuracyThreshold:  {Kind: KindFloat, Min: 0, Max: 1, Default: 0.5},
	KeyThompsonContextBins:               {Kind: KindInt, Min: 1, Max: 100, Default: 10},
	KeyThompsonContextWeight:             {Kind: KindFloat, Min: 0, Max: 1, Default: 0.5},
}

// IsWhitelisted reports whether key is one of the closed set of keys.
func IsWhitelisted(key string) bool {
	_, ok := Whitelist[ParameterKey(key)]
	return ok
}

// Validate checks value against key's spec (range + type). Returns an
// error describing the violation; callers in paramstore/advisor wrap
// this into amaserr.Validation.
func Validate(key string, value float64) error {
	spec, ok := Whitelist[ParameterKey(key)]
	if !ok {
		return fmt.Errorf("unknown parameter key: %s", key)
	}
	if spec.Kind == KindInt && value != float64(int64(value)) {
		return fmt.Errorf("parameter %s must be an integer, got %v", key, value)
	}
	if value < spec.Min || value > spec.Max {
		return fmt.Errorf("parameter %s value %v out of range [%v, %v]", key, value, spec.Min, spec.Max)
	}
	return nil
}

// Defaults returns a fresh copy of every whitelisted key's default value.
func Defaults() map[string]float64 {
	out := make(map[string]float64, len(Whitelist))
	for k, spec := range Whitelist {
		out[string(k)] = spec.Default
	}
	return out
}

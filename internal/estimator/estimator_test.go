package estimator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vocab-amas/internal/types"
)

func baseEvent(t time.Time) types.RawEvent {
	return types.RawEvent{
		IsCorrect:      true,
		ResponseTimeMs: 1500,
		DwellTime:      5 * time.Second,
		PauseCount:     1,
		Timestamp:      t,
	}
}

func TestEstimateNewUserProducesBoundedState(t *testing.T) {
	now := time.Now()
	next := Estimate(DefaultConfig(), Input{Prior: nil, Event: baseEvent(now)})

	assert.GreaterOrEqual(t, next.Attention, 0.0)
	assert.LessOrEqual(t, next.Attention, 1.0)
	assert.GreaterOrEqual(t, next.Fatigue, 0.0)
	assert.LessOrEqual(t, next.Fatigue, 1.0)
	assert.GreaterOrEqual(t, next.Conf, 0.0)
	assert.LessOrEqual(t, next.Conf, 1.0)
	assert.Equal(t, now, next.Ts)
}

func TestEstimateIsPureFunctionOfInputs(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()
	prior := &types.UserState{UserID: "u1", Ts: now.Add(-time.Minute), Attention: 0.6, Fatigue: 0.2, Motivation: 0.1, Conf: 0.5, Cognitive: types.CognitiveProfile{Mem: 0.5, Speed: 0.5, Stability: 0.5}}
	event := baseEvent(now)

	a := Estimate(cfg, Input{Prior: prior, Event: event})
	b := Estimate(cfg, Input{Prior: prior, Event: event})

	assert.Equal(t, a, b)
}

func TestHighResponseTimeAndRetriesRaiseFatigue(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()
	prior := &types.UserState{Ts: now.Add(-time.Minute), Fatigue: 0.2}

	calm := baseEvent(now)
	calm.ResponseTimeMs = 800
	calmNext := Estimate(cfg, Input{Prior: prior, Event: calm})

	strained := baseEvent(now)
	strained.ResponseTimeMs = 9000
	strained.RetryCount = 4
	strained.SwitchCount = 4
	strainedNext := Estimate(cfg, Input{Prior: prior, Event: strained})

	assert.Greater(t, strainedNext.Fatigue, calmNext.Fatigue)
}

func TestLongGapDecaysFatigue(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()
	prior := &types.UserState{Ts: now.Add(-2 * time.Hour), Fatigue: 0.8}

	event := baseEvent(now)
	event.ResponseTimeMs = 500
	event.RetryCount = 0
	next := Estimate(cfg, Input{Prior: prior, Event: event})

	assert.Less(t, next.Fatigue, prior.Fatigue)
}

func TestHintUsageLowersMotivation(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()
	prior := &types.UserState{Ts: now.Add(-time.Minute), Motivation: 0}

	withoutHint := baseEvent(now)
	withHint := baseEvent(now)
	withHint.HintUsed = true

	a := Estimate(cfg, Input{Prior: prior, Event: withoutHint})
	b := Estimate(cfg, Input{Prior: prior, Event: withHint})

	assert.Greater(t, a.Motivation, b.Motivation)
}

func TestConfidenceFormulaMatchesCanonicalWeights(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()
	event := baseEvent(now)
	next := Estimate(cfg, Input{Prior: nil, Event: event})

	want := 0.55*next.Attention + 0.25*(1-next.Fatigue) + 0.2*((next.Motivation+1)/2)
	want = types.Clamp01(want)
	assert.InDelta(t, want, next.Conf, 1e-9)
}

func TestBoundStepLimitsSingleUpdateL1Distance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxStepL1 = 0.05
	now := time.Now()
	prior := &types.UserState{Ts: now.Add(-time.Minute), Attention: 0.1, Fatigue: 0.9, Motivation: -1, Conf: 0.1}

	event := baseEvent(now)
	event.ResponseTimeMs = 300
	event.PauseCount = 0
	next := Estimate(cfg, Input{Prior: prior, Event: event})

	assert.LessOrEqual(t, next.L1Distance(prior), cfg.MaxStepL1+1e-9)
}

func TestTsNeverMovesBackward(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()
	prior := &types.UserState{Ts: now}
	stale := baseEvent(now.Add(-time.Hour))

	next := Estimate(cfg, Input{Prior: prior, Event: stale})
	assert.Equal(t, prior.Ts, next.Ts)
}

func TestDecliningAccuracyRaisesFusedFatigueAboveRawFatigue(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()
	prior := &types.UserState{Ts: now.Add(-8 * time.Minute)}

	history := make([]types.RawEvent, 0, 6)
	for i := 0; i < 6; i++ {
		e := baseEvent(now.Add(time.Duration(i) * time.Minute))
		e.IsCorrect = i < 2 // first two correct, rest wrong: declining accuracy
		history = append(history, e)
	}
	final := baseEvent(now.Add(7 * time.Minute))
	final.IsCorrect = false

	next := Estimate(cfg, Input{Prior: prior, Event: final, History: history})
	if assert.NotNil(t, next.FusedFatigue) {
		assert.GreaterOrEqual(t, *next.FusedFatigue, next.Fatigue)
	}
}

func TestTrendDetectsImprovingWindow(t *testing.T) {
	now := time.Now()
	history := make([]types.RawEvent, 0, 8)
	for i := 0; i < 8; i++ {
		e := baseEvent(now.Add(time.Duration(i) * time.Minute))
		e.IsCorrect = i >= 4 // first half wrong, second half right
		history = append(history, e)
	}
	trend := computeTrend(history[:len(history)-1], history[len(history)-1])
	assert.Equal(t, types.TrendUp, trend)
}

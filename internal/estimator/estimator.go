// Package estimator implements the State Estimator (spec.md §4.2): a
// pure function of (prior state, event, history window) that derives a
// learner's latent attention/fatigue/motivation axes, cognitive profile,
// and canonical confidence. No global randomness; no hidden state.
package estimator

import (
	"math"
	"time"

	"vocab-amas/internal/types"
)

// Config holds the tunable coefficients used by Estimate. Defaults match
// spec.md §4.2's documented formulas; callers may override for testing
// or per-tenant experimentation.
type Config struct {
	// FatigueEWMAAlpha weights the current session's answer latency into
	// the fatigue EWMA.
	FatigueEWMAAlpha float64
	// FatigueGapDecayPerMinute decays fatigue across long inter-event gaps.
	FatigueGapDecayPerMinute float64
	// FocusLossFatigueBoost scales how much a focus-loss burst raises fatigue.
	FocusLossFatigueBoost float64
	// CognitiveEWMAAlpha weights new response-time samples into the
	// slow-moving cognitive profile EWMAs.
	CognitiveEWMAAlpha float64
	// MaxStepL1 bounds the L1 distance the estimator may move the state
	// in a single update (spec.md §3 invariant).
	MaxStepL1 float64
	// ResponseTimeNormMs is the response time, in ms, that normalizes to
	// an attention contribution of 1.0 (very fast answer).
	ResponseTimeNormMs float64
}

// DefaultConfig returns the documented coefficients.
func DefaultConfig() Config {
	return Config{
		FatigueEWMAAlpha:         0.3,
		FatigueGapDecayPerMinute: 0.02,
		FocusLossFatigueBoost:    0.15,
		CognitiveEWMAAlpha:       0.1,
		MaxStepL1:                0.5,
		ResponseTimeNormMs:       2000,
	}
}

// Input bundles the prior state, the new event, and a recent window of
// events used for the EWMA/regression computations.
type Input struct {
	Prior   *types.UserState // may be nil for a brand-new user
	Event   types.RawEvent
	History []types.RawEvent // oldest first; does not include Event
}

// Estimate derives the next UserState. Pure: same (prior, event, history)
// always yields the same output given the same Config (no clock reads
// beyond Event.Timestamp, no RNG).
func Estimate(cfg Config, in Input) *types.UserState {
	prior := in.Prior
	if prior == nil {
		prior = &types.UserState{
			Attention:  0.5,
			Fatigue:    0.3,
			Motivation: 0,
			Conf:       0.5,
			Cognitive:  types.CognitiveProfile{Mem: 0.5, Speed: 0.5, Stability: 0.5},
			Trend:      types.TrendFlat,
		}
	}

	attention := computeAttention(in.Event, cfg)
	fatigue := computeFatigue(cfg, prior, in.Event)
	motivation := computeMotivation(prior, in.Event)
	cognitive := computeCognitive(cfg, prior, in.Event, in.History)
	fused := computeFusedFatigue(fatigue, in.History, in.Event)
	trend := computeTrend(in.History, in.Event)

	next := &types.UserState{
		UserID:     prior.UserID,
		Ts:         monotonicTs(prior.Ts, in.Event.Timestamp),
		Attention:  attention,
		Fatigue:    fatigue,
		Motivation: motivation,
		Cognitive:  cognitive,
		Trend:      trend,
		FusedFatigue: &fused,
	}
	next.Conf = 0.55*next.Attention + 0.25*(1-next.Fatigue) + 0.2*((next.Motivation+1)/2)
	next.Clamp()

	boundStep(next, prior, cfg.MaxStepL1)
	return next
}

// computeAttention blends inverse normalized response time, inverse
// pause rate, and inverse focus-loss ratio (spec.md §4.2).
func computeAttention(e types.RawEvent, cfg Config) float64 {
	rtComponent := clamp01(cfg.ResponseTimeNormMs / maxf(float64(e.ResponseTimeMs), 1))

	pauseRate := float64(e.PauseCount) / 10.0 // 10 pauses saturates to 0 attention contribution
	pauseComponent := clamp01(1 - pauseRate)

	focusRatio := 0.0
	if e.DwellTime > 0 {
		focusRatio = float64(e.FocusLossDuration) / float64(e.DwellTime)
	}
	focusComponent := clamp01(1 - focusRatio)

	return clamp01(0.4*rtComponent + 0.3*pauseComponent + 0.3*focusComponent)
}

// computeFatigue is an EWMA over the session boosted by focus-loss
// bursts and decayed across long inter-event gaps.
func computeFatigue(cfg Config, prior *types.UserState, e types.RawEvent) float64 {
	gapMinutes := 0.0
	if !prior.Ts.IsZero() && e.Timestamp.After(prior.Ts) {
		gapMinutes = e.Timestamp.Sub(prior.Ts).Minutes()
	}
	decayed := prior.Fatigue * math.Max(0, 1-cfg.FatigueGapDecayPerMinute*gapMinutes)

	// A slow, high-pause, high-retry answer raises instantaneous fatigue.
	instant := clamp01(
		0.4*clamp01(float64(e.ResponseTimeMs)/8000) +
			0.3*clamp01(float64(e.RetryCount)/5) +
			0.3*clamp01(float64(e.SwitchCount)/5),
	)

	fatigue := (1-cfg.FatigueEWMAAlpha)*decayed + cfg.FatigueEWMAAlpha*instant

	if e.DwellTime > 0 {
		focusRatio := float64(e.FocusLossDuration) / float64(e.DwellTime)
		fatigue += cfg.FocusLossFatigueBoost * clamp01(focusRatio)
	}

	return clamp01(fatigue)
}

// computeFusedFatigue combines EWMA fatigue with a recent-accuracy
// regression: a learner sliding toward more wrong answers is fatigued
// even if the raw latency signal hasn't caught up yet.
func computeFusedFatigue(fatigue float64, history []types.RawEvent, e types.RawEvent) float64 {
	window := append(append([]types.RawEvent{}, history...), e)
	if len(window) > 8 {
		window = window[len(window)-8:]
	}
	if len(window) < 2 {
		return fatigue
	}

	// Simple linear regression of correctness (0/1) against index; a
	// negative slope means accuracy is falling within the window.
	n := float64(len(window))
	var sumX, sumY, sumXY, sumXX float64
	for i, ev := range window {
		x := float64(i)
		y := 0.0
		if ev.IsCorrect {
			y = 1.0
		}
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return fatigue
	}
	slope := (n*sumXY - sumX*sumY) / denom

	// Negative slope (accuracy declining) pushes fused fatigue up;
	// positive slope pulls it down slightly.
	adjustment := clamp(-slope*0.5, -0.1, 0.2)
	return clamp01(fatigue + adjustment)
}

// computeMotivation is a bounded integrator of correctness delta minus
// a hint-usage penalty.
func computeMotivation(prior *types.UserState, e types.RawEvent) float64 {
	delta := -0.08
	if e.IsCorrect {
		delta = 0.08
	}
	if e.HintUsed {
		delta -= 0.05
	}
	return clamp(prior.Motivation+delta, -1, 1)
}

// computeCognitive advances the slow-moving mem/speed/stability EWMAs.
func computeCognitive(cfg Config, prior *types.UserState, e types.RawEvent, history []types.RawEvent) types.CognitiveProfile {
	window := append(append([]types.RawEvent{}, history...), e)
	if len(window) > 20 {
		window = window[len(window)-20:]
	}

	mean, cv := responseTimeMeanCV(window)
	speedSample := clamp01(1 - clamp01(mean/8000))
	stabilitySample := clamp01(1 - clamp01(cv))
	memSample := accuracyRate(window)

	alpha := cfg.CognitiveEWMAAlpha
	return types.CognitiveProfile{
		Mem:       (1-alpha)*prior.Cognitive.Mem + alpha*memSample,
		Speed:     (1-alpha)*prior.Cognitive.Speed + alpha*speedSample,
		Stability: (1-alpha)*prior.Cognitive.Stability + alpha*stabilitySample,
	}
}

func computeTrend(history []types.RawEvent, e types.RawEvent) types.Trend {
	window := append(append([]types.RawEvent{}, history...), e)
	if len(window) < 4 {
		return types.TrendFlat
	}
	if len(window) > 10 {
		window = window[len(window)-10:]
	}
	half := len(window) / 2
	firstAcc := accuracyRate(window[:half])
	secondAcc := accuracyRate(window[half:])
	diff := secondAcc - firstAcc

	switch {
	case diff > 0.15:
		return types.TrendUp
	case diff < -0.15:
		return types.TrendDown
	case secondAcc < 0.4 && firstAcc < 0.4:
		return types.TrendStuck
	default:
		return types.TrendFlat
	}
}

func accuracyRate(window []types.RawEvent) float64 {
	if len(window) == 0 {
		return 0.5
	}
	correct := 0
	for _, e := range window {
		if e.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(window))
}

func responseTimeMeanCV(window []types.RawEvent) (mean, cv float64) {
	if len(window) == 0 {
		return 0, 0
	}
	var sum float64
	for _, e := range window {
		sum += float64(e.ResponseTimeMs)
	}
	mean = sum / float64(len(window))
	if mean == 0 {
		return 0, 0
	}
	var variance float64
	for _, e := range window {
		d := float64(e.ResponseTimeMs) - mean
		variance += d * d
	}
	variance /= float64(len(window))
	stddev := math.Sqrt(variance)
	cv = stddev / mean
	return mean, cv
}

// monotonicTs enforces spec.md §3's "ts is monotonically non-decreasing
// per user" invariant.
func monotonicTs(prior, eventTs time.Time) time.Time {
	if eventTs.Before(prior) {
		return prior
	}
	return eventTs
}

// boundStep scales next back toward prior if the L1 distance between
// them exceeds maxStep, preventing single-event state spikes (spec.md §3).
// Conf is never lerped directly: it is a derived quantity (see
// SPEC_FULL.md §9.2), so it is recomputed from the bounded axes to stay
// consistent with the canonical formula.
func boundStep(next, prior *types.UserState, maxStep float64) {
	if maxStep <= 0 {
		return
	}
	dist := next.L1Distance(prior)
	if dist <= maxStep {
		return
	}
	scale := maxStep / dist
	next.Attention = lerp(prior.Attention, next.Attention, scale)
	next.Fatigue = lerp(prior.Fatigue, next.Fatigue, scale)
	next.Motivation = lerp(prior.Motivation, next.Motivation, scale)
	next.Cognitive.Mem = lerp(prior.Cognitive.Mem, next.Cognitive.Mem, scale)
	next.Cognitive.Speed = lerp(prior.Cognitive.Speed, next.Cognitive.Speed, scale)
	next.Cognitive.Stability = lerp(prior.Cognitive.Stability, next.Cognitive.Stability, scale)
	next.Conf = 0.55*next.Attention + 0.25*(1-next.Fatigue) + 0.2*((next.Motivation+1)/2)
	next.Clamp()
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Package metrics exposes the decision pipeline's operator-facing
// Prometheus metrics: per-stage duration histograms and budget-overrun
// counters (spec.md §5), member weight drift after ensemble fusion, and
// reward delivery lag (spec.md §4.8). It is grounded on the NikeGunn-tutu
// pack repo's internal/infra/observability package, which registers its
// Phase 3 metrics the same way: package-level promauto vars under a
// shared namespace, grouped by subsystem.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "amas"

// StageDuration tracks how long each decision stage took, labeled by
// stage name (spec.md §5: "estimator 50ms, ensemble 100ms, word
// selector 500ms").
var StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "decision",
	Name:      "stage_duration_ms",
	Help:      "Decision pipeline stage duration in milliseconds.",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
}, []string{"stage"})

// StageOverBudget counts stage executions that exceeded their budget,
// labeled by stage name. spec.md §5 says violations "log but do not
// fail" — this is the metric side of that requirement.
var StageOverBudget = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "decision",
	Name:      "stage_over_budget_total",
	Help:      "Total decision stage executions that exceeded their budget.",
}, []string{"stage"})

// MemberWeightDrift tracks the absolute change in a strategy member's
// ensemble weight between consecutive decisions for the same user,
// labeled by member id (spec.md §4.5 ensemble weighting).
var MemberWeightDrift = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "ensemble",
	Name:      "member_weight_drift",
	Help:      "Absolute change in a member's ensemble weight between consecutive decisions.",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1},
}, []string{"member"})

// RewardDeliveryLag tracks the delay between a reward's enqueue time
// and its delivery to member posteriors (spec.md §4.8's delayed
// credit-assignment window).
var RewardDeliveryLag = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "reward",
	Name:      "delivery_lag_seconds",
	Help:      "Delay between a reward's enqueue time and its delivery to member posteriors.",
	Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
})

// RewardDeliveryFailures counts rows that failed to apply during a
// DeliverDueRewards tick and were skipped (spec.md §4.8: a delivery
// failure must not abort the rest of the tick).
var RewardDeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "reward",
	Name:      "delivery_failures_total",
	Help:      "Total delayed rewards that failed to apply during a delivery tick.",
})

// Recorder implements engine.StageObserver by feeding StageDuration and
// StageOverBudget. It carries no state of its own; it exists so Engine
// can depend on an interface rather than the package-level vars
// directly.
type Recorder struct{}

// NewRecorder returns a Recorder ready to wire into engine.Engine.Metrics.
func NewRecorder() *Recorder { return &Recorder{} }

// Observe records one stage's duration and, if it ran over budget,
// increments the overrun counter for that stage.
func (r *Recorder) Observe(stage string, durationMs float64, overBudget bool) {
	StageDuration.WithLabelValues(stage).Observe(durationMs)
	if overBudget {
		StageOverBudget.WithLabelValues(stage).Inc()
	}
}

// ObserveWeightDrift records the absolute change in a member's ensemble
// weight between two consecutive decisions for the same user. It is a
// package-level function (rather than a Recorder method only) so
// non-engine callers, e.g. an offline ensemble-tuning report, can reuse
// it without constructing a Recorder.
func ObserveWeightDrift(member string, previous, current float64) {
	drift := current - previous
	if drift < 0 {
		drift = -drift
	}
	MemberWeightDrift.WithLabelValues(member).Observe(drift)
}

// ObserveRewardDelivered records the lag between enqueue and delivery
// for one delayed reward that was successfully applied.
func ObserveRewardDelivered(enqueuedAt, deliveredAt time.Time) {
	RewardDeliveryLag.Observe(deliveredAt.Sub(enqueuedAt).Seconds())
}

// ObserveRewardFailure increments the failure counter for one delayed
// reward that could not be applied during a delivery tick.
func ObserveRewardFailure() {
	RewardDeliveryFailures.Inc()
}

// ObserveWeightDrift implements engine.WeightObserver.
func (r *Recorder) ObserveWeightDrift(member string, previous, current float64) {
	ObserveWeightDrift(member, previous, current)
}

// ObserveRewardDelivered implements engine.RewardObserver.
func (r *Recorder) ObserveRewardDelivered(enqueuedAt, deliveredAt time.Time) {
	ObserveRewardDelivered(enqueuedAt, deliveredAt)
}

// ObserveRewardFailure implements engine.RewardObserver.
func (r *Recorder) ObserveRewardFailure() {
	ObserveRewardFailure()
}

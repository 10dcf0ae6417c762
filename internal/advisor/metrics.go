package advisor

import (
	"context"
	"time"
)

// TierDistribution splits a population across the three bands spec.md
// §4.10 step 1 asks for (low/mid/high), as fractions summing to ~1.0.
type TierDistribution struct {
	Low  float64
	Mid  float64
	High float64
}

// PeriodMetrics is one 7-day aggregate window.
type PeriodMetrics struct {
	TotalUsers           int
	ActiveUsers          int
	NewUsers             int
	ChurnedUsers         int
	LearningAccuracy     float64 // mean fraction correct across active users
	AvgResponseTimeMs    float64
	FatigueDistribution  TierDistribution
	MotivationDist       TierDistribution
	AlertRatio           float64 // fraction of decisions that tripped an alert/constraint repair
}

// WeeklyMetrics bundles the current and prior 7-day windows the
// advisor compares against each other (spec.md §4.10 step 1).
type WeeklyMetrics struct {
	WeekStart time.Time
	WeekEnd   time.Time
	Current   PeriodMetrics
	Prior     PeriodMetrics
}

// MetricsSource computes the weekly aggregate snapshot. It is a port:
// the concrete implementation lives wherever decision traces and user
// state are durably stored (internal/storage, once built), since this
// package only consumes the aggregate, never raw rows.
type MetricsSource interface {
	ComputeWeeklyMetrics(ctx context.Context, weekEnd time.Time) (WeeklyMetrics, error)
}

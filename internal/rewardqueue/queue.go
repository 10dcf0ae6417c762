// Package rewardqueue implements the Delayed Reward Queue (spec.md
// §4.8): a queue of DelayedReward rows, ordered by due time, that become due after a
// configurable window, at which point a background tick delivers them
// to the Strategy Members' posteriors.
package rewardqueue

import (
	"context"
	"time"

	"vocab-amas/internal/types"
)

// Queue is the storage port a backend implements. Enqueue is idempotent
// on IdempotencyKey: a second Enqueue with a key already present is a
// no-op, not an error (spec.md §4.8 "idempotency key prevents
// double-apply").
type Queue interface {
	Enqueue(ctx context.Context, reward types.DelayedReward) error
	// Due returns up to limit undelivered rows with due_ts <= now,
	// oldest first. It does not mark them delivered.
	Due(ctx context.Context, now time.Time, limit int) ([]types.DelayedReward, error)
	// MarkDelivered flips a row's delivered flag. Delivering an
	// already-delivered or unknown key is a no-op.
	MarkDelivered(ctx context.Context, idempotencyKey string) error
}

// TraceSource fetches the original decision trace a reward applies to
// (spec.md §4.8 step "(a) fetches the original decision trace").
type TraceSource interface {
	GetTrace(ctx context.Context, decisionID string) (types.DecisionTrace, error)
}

// MemberUpdater routes one delivered reward to every strategy member's
// update(arm, reward) hook (spec.md §4.8 step "(b) calls each member's
// update hook"). The arm is the trace's chosen StrategyParams; members
// that don't participate in online learning (e.g. the heuristic) treat
// this as a no-op.
type MemberUpdater interface {
	ApplyReward(ctx context.Context, trace types.DecisionTrace, reward float64) error
}

// NewDueTs computes a reward's due time from an enqueue time and a
// window (spec.md §4.8 "due_ts = now + window").
func NewDueTs(enqueuedAt time.Time, window time.Duration) time.Time {
	return enqueuedAt.Add(window)
}

package rewardqueue

import (
	"context"
	"errors"
	"time"

	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/obslog"
	"vocab-amas/internal/types"
)

// WorkerConfig tunes the background delivery tick.
type WorkerConfig struct {
	TickInterval time.Duration
	BatchSize    int
}

// DefaultWorkerConfig matches the spec's "background tick" with a
// batch size generous enough to drain a burst of reviews between ticks
// without holding the queue's lock for long.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{TickInterval: 10 * time.Second, BatchSize: 200}
}

// Worker drains due rows on a ticker, delivering each to the wired
// TraceSource and MemberUpdater (spec.md §4.8 steps a-c).
type Worker struct {
	Queue   Queue
	Traces  TraceSource
	Members MemberUpdater
	Config  WorkerConfig
}

// Run blocks, ticking until ctx is canceled. Intended to be started in
// its own goroutine by the host process.
func (w *Worker) Run(ctx context.Context) {
	interval := w.Config.TickInterval
	if interval <= 0 {
		interval = DefaultWorkerConfig().TickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx, time.Now())
		}
	}
}

// Tick runs one delivery pass: fetch due rows, apply each, mark
// delivered. A failure on one row is logged and skipped (delivery is
// at-least-once; the row stays due and is retried next tick).
func (w *Worker) Tick(ctx context.Context, now time.Time) int {
	batch := w.Config.BatchSize
	if batch <= 0 {
		batch = DefaultWorkerConfig().BatchSize
	}
	due, err := w.Queue.Due(ctx, now, batch)
	if err != nil {
		obslog.Errorf(ctx, "rewardqueue: fetch due rows: %v", err)
		return 0
	}
	delivered := 0
	for _, reward := range due {
		if err := w.deliver(ctx, reward); err != nil {
			obslog.Warnf(ctx, "rewardqueue: deliver %s: %v", reward.IdempotencyKey, err)
			continue
		}
		delivered++
	}
	return delivered
}

func (w *Worker) deliver(ctx context.Context, reward types.DelayedReward) error {
	trace, err := w.Traces.GetTrace(ctx, reward.DecisionID)
	if err != nil {
		if errors.Is(err, amaserr.ErrNotFound) {
			// Decision trace was pruned before its reward arrived; the
			// reward can never be applied. Mark delivered so it stops
			// being retried forever rather than leaking the row.
			obslog.Warnf(ctx, "rewardqueue: trace %s missing, dropping reward %s", reward.DecisionID, reward.IdempotencyKey)
			return w.Queue.MarkDelivered(ctx, reward.IdempotencyKey)
		}
		return err
	}
	if err := w.Members.ApplyReward(ctx, trace, reward.Reward); err != nil {
		return err
	}
	return w.Queue.MarkDelivered(ctx, reward.IdempotencyKey)
}

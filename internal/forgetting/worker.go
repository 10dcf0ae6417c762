package forgetting

import (
	"context"
	"time"
)

// WorkerConfig tunes the background scan tick.
type WorkerConfig struct {
	TickInterval time.Duration
}

// DefaultWorkerConfig runs one sweep per hour, frequent enough to catch
// a word decaying past the threshold between a user's sessions without
// scanning the whole catalog on every request (cf.
// rewardqueue.DefaultWorkerConfig's per-tick cadence).
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{TickInterval: time.Hour}
}

// Worker runs Scanner.Scan on a ticker, generalizing
// rewardqueue.Worker's ticker-driven background loop to this scanner.
type Worker struct {
	Scanner *Scanner
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
			w.Scanner.Scan(ctx, time.Now())
		}
	}
}

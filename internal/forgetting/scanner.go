package forgetting

import (
	"context"
	"time"

	"vocab-amas/internal/obslog"
	"vocab-amas/internal/types"
)

// RetentionThreshold is the recall-probability floor below which a
// (user, word) pair is flagged, matching the original's
// RETENTION_THRESHOLD = 0.3.
const RetentionThreshold = 0.3

// BatchSize caps how many word states one pass of process_batch touches
// per user, matching the original's BATCH_SIZE = 100.
const BatchSize = 100

// LearningStateSource is the storage port the scanner reads from: every
// user with at least one word past the "new" lifecycle stage, and that
// user's current per-word memory states (spec.md §3's WordMemoryState).
type LearningStateSource interface {
	// ActiveUsers returns user ids with at least one word_memory_state
	// row whose Lifecycle() is Learning, Reviewing, or Mastered
	// (original's "state IN ('LEARNING','REVIEWING','MASTERED')").
	ActiveUsers(ctx context.Context) ([]string, error)
	UserWordStates(ctx context.Context, userID string) ([]types.WordMemoryState, error)
}

// AlertStore is the storage port the scanner writes to. Upsert applies
// the original's ON CONFLICT dedup: a pending alert already within 0.05
// retention of the new reading is left untouched rather than bumping
// updated_at on every scan.
type AlertStore interface {
	Upsert(ctx context.Context, userID, wordID string, retention float64, now time.Time) (created, updated bool, err error)
	Dismiss(ctx context.Context, userID, wordID string, now time.Time) error
}

// Scanner runs one forgetting-risk sweep across every active user.
type Scanner struct {
	States LearningStateSource
	Alerts AlertStore
}

// Scan runs a full pass: for each active user, for each of their word
// states, estimate current retention and either create/refresh a
// pending alert (retention below threshold) or dismiss an existing one
// (retention recovered), mirroring the original's
// scan_forgetting_risks/process_user_alerts/process_batch chain.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (Stats, error) {
	scanStart := now
	var stats Stats

	users, err := s.States.ActiveUsers(ctx)
	if err != nil {
		return stats, err
	}
	stats.UsersScanned = len(users)

	for _, userID := range users {
		states, err := s.States.UserWordStates(ctx, userID)
		if err != nil {
			obslog.Warnf(ctx, "forgetting: fetch word states for %s: %v", userID, err)
			continue
		}
		stats.WordsScanned += len(states)

		for start := 0; start < len(states); start += BatchSize {
			end := start + BatchSize
			if end > len(states) {
				end = len(states)
			}
			s.processBatch(ctx, userID, states[start:end], now, &stats)
		}
	}

	stats.Duration = time.Since(scanStart)
	return stats, nil
}

func (s *Scanner) processBatch(ctx context.Context, userID string, states []types.WordMemoryState, now time.Time, stats *Stats) {
	for _, st := range states {
		elapsed := now.Sub(time.UnixMilli(st.LastReviewMs))
		retention := Retention(st.Stability, elapsed)

		if retention < RetentionThreshold {
			created, updated, err := s.Alerts.Upsert(ctx, userID, st.WordID, retention, now)
			if err != nil {
				obslog.Warnf(ctx, "forgetting: upsert alert %s/%s: %v", userID, st.WordID, err)
				continue
			}
			if created {
				stats.AlertsCreated++
			} else if updated {
				stats.AlertsUpdated++
			}
			continue
		}

		if err := s.Alerts.Dismiss(ctx, userID, st.WordID, now); err != nil {
			obslog.Warnf(ctx, "forgetting: dismiss alert %s/%s: %v", userID, st.WordID, err)
		}
	}
}

// Package forgetting implements the background forgetting-risk alert
// scanner (SPEC_FULL.md §[SUPPLEMENT] 8a, grounded on
// original_source/workers/forgetting_alert.rs): a periodic pass that
// estimates each (user, word) pair's current recall probability from
// its stored stability and flags the pairs that have decayed below a
// threshold so a host application can nudge the learner before the
// word is actually forgotten.
//
// This is independent of the decision pipeline's own ACT-R model
// (internal/actr): that package scores a specific review trace to pick
// the next interval, while this package sweeps every already-scheduled
// word looking for ones whose predicted retention has fallen through
// the floor between scheduled reviews.
package forgetting

import "time"

// AlertStatus tracks an alert through its lifecycle, mirroring the
// original's forgetting_alert.status column.
type AlertStatus string

const (
	StatusPending   AlertStatus = "pending"
	StatusReviewed  AlertStatus = "reviewed"
	StatusDismissed AlertStatus = "dismissed"
)

// Alert is one (user, word) forgetting-risk record. (user_id, word_id)
// is the natural key -- no separate surrogate id, matching how this
// schema keys word_memory_states.
type Alert struct {
	UserID        string
	WordID        string
	RetentionRate float64
	Status        AlertStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Stats summarizes one scan pass (original's AlertStats).
type Stats struct {
	UsersScanned  int
	WordsScanned  int
	AlertsCreated int
	AlertsUpdated int
	Duration      time.Duration
}

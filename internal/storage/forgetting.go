package storage

import (
	"context"
	"database/sql"
	"time"

	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/forgetting"
	"vocab-amas/internal/types"
)

// retentionDeltaThreshold matches original_source/workers/
// forgetting_alert.rs's upsert guard: a pending alert is only touched
// again once its retention reading has moved by more than this much,
// so a scanner running hourly doesn't bump updated_at on noise.
const retentionDeltaThreshold = 0.05

// LearningStates implements forgetting.LearningStateSource over the
// word_memory_states table already maintained by WordMemoryStore.
type LearningStates struct {
	db *DB
}

func NewLearningStates(db *DB) *LearningStates {
	return &LearningStates{db: db}
}

var _ forgetting.LearningStateSource = (*LearningStates)(nil)

// ActiveUsers returns every user with at least one word past the "new"
// lifecycle stage (reps > 0), the original's
// "state IN ('LEARNING','REVIEWING','MASTERED')" filter generalized to
// this schema's derived Lifecycle() rather than a stored state column.
func (l *LearningStates) ActiveUsers(ctx context.Context) ([]string, error) {
	rows, err := l.db.conn.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM word_memory_states WHERE reps > 0`)
	if err != nil {
		return nil, amaserr.DbUnavailable(err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, amaserr.DbUnavailable(err)
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}

func (l *LearningStates) UserWordStates(ctx context.Context, userID string) ([]types.WordMemoryState, error) {
	rows, err := l.db.conn.QueryContext(ctx, `
		SELECT user_id, word_id, stability, difficulty, reps, lapses, last_review_ms, scheduled_days, desired_retention
		FROM word_memory_states WHERE user_id = ? AND reps > 0`, userID)
	if err != nil {
		return nil, amaserr.DbUnavailable(err)
	}
	defer rows.Close()

	var out []types.WordMemoryState
	for rows.Next() {
		var w types.WordMemoryState
		if err := rows.Scan(&w.UserID, &w.WordID, &w.Stability, &w.Difficulty, &w.Reps, &w.Lapses,
			&w.LastReviewMs, &w.ScheduledDays, &w.DesiredRetention); err != nil {
			return nil, amaserr.DbUnavailable(err)
		}
		if w.Lifecycle() == types.LifecycleNew {
			continue
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ForgettingAlerts implements forgetting.AlertStore over the
// forgetting_alerts table.
type ForgettingAlerts struct {
	db *DB
}

func NewForgettingAlerts(db *DB) *ForgettingAlerts {
	return &ForgettingAlerts{db: db}
}

var _ forgetting.AlertStore = (*ForgettingAlerts)(nil)

// Upsert inserts a pending alert, or refreshes an existing pending
// one's retention_rate/updated_at only if the reading moved by more
// than retentionDeltaThreshold (original's ON CONFLICT ... DO UPDATE
// CASE guard, expressed here as a read-then-write since this schema
// has no xmax-style row provenance to read back atomically).
func (f *ForgettingAlerts) Upsert(ctx context.Context, userID, wordID string, retention float64, now time.Time) (created, updated bool, err error) {
	var existingRate float64
	var status string
	scanErr := f.db.conn.QueryRowContext(ctx,
		`SELECT retention_rate, status FROM forgetting_alerts WHERE user_id = ? AND word_id = ?`,
		userID, wordID,
	).Scan(&existingRate, &status)

	switch scanErr {
	case sql.ErrNoRows:
		_, err = f.db.conn.ExecContext(ctx,
			`INSERT INTO forgetting_alerts (user_id, word_id, retention_rate, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			userID, wordID, retention, string(forgetting.StatusPending), now.UnixMilli(), now.UnixMilli(),
		)
		if err != nil {
			return false, false, amaserr.DbUnavailable(err)
		}
		return true, false, nil
	case nil:
		if status != string(forgetting.StatusPending) {
			_, err = f.db.conn.ExecContext(ctx,
				`UPDATE forgetting_alerts SET retention_rate = ?, status = ?, updated_at = ? WHERE user_id = ? AND word_id = ?`,
				retention, string(forgetting.StatusPending), now.UnixMilli(), userID, wordID,
			)
			if err != nil {
				return false, false, amaserr.DbUnavailable(err)
			}
			return false, true, nil
		}
		if abs(existingRate-retention) <= retentionDeltaThreshold {
			return false, false, nil
		}
		_, err = f.db.conn.ExecContext(ctx,
			`UPDATE forgetting_alerts SET retention_rate = ?, updated_at = ? WHERE user_id = ? AND word_id = ?`,
			retention, now.UnixMilli(), userID, wordID,
		)
		if err != nil {
			return false, false, amaserr.DbUnavailable(err)
		}
		return false, true, nil
	default:
		return false, false, amaserr.DbUnavailable(scanErr)
	}
}

// Dismiss flips a pending alert to dismissed; a no-op if no pending
// alert exists for the pair (original's UPDATE ... WHERE status =
// 'PENDING', which affects zero rows harmlessly).
func (f *ForgettingAlerts) Dismiss(ctx context.Context, userID, wordID string, now time.Time) error {
	_, err := f.db.conn.ExecContext(ctx,
		`UPDATE forgetting_alerts SET status = ?, updated_at = ? WHERE user_id = ? AND word_id = ? AND status = ?`,
		string(forgetting.StatusDismissed), now.UnixMilli(), userID, wordID, string(forgetting.StatusPending),
	)
	if err != nil {
		return amaserr.DbUnavailable(err)
	}
	return nil
}

// PendingAlerts lists a user's currently-pending forgetting alerts,
// newest first. Not required by forgetting.AlertStore (the scanner
// never reads alerts back); exposed for a host application to surface
// to the learner, the original's equivalent of a GET over the
// forgetting_alert table in routes/amas.rs.
func (f *ForgettingAlerts) PendingAlerts(ctx context.Context, userID string) ([]forgetting.Alert, error) {
	rows, err := f.db.conn.QueryContext(ctx,
		`SELECT word_id, retention_rate, status, created_at, updated_at
		 FROM forgetting_alerts WHERE user_id = ? AND status = ? ORDER BY updated_at DESC`,
		userID, string(forgetting.StatusPending),
	)
	if err != nil {
		return nil, amaserr.DbUnavailable(err)
	}
	defer rows.Close()

	var out []forgetting.Alert
	for rows.Next() {
		var a forgetting.Alert
		var createdMs, updatedMs int64
		var status string
		if err := rows.Scan(&a.WordID, &a.RetentionRate, &status, &createdMs, &updatedMs); err != nil {
			return nil, amaserr.DbUnavailable(err)
		}
		a.UserID = userID
		a.Status = forgetting.AlertStatus(status)
		a.CreatedAt = time.UnixMilli(createdMs)
		a.UpdatedAt = time.UnixMilli(updatedMs)
		out = append(out, a)
	}
	return out, rows.Err()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

package storage

import (
	"context"
	"database/sql"

	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/types"
)

// WordMemoryStore persists the ACT-R per-(user,word) bookkeeping record
// (spec.md §3, §4.1) that the decision engine reads to feed the ACT-R
// model; nothing in this module outside tests calls Upsert. There is no
// in-memory counterpart in this codebase --
// unlike paramstore/explain, the decision pipeline always needs a
// durable backend here, so the interface and its one implementation
// live together.
type WordMemoryStore interface {
	Get(ctx context.Context, userID, wordID string) (types.WordMemoryState, error)
	Upsert(ctx context.Context, state types.WordMemoryState) error
}

type sqlWordMemoryStore struct {
	db *DB
}

func NewWordMemoryStore(db *DB) WordMemoryStore {
	return &sqlWordMemoryStore{db: db}
}

func (s *sqlWordMemoryStore) Get(ctx context.Context, userID, wordID string) (types.WordMemoryState, error) {
	var w types.WordMemoryState
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT user_id, word_id, stability, difficulty, reps, lapses, last_review_ms, scheduled_days, desired_retention
		 FROM word_memory_states WHERE user_id = ? AND word_id = ?`, userID, wordID,
	).Scan(&w.UserID, &w.WordID, &w.Stability, &w.Difficulty, &w.Reps, &w.Lapses, &w.LastReviewMs, &w.ScheduledDays, &w.DesiredRetention)
	if err == sql.ErrNoRows {
		return types.WordMemoryState{}, amaserr.NotFound("word memory state for user %q word %q not found", userID, wordID)
	}
	if err != nil {
		return types.WordMemoryState{}, amaserr.DbUnavailable(err)
	}
	return w, nil
}

func (s *sqlWordMemoryStore) Upsert(ctx context.Context, w types.WordMemoryState) error {
	if w.UserID == "" || w.WordID == "" {
		return amaserr.Validation("word memory state requires both user_id and word_id")
	}
	nextReviewMs := w.LastReviewMs + int64(w.ScheduledDays*dayMs)
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO word_memory_states (
			user_id, word_id, stability, difficulty, reps, lapses, last_review_ms, scheduled_days, desired_retention, next_review_ms
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, word_id) DO UPDATE SET
			stability=excluded.stability, difficulty=excluded.difficulty, reps=excluded.reps,
			lapses=excluded.lapses, last_review_ms=excluded.last_review_ms,
			scheduled_days=excluded.scheduled_days, desired_retention=excluded.desired_retention,
			next_review_ms=excluded.next_review_ms`,
		w.UserID, w.WordID, w.Stability, w.Difficulty, w.Reps, w.Lapses, w.LastReviewMs, w.ScheduledDays, w.DesiredRetention, nextReviewMs,
	)
	if err != nil {
		return amaserr.DbUnavailable(err)
	}
	return nil
}

const dayMs = 24 * 60 * 60 * 1000

package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/selector"
)

// Catalog implements the Word Selector's four read ports (spec.md
// §4.7) over the words/word_memory_states/user_word_stats/user_elo
// tables, generalizing the teacher's query-building pattern in
// internal/storage/sqlite.go (named placeholders built once, reused
// across callers) to the selector's due/candidate/elo/random queries.
type Catalog struct {
	db *DB
}

var (
	_ selector.ReviewSource = (*Catalog)(nil)
	_ selector.NewSource    = (*Catalog)(nil)
	_ selector.EloSource    = (*Catalog)(nil)
	_ selector.RandomSource = (*Catalog)(nil)
)

func NewCatalog(db *DB) *Catalog {
	return &Catalog{db: db}
}

// DueWords returns every word in the user's memory state whose next
// scheduled review is at or before now, excluding the given ids.
func (c *Catalog) DueWords(ctx context.Context, userID string, now time.Time, exclude map[string]bool) ([]selector.WordCandidate, error) {
	rows, err := c.db.conn.QueryContext(ctx, `
		SELECT w.word_id, w.word_elo, w.difficulty_band,
		       COALESCE(s.total_attempts, 0), COALESCE(s.correct_attempts, 0),
		       m.next_review_ms
		FROM word_memory_states m
		JOIN words w ON w.word_id = m.word_id
		LEFT JOIN user_word_stats s ON s.user_id = m.user_id AND s.word_id = m.word_id
		WHERE m.user_id = ? AND m.next_review_ms <= ?
		ORDER BY m.next_review_ms ASC
	`, userID, now.UnixMilli())
	if err != nil {
		return nil, amaserr.DbUnavailable(err)
	}
	defer rows.Close()

	var out []selector.WordCandidate
	for rows.Next() {
		var cand selector.WordCandidate
		var totalAttempts, correctAttempts int
		if err := rows.Scan(&cand.WordID, &cand.Elo, &cand.DifficultyBand, &totalAttempts, &correctAttempts, &cand.NextReviewMs); err != nil {
			return nil, amaserr.DbUnavailable(err)
		}
		if exclude[cand.WordID] {
			continue
		}
		applyAttemptStats(&cand, totalAttempts, correctAttempts)
		out = append(out, cand)
	}
	return out, rows.Err()
}

// CandidateWords returns words from the given wordbooks that the user
// has no memory-state row for yet (never attempted).
func (c *Catalog) CandidateWords(ctx context.Context, userID string, wordbookIDs []string, exclude map[string]bool) ([]selector.WordCandidate, error) {
	if len(wordbookIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(wordbookIDs)), ",")
	args := make([]interface{}, 0, len(wordbookIDs)+1)
	for _, id := range wordbookIDs {
		args = append(args, id)
	}
	args = append(args, userID)

	query := `
		SELECT w.word_id, w.word_elo, w.difficulty_band
		FROM words w
		WHERE w.wordbook_id IN (` + placeholders + `)
		  AND NOT EXISTS (
			SELECT 1 FROM word_memory_states m WHERE m.user_id = ? AND m.word_id = w.word_id
		  )
	`
	rows, err := c.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, amaserr.DbUnavailable(err)
	}
	defer rows.Close()

	var out []selector.WordCandidate
	for rows.Next() {
		var cand selector.WordCandidate
		if err := rows.Scan(&cand.WordID, &cand.Elo, &cand.DifficultyBand); err != nil {
			return nil, amaserr.DbUnavailable(err)
		}
		if exclude[cand.WordID] {
			continue
		}
		out = append(out, cand) // HasScore stays false: never attempted
	}
	return out, rows.Err()
}

// UserElo returns the user's own Elo rating, 1200 (the catalog default)
// when the user has never been rated.
func (c *Catalog) UserElo(ctx context.Context, userID string) (float64, error) {
	var elo float64
	err := c.db.conn.QueryRowContext(ctx, `SELECT elo FROM user_elo WHERE user_id = ?`, userID).Scan(&elo)
	if err != nil {
		return 1200, nil
	}
	return elo, nil
}

// RandomWords returns up to n word ids the user hasn't seen in exclude,
// in SQLite's RANDOM() order, for distractor generation.
func (c *Catalog) RandomWords(ctx context.Context, userID string, exclude map[string]bool, n int) ([]string, error) {
	rows, err := c.db.conn.QueryContext(ctx,
		`SELECT word_id FROM words ORDER BY RANDOM() LIMIT ?`, n+len(exclude))
	if err != nil {
		return nil, amaserr.DbUnavailable(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, amaserr.DbUnavailable(err)
		}
		if exclude[id] {
			continue
		}
		out = append(out, id)
		if len(out) == n {
			break
		}
	}
	return out, rows.Err()
}

// LifetimeInteractions returns the user's total answered-item count
// across every word, the N the Cold-Start Manager derives a phase from
// (spec.md §4.3).
func (c *Catalog) LifetimeInteractions(ctx context.Context, userID string) (int, error) {
	var total sql.NullInt64
	err := c.db.conn.QueryRowContext(ctx,
		`SELECT SUM(total_attempts) FROM user_word_stats WHERE user_id = ?`, userID,
	).Scan(&total)
	if err != nil {
		return 0, amaserr.DbUnavailable(err)
	}
	return int(total.Int64), nil
}

func applyAttemptStats(cand *selector.WordCandidate, total, correct int) {
	cand.TotalAttempts = total
	cand.CorrectAttempts = correct
	cand.HasScore = total > 0
	if cand.HasScore {
		cand.Score = 100 * float64(correct) / float64(total)
	}
}

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWord(t *testing.T, db *DB, wordID, wordbookID string, elo, band float64) {
	t.Helper()
	_, err := db.conn.Exec(`INSERT INTO words (word_id, wordbook_id, word_elo, difficulty_band) VALUES (?, ?, ?, ?)`,
		wordID, wordbookID, elo, band)
	require.NoError(t, err)
}

func TestCatalogDueWordsExcludesFutureAndExcludedWords(t *testing.T) {
	db := newTestDB(t)
	cat := NewCatalog(db)
	now := time.Now().UTC()

	seedWord(t, db, "w-due", "book1", 1200, 0.5)
	seedWord(t, db, "w-future", "book1", 1200, 0.5)
	seedWord(t, db, "w-excluded", "book1", 1200, 0.5)

	for _, row := range []struct {
		wordID string
		offset time.Duration
	}{
		{"w-due", -time.Hour},
		{"w-future", 24 * time.Hour},
		{"w-excluded", -time.Hour},
	} {
		_, err := db.conn.Exec(
			`INSERT INTO word_memory_states (user_id, word_id, stability, difficulty, reps, lapses, last_review_ms, scheduled_days, desired_retention, next_review_ms)
			 VALUES ('u1', ?, 1, 1, 1, 0, 0, 0, 0.9, ?)`,
			row.wordID, now.Add(row.offset).UnixMilli(),
		)
		require.NoError(t, err)
	}
	_, err := db.conn.Exec(`INSERT INTO user_word_stats (user_id, word_id, total_attempts, correct_attempts) VALUES ('u1', 'w-due', 4, 3)`)
	require.NoError(t, err)

	cands, err := cat.DueWords(context.Background(), "u1", now, map[string]bool{"w-excluded": true})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "w-due", cands[0].WordID)
	assert.True(t, cands[0].HasScore)
	assert.InDelta(t, 75.0, cands[0].Score, 0.01)
}

func TestCatalogCandidateWordsExcludesAlreadySeen(t *testing.T) {
	db := newTestDB(t)
	cat := NewCatalog(db)
	seedWord(t, db, "w-new", "book1", 1200, 0.4)
	seedWord(t, db, "w-seen", "book1", 1200, 0.4)
	seedWord(t, db, "w-other-book", "book2", 1200, 0.4)

	_, err := db.conn.Exec(
		`INSERT INTO word_memory_states (user_id, word_id, stability, difficulty, reps, lapses, last_review_ms, scheduled_days, desired_retention, next_review_ms)
		 VALUES ('u1', 'w-seen', 1, 1, 1, 0, 0, 0, 0.9, 0)`)
	require.NoError(t, err)

	cands, err := cat.CandidateWords(context.Background(), "u1", []string{"book1"}, nil)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "w-new", cands[0].WordID)
	assert.False(t, cands[0].HasScore)
}

func TestCatalogCandidateWordsEmptyWordbooksReturnsNil(t *testing.T) {
	db := newTestDB(t)
	cat := NewCatalog(db)
	cands, err := cat.CandidateWords(context.Background(), "u1", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, cands)
}

func TestCatalogUserEloDefaultsWhenUnrated(t *testing.T) {
	db := newTestDB(t)
	cat := NewCatalog(db)
	elo, err := cat.UserElo(context.Background(), "unrated-user")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, elo)
}

func TestCatalogUserEloReturnsStoredValue(t *testing.T) {
	db := newTestDB(t)
	cat := NewCatalog(db)
	_, err := db.conn.Exec(`INSERT INTO user_elo (user_id, elo) VALUES ('u1', 1450)`)
	require.NoError(t, err)

	elo, err := cat.UserElo(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1450.0, elo)
}

func TestCatalogLifetimeInteractionsSumsAttempts(t *testing.T) {
	db := newTestDB(t)
	cat := NewCatalog(db)
	seedWord(t, db, "w1", "book1", 1200, 0.5)
	seedWord(t, db, "w2", "book1", 1200, 0.5)
	_, err := db.conn.Exec(`INSERT INTO user_word_stats (user_id, word_id, total_attempts, correct_attempts) VALUES ('u1', 'w1', 4, 3)`)
	require.NoError(t, err)
	_, err = db.conn.Exec(`INSERT INTO user_word_stats (user_id, word_id, total_attempts, correct_attempts) VALUES ('u1', 'w2', 6, 2)`)
	require.NoError(t, err)

	n, err := cat.LifetimeInteractions(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestCatalogLifetimeInteractionsZeroForUnknownUser(t *testing.T) {
	db := newTestDB(t)
	cat := NewCatalog(db)
	n, err := cat.LifetimeInteractions(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCatalogRandomWordsRespectsExcludeAndCount(t *testing.T) {
	db := newTestDB(t)
	cat := NewCatalog(db)
	for i := 0; i < 10; i++ {
		seedWord(t, db, string(rune('a'+i)), "book1", 1200, 0.5)
	}

	words, err := cat.RandomWords(context.Background(), "u1", map[string]bool{"a": true}, 3)
	require.NoError(t, err)
	assert.Len(t, words, 3)
	for _, w := range words {
		assert.NotEqual(t, "a", w)
	}
}

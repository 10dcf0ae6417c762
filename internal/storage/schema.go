// Package storage provides the durable SQLite persistence backend for
// the AMAS core, generalizing the teacher's SQLiteStorage (database/sql
// over modernc.org/sqlite, a versioned schema, a single DB handle shared
// across concerns) from reasoning-mode data (thoughts, branches,
// insights) to this domain's rows: parameter history, decision traces,
// per-(user,word) memory state, and a word catalog for the Word
// Selector's ports.
package storage

import "database/sql"

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS parameter_history (
	key TEXT NOT NULL,
	version INTEGER NOT NULL,
	value REAL NOT NULL,
	changed_by TEXT NOT NULL,
	changed_reason TEXT NOT NULL,
	previous_value REAL,
	suggestion_id TEXT,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (key, version)
);

CREATE TABLE IF NOT EXISTS decision_traces (
	decision_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	ts INTEGER NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decision_traces_user_ts ON decision_traces(user_id, ts DESC);

CREATE TABLE IF NOT EXISTS advisor_suggestions (
	id TEXT PRIMARY KEY,
	week_end INTEGER NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_advisor_suggestions_week_end ON advisor_suggestions(week_end DESC);

CREATE TABLE IF NOT EXISTS word_memory_states (
	user_id TEXT NOT NULL,
	word_id TEXT NOT NULL,
	stability REAL NOT NULL,
	difficulty REAL NOT NULL,
	reps INTEGER NOT NULL,
	lapses INTEGER NOT NULL,
	last_review_ms INTEGER NOT NULL,
	scheduled_days REAL NOT NULL,
	desired_retention REAL NOT NULL,
	next_review_ms INTEGER NOT NULL,
	PRIMARY KEY (user_id, word_id)
);
CREATE INDEX IF NOT EXISTS idx_word_memory_due ON word_memory_states(user_id, next_review_ms);

CREATE TABLE IF NOT EXISTS words (
	word_id TEXT PRIMARY KEY,
	wordbook_id TEXT NOT NULL,
	word_elo REAL NOT NULL DEFAULT 1200,
	difficulty_band REAL NOT NULL DEFAULT 0.5
);
CREATE INDEX IF NOT EXISTS idx_words_wordbook ON words(wordbook_id);

CREATE TABLE IF NOT EXISTS user_word_stats (
	user_id TEXT NOT NULL,
	word_id TEXT NOT NULL,
	total_attempts INTEGER NOT NULL DEFAULT 0,
	correct_attempts INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, word_id)
);

CREATE TABLE IF NOT EXISTS user_elo (
	user_id TEXT PRIMARY KEY,
	elo REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS forgetting_alerts (
	user_id TEXT NOT NULL,
	word_id TEXT NOT NULL,
	retention_rate REAL NOT NULL,
	status TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, word_id)
);
`

func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	_, err := db.Exec(
		`INSERT INTO schema_metadata (key, value) VALUES ('version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		schemaVersion,
	)
	return err
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/explain"
	"vocab-amas/internal/types"
)

// ExplainStore is the durable counterpart to explain.InMemoryStore: the
// same record/get/timeline shape, but the trace itself is stored as one
// JSON payload column rather than decomposed into columns, since
// DecisionTrace carries nested structures (Votes, StageDetails,
// Strategy) that spec.md §9's "never rename fields" stability promise
// makes easier to keep as a single serialized blob than as a wide,
// ever-growing table, following the teacher's own practice of storing
// Thought.Metadata and KeyPoints as JSON text columns
// (internal/storage/sqlite.go's stmtInsertThought).
type ExplainStore struct {
	db *DB
}

var _ explain.Store = (*ExplainStore)(nil)

func NewExplainStore(db *DB) *ExplainStore {
	return &ExplainStore{db: db}
}

func (s *ExplainStore) Record(ctx context.Context, trace types.DecisionTrace) error {
	if trace.DecisionID == "" {
		return amaserr.Validation("decision trace missing decision_id")
	}
	payload, err := json.Marshal(trace)
	if err != nil {
		return amaserr.Validation("decision trace is not serializable: %v", err)
	}
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO decision_traces (decision_id, user_id, ts, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(decision_id) DO UPDATE SET ts = excluded.ts, payload = excluded.payload`,
		trace.DecisionID, trace.UserID, trace.Ts.UnixMilli(), string(payload),
	)
	if err != nil {
		return amaserr.DbUnavailable(err)
	}
	return nil
}

func (s *ExplainStore) Get(ctx context.Context, decisionID string) (types.DecisionTrace, error) {
	var payload string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT payload FROM decision_traces WHERE decision_id = ?`, decisionID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return types.DecisionTrace{}, amaserr.NotFound("decision %q not found", decisionID)
	}
	if err != nil {
		return types.DecisionTrace{}, amaserr.DbUnavailable(err)
	}
	var trace types.DecisionTrace
	if err := json.Unmarshal([]byte(payload), &trace); err != nil {
		return types.DecisionTrace{}, amaserr.DbUnavailable(err)
	}
	return trace, nil
}

// Timeline mirrors explain.InMemoryStore.Timeline's paging semantics
// exactly (sort everything newest-first, then cut after cursor) rather
// than pushing the cursor comparison into SQL, since ties on ts need the
// same decision_id tiebreak the in-memory store uses.
func (s *ExplainStore) Timeline(ctx context.Context, userID string, cursor string, limit int) ([]types.DecisionTrace, string, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT payload FROM decision_traces WHERE user_id = ? ORDER BY ts DESC, decision_id DESC`, userID)
	if err != nil {
		return nil, "", amaserr.DbUnavailable(err)
	}
	defer rows.Close()

	var traces []types.DecisionTrace
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, "", amaserr.DbUnavailable(err)
		}
		var trace types.DecisionTrace
		if err := json.Unmarshal([]byte(payload), &trace); err != nil {
			return nil, "", amaserr.DbUnavailable(err)
		}
		traces = append(traces, trace)
	}
	if err := rows.Err(); err != nil {
		return nil, "", amaserr.DbUnavailable(err)
	}

	start := 0
	if cursor != "" {
		found := false
		for i, t := range traces {
			if t.DecisionID == cursor {
				start = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, "", amaserr.Validation("unknown timeline cursor %q", cursor)
		}
	}
	if start >= len(traces) {
		return nil, "", nil
	}

	end := len(traces)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	page := traces[start:end]

	nextCursor := ""
	if end < len(traces) {
		nextCursor = page[len(page)-1].DecisionID
	}
	return page, nextCursor, nil
}

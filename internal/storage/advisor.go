package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"vocab-amas/internal/advisor"
	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/types"
)

// AdvisorStore is the durable counterpart to advisor.InMemoryStore,
// same JSON-payload-blob approach as ExplainStore since AdvisorSuggestion
// nests SuggestionItem/SkippedItem/FailedItem slices spec.md §4.10
// doesn't ask to be independently queryable.
type AdvisorStore struct {
	db *DB
}

var _ advisor.Store = (*AdvisorStore)(nil)

func NewAdvisorStore(db *DB) *AdvisorStore {
	return &AdvisorStore{db: db}
}

func (s *AdvisorStore) Record(ctx context.Context, sug types.AdvisorSuggestion) error {
	if sug.ID == "" {
		return amaserr.Validation("advisor suggestion must have an id")
	}
	return s.upsert(ctx, sug)
}

func (s *AdvisorStore) Save(ctx context.Context, sug types.AdvisorSuggestion) error {
	if _, err := s.Get(ctx, sug.ID); err != nil {
		return err
	}
	return s.upsert(ctx, sug)
}

func (s *AdvisorStore) upsert(ctx context.Context, sug types.AdvisorSuggestion) error {
	payload, err := json.Marshal(sug)
	if err != nil {
		return amaserr.Validation("advisor suggestion is not serializable: %v", err)
	}
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO advisor_suggestions (id, week_end, payload) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET week_end = excluded.week_end, payload = excluded.payload`,
		sug.ID, sug.WeekEnd.UnixMilli(), string(payload),
	)
	if err != nil {
		return amaserr.DbUnavailable(err)
	}
	return nil
}

func (s *AdvisorStore) Get(ctx context.Context, id string) (types.AdvisorSuggestion, error) {
	var payload string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT payload FROM advisor_suggestions WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return types.AdvisorSuggestion{}, amaserr.NotFound("advisor suggestion %q not found", id)
	}
	if err != nil {
		return types.AdvisorSuggestion{}, amaserr.DbUnavailable(err)
	}
	var sug types.AdvisorSuggestion
	if err := json.Unmarshal([]byte(payload), &sug); err != nil {
		return types.AdvisorSuggestion{}, amaserr.DbUnavailable(err)
	}
	return sug, nil
}

func (s *AdvisorStore) List(ctx context.Context, limit int) ([]types.AdvisorSuggestion, error) {
	query := `SELECT payload FROM advisor_suggestions ORDER BY week_end DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, amaserr.DbUnavailable(err)
	}
	defer rows.Close()

	var out []types.AdvisorSuggestion
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, amaserr.DbUnavailable(err)
		}
		var sug types.AdvisorSuggestion
		if err := json.Unmarshal([]byte(payload), &sug); err != nil {
			return nil, amaserr.DbUnavailable(err)
		}
		out = append(out, sug)
	}
	return out, rows.Err()
}

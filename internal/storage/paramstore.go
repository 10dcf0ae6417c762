package storage

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/config"
	"vocab-amas/internal/paramstore"
	"vocab-amas/internal/types"
)

// ParamStore is the durable counterpart to paramstore.InMemoryStore,
// grounded on the same "read current, validate, always append history"
// shape but backed by the parameter_history table instead of an
// in-process map, so a restart does not lose audit history (spec.md
// §4.11 "every update, including no-ops, is appended to history").
type ParamStore struct {
	db *DB

	mu       sync.Mutex // serializes Update's read-then-append across goroutines
	watchers []chan types.ParameterRecord
}

var _ paramstore.Store = (*ParamStore)(nil)

// NewParamStore seeds every whitelisted key at its default if it has no
// history row yet, matching paramstore.NewInMemoryStore's behavior.
func NewParamStore(db *DB) (*ParamStore, error) {
	s := &ParamStore{db: db}
	now := time.Now().UTC()
	for key, spec := range config.Whitelist {
		var count int
		if err := db.conn.QueryRow(`SELECT COUNT(*) FROM parameter_history WHERE key = ?`, key).Scan(&count); err != nil {
			return nil, amaserr.DbUnavailable(err)
		}
		if count > 0 {
			continue
		}
		_, err := db.conn.Exec(
			`INSERT INTO parameter_history (key, version, value, changed_by, changed_reason, previous_value, suggestion_id, updated_at)
			 VALUES (?, 1, ?, 'system', 'seeded default', NULL, '', ?)`,
			key, spec.Default, now.UnixMilli(),
		)
		if err != nil {
			return nil, amaserr.DbUnavailable(err)
		}
	}
	return s, nil
}

func (s *ParamStore) Get(ctx context.Context, key string) (types.ParameterRecord, error) {
	return s.latest(ctx, key)
}

func (s *ParamStore) latest(ctx context.Context, key string) (types.ParameterRecord, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT key, version, value, changed_by, changed_reason, previous_value, suggestion_id, updated_at
		 FROM parameter_history WHERE key = ? ORDER BY version DESC LIMIT 1`, key)
	return scanParameterRecord(row)
}

func scanParameterRecord(row *sql.Row) (types.ParameterRecord, error) {
	var (
		rec           types.ParameterRecord
		value         float64
		previousValue sql.NullFloat64
		suggestionID  sql.NullString
		updatedAtMs   int64
	)
	err := row.Scan(&rec.Key, &rec.Version, &value, &rec.ChangedBy, &rec.ChangedReason, &previousValue, &suggestionID, &updatedAtMs)
	if err == sql.ErrNoRows {
		return types.ParameterRecord{}, amaserr.NotFound("parameter %q not found", rec.Key)
	}
	if err != nil {
		return types.ParameterRecord{}, amaserr.DbUnavailable(err)
	}
	rec.Value = value
	if previousValue.Valid {
		rec.PreviousValue = previousValue.Float64
	}
	if suggestionID.Valid {
		rec.SuggestionID = suggestionID.String
	}
	rec.UpdatedAt = time.UnixMilli(updatedAtMs).UTC()
	return rec, nil
}

func (s *ParamStore) Update(ctx context.Context, key string, value float64, changedBy, reason, suggestionID string) (types.ParameterRecord, error) {
	if !config.IsWhitelisted(key) {
		return types.ParameterRecord{}, amaserr.Validation("parameter %q is not whitelisted", key)
	}
	if err := config.Validate(key, value); err != nil {
		return types.ParameterRecord{}, amaserr.Validation("%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.latest(ctx, key)
	var previous interface{}
	nextVersion := 1
	if err == nil {
		previous = current.Value
		nextVersion = current.Version + 1
	} else if !amaserr.ErrNotFound.Is(err) {
		return types.ParameterRecord{}, err
	}

	now := time.Now().UTC()
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO parameter_history (key, version, value, changed_by, changed_reason, previous_value, suggestion_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key, nextVersion, value, changedBy, reason, previous, suggestionID, now.UnixMilli(),
	)
	if err != nil {
		return types.ParameterRecord{}, amaserr.DbUnavailable(err)
	}

	rec := types.ParameterRecord{
		Key: key, Value: value, Version: nextVersion,
		ChangedBy: changedBy, ChangedReason: reason,
		PreviousValue: previous, SuggestionID: suggestionID, UpdatedAt: now,
	}
	s.broadcast(rec)
	return rec, nil
}

func (s *ParamStore) History(ctx context.Context, key string) ([]types.ParameterRecord, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT key, version, value, changed_by, changed_reason, previous_value, suggestion_id, updated_at
		 FROM parameter_history WHERE key = ? ORDER BY version ASC`, key)
	if err != nil {
		return nil, amaserr.DbUnavailable(err)
	}
	defer rows.Close()

	var out []types.ParameterRecord
	for rows.Next() {
		var (
			rec           types.ParameterRecord
			value         float64
			previousValue sql.NullFloat64
			suggestionID  sql.NullString
			updatedAtMs   int64
		)
		if err := rows.Scan(&rec.Key, &rec.Version, &value, &rec.ChangedBy, &rec.ChangedReason, &previousValue, &suggestionID, &updatedAtMs); err != nil {
			return nil, amaserr.DbUnavailable(err)
		}
		rec.Value = value
		if previousValue.Valid {
			rec.PreviousValue = previousValue.Float64
		}
		if suggestionID.Valid {
			rec.SuggestionID = suggestionID.String
		}
		rec.UpdatedAt = time.UnixMilli(updatedAtMs).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *ParamStore) Watch() <-chan types.ParameterRecord {
	ch := make(chan types.ParameterRecord, 32)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *ParamStore) broadcast(rec types.ParameterRecord) {
	for _, w := range s.watchers {
		select {
		case w <- rec:
		default:
		}
	}
}

package interactionlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const defaultLogTable = "interaction_logs"

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresSink appends entries to the interaction_logs table.
type PostgresSink struct {
	db    Execer
	table string
}

// PostgresOption configures the postgres sink.
type PostgresOption func(*PostgresSink)

// WithTable overrides the target table name.
func WithTable(table string) PostgresOption {
	return func(s *PostgresSink) {
		if table != "" {
			s.table = table
		}
	}
}

// NewPostgresSink constructs a postgres sink.
func NewPostgresSink(db Execer, opts ...PostgresOption) (*PostgresSink, error) {
	if db == nil {
		return nil, errors.New("interactionlog: nil db")
	}
	s := &PostgresSink{db: db, table: defaultLogTable}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Name implements Sink.
func (s *PostgresSink) Name() string { return "postgres" }

// Write implements Sink.
func (s *PostgresSink) Write(ctx context.Context, entry Entry) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("%w: postgres sink not initialized", ErrLogFailure)
	}
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogFailure, err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, kind, prompt, response, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`, s.table)
	if _, err := s.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.Kind),
		entry.Prompt,
		entry.Response,
		string(raw),
		entry.Timestamp.UTC(),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrLogFailure, err)
	}
	return nil
}

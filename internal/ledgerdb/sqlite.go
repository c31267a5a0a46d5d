// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ledgerdb provides a SQLite-backed cost ledger for CLI usage, where
// cost history should survive between runs. The engine core only depends on
// the ledger.Store interface; this backend is wired in by the command layer.
package ledgerdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/maestro-llm/maestro/pkg/ledger"
)

// SQLiteStore implements ledger.Store backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS cost_records (
	id            TEXT PRIMARY KEY,
	execution_id  TEXT NOT NULL,
	strategy      TEXT NOT NULL,
	model         TEXT NOT NULL,
	tokens_in     INTEGER NOT NULL,
	tokens_out    INTEGER NOT NULL,
	cost_usd      REAL NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	seq           INTEGER
);
CREATE INDEX IF NOT EXISTS idx_cost_records_execution ON cost_records(execution_id);
`

// Open creates a SQLite-backed store at the given path.
// The database and schema are created if they don't exist.
func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// WAL mode for better concurrency between writers and readers
	connStr := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append saves a cost record.
func (s *SQLiteStore) Append(ctx context.Context, record ledger.Record) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cost_records (id, execution_id, strategy, model, tokens_in, tokens_out, cost_usd, created_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM cost_records WHERE execution_id = ?))`,
		record.ID, record.ExecutionID, record.Strategy, record.Model,
		record.TokensIn, record.TokensOut, record.CostUSD, record.Timestamp, record.ExecutionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cost record: %w", err)
	}
	return nil
}

// GetByExecutionID retrieves all records for one execution, in append order.
func (s *SQLiteStore) GetByExecutionID(ctx context.Context, executionID string) ([]ledger.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, execution_id, strategy, model, tokens_in, tokens_out, cost_usd, created_at
		FROM cost_records WHERE execution_id = ? ORDER BY seq`, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost records: %w", err)
	}
	defer rows.Close()

	var records []ledger.Record
	for rows.Next() {
		var r ledger.Record
		if err := rows.Scan(&r.ID, &r.ExecutionID, &r.Strategy, &r.Model,
			&r.TokensIn, &r.TokensOut, &r.CostUSD, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan cost record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// AggregateByModel returns aggregates grouped by model ID.
func (s *SQLiteStore) AggregateByModel(ctx context.Context) (map[string]ledger.Aggregate, error) {
	return s.aggregateBy(ctx, "model")
}

// AggregateByStrategy returns aggregates grouped by strategy name.
func (s *SQLiteStore) AggregateByStrategy(ctx context.Context) (map[string]ledger.Aggregate, error) {
	return s.aggregateBy(ctx, "strategy")
}

func (s *SQLiteStore) aggregateBy(ctx context.Context, column string) (map[string]ledger.Aggregate, error) {
	// column is one of the fixed identifiers above, never user input
	query := fmt.Sprintf(`
		SELECT %s, SUM(cost_usd), SUM(tokens_in), SUM(tokens_out), COUNT(*)
		FROM cost_records GROUP BY %s`, column, column)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate cost records: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ledger.Aggregate)
	for rows.Next() {
		var key string
		var agg ledger.Aggregate
		if err := rows.Scan(&key, &agg.TotalCostUSD, &agg.TotalTokensIn, &agg.TotalTokensOut, &agg.InvocationCount); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		out[key] = agg
	}
	return out, rows.Err()
}

// Total returns the aggregate over all records.
func (s *SQLiteStore) Total(ctx context.Context) (ledger.Aggregate, error) {
	var agg ledger.Aggregate
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(cost_usd), 0), COALESCE(SUM(tokens_in), 0),
		       COALESCE(SUM(tokens_out), 0), COUNT(*)
		FROM cost_records`).
		Scan(&agg.TotalCostUSD, &agg.TotalTokensIn, &agg.TotalTokensOut, &agg.InvocationCount)
	if err != nil {
		return ledger.Aggregate{}, fmt.Errorf("failed to aggregate cost records: %w", err)
	}
	return agg, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

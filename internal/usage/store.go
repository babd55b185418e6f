// Package usage keeps a ledger of LLM calls: stage, model, token counts and
// estimated cost. Prompts, diagrams and answers are never stored.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/diagramdive/internal/db"
	"github.com/ziadkadry99/diagramdive/internal/llm"
)

// Store records and summarizes LLM usage. It implements llm.Recorder.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// RecordCall inserts one ledger row for call.
func (s *Store) RecordCall(ctx context.Context, call llm.Call) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_usage (
			id, created_at, stage, provider, model,
			input_tokens, output_tokens, cost_usd, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		s.now().UTC().Format(time.DateTime),
		call.Stage,
		call.Provider,
		call.Model,
		call.InputTokens,
		call.OutputTokens,
		call.CostUSD,
		call.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting usage row: %w", err)
	}
	return nil
}

// Line is one row of a usage summary.
type Line struct {
	Stage        string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Summary aggregates the ledger by stage and model.
type Summary struct {
	Lines        []Line
	Calls        int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Summary aggregates every call recorded at or after since. A zero since
// covers the whole ledger.
func (s *Store) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, model, COUNT(*), SUM(input_tokens), SUM(output_tokens), SUM(cost_usd)
		FROM llm_usage
		WHERE created_at >= ?
		GROUP BY stage, model
		ORDER BY stage, model`,
		since.UTC().Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("querying usage: %w", err)
	}
	defer rows.Close()

	sum := &Summary{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.Stage, &l.Model, &l.Calls, &l.InputTokens, &l.OutputTokens, &l.CostUSD); err != nil {
			return nil, fmt.Errorf("scanning usage row: %w", err)
		}
		sum.Lines = append(sum.Lines, l)
		sum.Calls += l.Calls
		sum.InputTokens += l.InputTokens
		sum.OutputTokens += l.OutputTokens
		sum.CostUSD += l.CostUSD
	}
	return sum, rows.Err()
}

// Prune deletes rows older than before and reports how many were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM llm_usage WHERE created_at < ?`,
		before.UTC().Format(time.DateTime))
	if err != nil {
		return 0, fmt.Errorf("pruning usage: %w", err)
	}
	return res.RowsAffected()
}

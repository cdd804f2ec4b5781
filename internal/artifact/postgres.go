package artifact

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
)

// PostgresSink mirrors every JournalRow into a shadow_journal table for
// retention beyond the bounded CSV window (SPEC_FULL.md §3/§5). It is
// strictly additive: nothing in L14's correctness properties (§8) or
// Store depends on it, and a sink failure is logged by the caller, never
// escalated past the pipeline (§7 Propagation policy).
type PostgresSink struct {
	db *sqlx.DB
}

// NewPostgresSink wraps an already-open *sqlx.DB. Opening/pooling the
// connection is the caller's concern (an out-of-scope collaborator per
// §1); this type only knows how to write one table.
func NewPostgresSink(db *sqlx.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// CreateTableIfNotExists provisions shadow_journal with one column per
// JournalColumns entry (all text, matching the CSV's own pre-formatted
// string values) plus an identity primary key and insert timestamp.
func (s *PostgresSink) CreateTableIfNotExists(ctx context.Context) error {
	cols := make([]string, 0, len(JournalColumns))
	for _, c := range JournalColumns {
		cols = append(cols, fmt.Sprintf("%s TEXT", c))
	}
	stmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS shadow_journal (
			id BIGSERIAL PRIMARY KEY,
			inserted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			%s
		)`, joinComma(cols))
	_, err := s.db.ExecContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("artifact: create shadow_journal: %w", err)
	}
	return nil
}

// Append inserts one JournalRow, using the same JournalColumns ordering
// as the CSV so the two sinks never drift (§9 DESIGN NOTES "Journal schema").
func (s *PostgresSink) Append(ctx context.Context, row JournalRow) error {
	placeholders := make([]string, len(JournalColumns))
	args := make([]interface{}, len(JournalColumns))
	for i, c := range JournalColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[c]
	}
	stmt := fmt.Sprintf(
		`INSERT INTO shadow_journal (%s) VALUES (%s)`,
		joinComma(JournalColumns), joinComma(placeholders),
	)
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("artifact: insert shadow_journal row: %w", err)
	}
	return nil
}

func joinComma(ss []string) string {
	out := ss[0]
	for _, s := range ss[1:] {
		out += ", " + s
	}
	return out
}

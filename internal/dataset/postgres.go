package dataset

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Writer = (*PostgresWriter)(nil)

// PostgresWriter copies pairs into a PostgreSQL table. Each row is tagged
// with the run ID and its position in the batch, so several runs can share
// one table.
//
// PostgresWriter is safe for concurrent use.
type PostgresWriter struct {
	pool  *pgxpool.Pool
	table pgx.Identifier
	runID string
}

// NewPostgresWriter connects to dsn and ensures table exists.
func NewPostgresWriter(ctx context.Context, dsn, table, runID string) (*PostgresWriter, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("dataset: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("dataset: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dataset: ping: %w", err)
	}

	w := &PostgresWriter{pool: pool, table: pgx.Identifier{table}, runID: runID}
	if err := w.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dataset: migrate: %w", err)
	}
	return w, nil
}

func (w *PostgresWriter) migrate(ctx context.Context) error {
	name := w.table.Sanitize()
	index := pgx.Identifier{w.table[0] + "_run_id_idx"}.Sanitize()
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS ` + name + ` (
    id         BIGSERIAL   PRIMARY KEY,
    run_id     TEXT        NOT NULL,
    seq        INTEGER     NOT NULL,
    befr       TEXT        NOT NULL,
    en         TEXT        NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS ` + index + ` ON ` + name + ` (run_id, seq)`,
	} {
		if _, err := w.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Write implements [Writer] with a single COPY.
func (w *PostgresWriter) Write(ctx context.Context, pairs []Pair) error {
	n, err := w.pool.CopyFrom(ctx, w.table,
		[]string{"run_id", "seq", "befr", "en"},
		pgx.CopyFromSlice(len(pairs), func(i int) ([]any, error) {
			return []any{w.runID, int32(i), pairs[i].Befr, pairs[i].En}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("dataset: copy into %s: %w", w.table.Sanitize(), err)
	}
	if int(n) != len(pairs) {
		return fmt.Errorf("dataset: copy into %s: wrote %d of %d rows", w.table.Sanitize(), n, len(pairs))
	}
	return nil
}

// Pairs returns the pairs stored for runID in batch order.
func (w *PostgresWriter) Pairs(ctx context.Context, runID string) ([]Pair, error) {
	rows, err := w.pool.Query(ctx,
		`SELECT befr, en FROM `+w.table.Sanitize()+` WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("dataset: query pairs: %w", err)
	}
	pairs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Pair, error) {
		var p Pair
		err := row.Scan(&p.Befr, &p.En)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: scan pairs: %w", err)
	}
	return pairs, nil
}

// Close releases the connection pool.
func (w *PostgresWriter) Close() {
	w.pool.Close()
}

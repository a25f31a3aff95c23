package dataset

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrWong99/phonoshift/pkg/rules"
)

// Schema is the SQL DDL for the training_pairs table. Execute it via
// [PostgresStore.Migrate] or apply it during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS training_pairs (
    id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    speaker    TEXT NOT NULL,
    seq        INTEGER NOT NULL,
    target     TEXT NOT NULL,
    actual     TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_training_pairs_speaker ON training_pairs(speaker, seq);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresStore is a [Store] backed by PostgreSQL.
type PostgresStore struct {
	db DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store on db. Call [PostgresStore.Migrate] before
// the first query.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the training_pairs table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("dataset: migrate: %w", err)
	}
	return nil
}

// Pairs implements [Store].
func (s *PostgresStore) Pairs(ctx context.Context, speaker string) ([]rules.Pair, error) {
	const query = `
		SELECT target, actual
		FROM training_pairs
		WHERE speaker = $1
		ORDER BY seq`

	rows, err := s.db.Query(ctx, query, speaker)
	if err != nil {
		return nil, fmt.Errorf("dataset: pairs %s: %w", speaker, err)
	}
	defer rows.Close()

	var pairs []rules.Pair
	for rows.Next() {
		var p rules.Pair
		if err := rows.Scan(&p.Target, &p.Actual); err != nil {
			return nil, fmt.Errorf("dataset: scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset: pairs %s: %w", speaker, err)
	}
	return pairs, nil
}

// Replace implements [Store]. The delete and the insert run as one statement
// so readers never observe a partial data set.
func (s *PostgresStore) Replace(ctx context.Context, speaker string, pairs []rules.Pair) error {
	const query = `
		WITH cleared AS (
			DELETE FROM training_pairs WHERE speaker = $1
		)
		INSERT INTO training_pairs (speaker, seq, target, actual)
		SELECT $1, p.ord, p.target, p.actual
		FROM unnest($2::text[], $3::text[]) WITH ORDINALITY AS p(target, actual, ord)`

	targets := make([]string, len(pairs))
	actuals := make([]string, len(pairs))
	for i, p := range pairs {
		targets[i], actuals[i] = p.Target, p.Actual
	}
	if _, err := s.db.Exec(ctx, query, speaker, targets, actuals); err != nil {
		return fmt.Errorf("dataset: replace %s: %w", speaker, err)
	}
	return nil
}

// Speakers implements [Store].
func (s *PostgresStore) Speakers(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT speaker FROM training_pairs ORDER BY speaker`)
	if err != nil {
		return nil, fmt.Errorf("dataset: speakers: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("dataset: speakers: %w", err)
	}
	return names, nil
}

// Ping implements [Store].
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("dataset: ping: %w", err)
	}
	return nil
}

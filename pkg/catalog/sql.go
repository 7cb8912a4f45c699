package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
)

// DefaultSQLTable is the table used when SQLStore is given no table name
const DefaultSQLTable = "tenantgate_kv"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQLStore keeps the cache record in a two-column table. The queries use
// $N placeholders and ON CONFLICT upserts, which PostgreSQL and SQLite both accept.
type SQLStore struct {
	db    *sql.DB
	table string
}

// NewSQLStore wraps db. The table is created by Migrate.
func NewSQLStore(db *sql.DB, table string) (*SQLStore, error) {
	if table == "" {
		table = DefaultSQLTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLStore{db: db, table: table}, nil
}

// Migrate creates the backing table when it does not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		cache_key   TEXT PRIMARY KEY,
		cache_value TEXT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT cache_value FROM ` + s.table + ` WHERE cache_key = $1`

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sql get failed: %w", err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO ` + s.table + ` (cache_key, cache_value) VALUES ($1, $2)
		ON CONFLICT (cache_key) DO UPDATE SET cache_value = EXCLUDED.cache_value`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("sql set failed: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM ` + s.table + ` WHERE cache_key = $1`
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("sql delete failed: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

package stats

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion tracks the on-disk layout. A bump invalidates existing
// statistics databases; they are rebuilt from scratch, not migrated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible
// sortify version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema creates the schema on a fresh database and verifies the
// recorded version on an existing one.
func (s *Store) initSchema(ctx context.Context) error {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == nil:
		if version != schemaVersion {
			return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
				ErrSchemaMismatch, version, schemaVersion, s.path)
		}
		return nil
	case errors.Is(err, sql.ErrNoRows) || isMissingTable(err):
		return s.createSchema(ctx)
	default:
		return fmt.Errorf("read schema version: %w", err)
	}
}

// isMissingTable matches the prepare error modernc/sqlite returns when the
// schema_version table has never been created.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

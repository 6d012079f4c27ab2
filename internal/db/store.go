// Package db owns the local SQLite database behind the offline
// caches. Store handles file creation, pragmas and schema migrations;
// the per-table stores build on its handle.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database used for local data storage.
type Store struct {
	db *sql.DB
}

// Pragmas applied on every open. WAL lets readers coexist with the
// writer, and busy_timeout covers the short write lock the caches
// take during upserts and prunes.
var openPragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
	"PRAGMA synchronous=NORMAL;",
}

// Each entry moves the schema one version forward. The statements run
// in one transaction together with the user_version bump, so a failed
// step leaves the database at the previous version.
var migrations = [][]string{
	{ // v1: AI summary cache
		`CREATE TABLE IF NOT EXISTS ai_summaries (
  account_email TEXT NOT NULL,
  message_id    TEXT NOT NULL,
  summary       TEXT NOT NULL,
  updated_at    INTEGER NOT NULL,
  PRIMARY KEY (account_email, message_id)
);`,
	},
	{ // v2: offline message body cache, indexed for age-based pruning
		`CREATE TABLE IF NOT EXISTS message_bodies (
  account_email TEXT NOT NULL,
  message_id    TEXT NOT NULL,
  plain_text    TEXT NOT NULL,
  updated_at    INTEGER NOT NULL,
  PRIMARY KEY (account_email, message_id)
);`,
		`CREATE INDEX IF NOT EXISTS idx_message_bodies_updated_at ON message_bodies(updated_at);`,
	},
}

// Open opens the database at path, creating the file and any parent
// directories on first use, and migrates the schema to the current
// version.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("could not create database directory: %w", err)
	}
	// Create the file ourselves so it gets 0600 rather than whatever
	// the driver would choose.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not create database file: %w", err)
	}
	f.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	for _, pragma := range openPragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for ; current < len(migrations); current++ {
		if err := s.applyMigration(ctx, current+1, migrations[current]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, version int, stmts []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate to schema v%d: %w", version, err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d;", version)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migrate to schema v%d: %w", version, err)
	}
	return tx.Commit()
}

// Close closes the database. A nil Store is a no-op so callers can
// defer Close unconditionally.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the handle for the per-table stores.
func (s *Store) DB() *sql.DB {
	return s.db
}

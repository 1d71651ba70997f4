// Package sqlite persists wiki entities and the term-based relevance index,
// and executes the search plans built by the query executor.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Operation names for error context.
const (
	OpMigrate       = "migrate"
	OpSaveEntity    = "save entity"
	OpDeleteEntity  = "delete entity"
	OpListEntities  = "list entities"
	OpReplaceTerms  = "replace terms"
	OpInsertTerms   = "insert terms"
	OpDeleteTerms   = "delete terms"
	OpTruncateTerms = "truncate terms"
	OpListTerms     = "list terms"
	OpRunPlan       = "run plan"
	OpCountPlan     = "count plan"
	OpTag           = "tag entity"
	OpView          = "record view"
	OpComment       = "add comment"
	OpGrant         = "grant permission"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "sqlite: " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Store is the SQLite-backed wiki store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
// The path ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every pool connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database availability.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// entityColumns are the columns shared by every entity table.
const entityColumns = `
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	slug TEXT NOT NULL DEFAULT '',
	restricted INTEGER NOT NULL DEFAULT 0,
	created_by INTEGER NOT NULL DEFAULT 0,
	updated_by INTEGER NOT NULL DEFAULT 0,
	owned_by INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL`

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS bookshelves (` + entityColumns + `,
			description TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS books (` + entityColumns + `,
			description TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS chapters (` + entityColumns + `,
			description TEXT NOT NULL DEFAULT '',
			book_id INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS pages (` + entityColumns + `,
			text TEXT NOT NULL DEFAULT '',
			book_id INTEGER NOT NULL DEFAULT 0,
			chapter_id INTEGER NOT NULL DEFAULT 0
		)`,

		// Key/value tags attached polymorphically to any entity.
		`CREATE TABLE IF NOT EXISTS tags (
			entity_type TEXT NOT NULL,
			entity_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tags_entity ON tags(entity_type, entity_id)`,

		// Per-user view counters, consumed by the viewed_by_me filters.
		`CREATE TABLE IF NOT EXISTS views (
			user_id INTEGER NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id INTEGER NOT NULL,
			views INTEGER NOT NULL DEFAULT 1,
			UNIQUE(user_id, entity_type, entity_id)
		)`,

		`CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_type TEXT NOT NULL,
			entity_id INTEGER NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			created_by INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_entity ON comments(entity_type, entity_id)`,

		// Per-actor grants consulted for restricted rows.
		`CREATE TABLE IF NOT EXISTS entity_permissions (
			entity_type TEXT NOT NULL,
			entity_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			action TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entity_permissions ON entity_permissions(entity_type, entity_id)`,

		// The relevance index. Deliberately no uniqueness across
		// (term, entity_type, entity_id): duplicates within one reindex
		// are summed at query time.
		`CREATE TABLE IF NOT EXISTS search_terms (
			term TEXT NOT NULL,
			score REAL NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_terms_term ON search_terms(term)`,
		`CREATE INDEX IF NOT EXISTS idx_search_terms_entity ON search_terms(entity_type, entity_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return &Error{Op: OpMigrate, Err: err}
		}
	}
	return nil
}

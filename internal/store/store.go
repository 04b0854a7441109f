// ABOUTME: Core SQLite store holding content items, meta, terms, users and options.
// ABOUTME: Handles database initialization, migrations, and connection management.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// Migration version constants
const (
	MigrationV1 = 1 // Initial content schema
	MigrationV2 = 2 // Indexes for meta lookups, term joins and listing order
)

// CurrentSchemaVersion is the target version for the database schema
const CurrentSchemaVersion = MigrationV2

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db   *sql.DB
	host *host
}

// dsnParams apply to every pooled connection, not just the first.
const dsnParams = "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, err
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	// journal_mode is persistent in the file; synchronous only tunes speed.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &Store{db: db, host: newHost()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate runs all pending migrations
func (s *Store) migrate() error {
	if err := s.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := s.getCurrentMigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	log.Printf("Database schema version: %d, target version: %d", currentVersion, CurrentSchemaVersion)

	if currentVersion < MigrationV1 {
		if err := s.migrateV1(); err != nil {
			return fmt.Errorf("migration v1 failed: %w", err)
		}
	}

	if currentVersion < MigrationV2 {
		if err := s.migrateV2(); err != nil {
			return fmt.Errorf("migration v2 failed: %w", err)
		}
	}

	return nil
}

func (s *Store) createMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			description TEXT
		)
	`)
	return err
}

func (s *Store) getCurrentMigrationVersion() (int, error) {
	var version int
	err := s.db.QueryRow(`
		SELECT COALESCE(MAX(version), 0) FROM schema_migrations
	`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *Store) recordMigration(version int, description string) error {
	_, err := s.db.Exec(`
		INSERT INTO schema_migrations (version, description)
		VALUES (?, ?)
	`, version, description)
	return err
}

// migrateV1 creates the content tables
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		login TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'subscriber',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		slug TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		author_id INTEGER NOT NULL DEFAULT 0,
		parent_id INTEGER NOT NULL DEFAULT 0,
		menu_order INTEGER NOT NULL DEFAULT 0,
		guid TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL DEFAULT '',
		date_gmt TEXT NOT NULL DEFAULT '',
		modified TEXT NOT NULL DEFAULT '',
		modified_gmt TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS postmeta (
		meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		meta_key TEXT NOT NULL,
		meta_value TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS terms (
		term_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		term_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS term_taxonomy (
		term_taxonomy_id INTEGER PRIMARY KEY AUTOINCREMENT,
		term_id INTEGER NOT NULL REFERENCES terms(term_id) ON DELETE CASCADE,
		taxonomy TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		parent INTEGER NOT NULL DEFAULT 0,
		UNIQUE(term_id, taxonomy)
	);

	CREATE TABLE IF NOT EXISTS term_relationships (
		object_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		term_taxonomy_id INTEGER NOT NULL REFERENCES term_taxonomy(term_taxonomy_id) ON DELETE CASCADE,
		PRIMARY KEY (object_id, term_taxonomy_id)
	);

	CREATE TABLE IF NOT EXISTS options (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if err := s.recordMigration(MigrationV1, "Create content tables"); err != nil {
		return err
	}

	log.Printf("Applied migration v%d: Create content tables", MigrationV1)
	return nil
}

// migrateV2 adds indexes for the listing queries
func (s *Store) migrateV2() error {
	indexes := []string{
		// Listing by type and status, newest first
		"CREATE INDEX IF NOT EXISTS idx_posts_type_status_date ON posts(type, status, date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_posts_type_slug ON posts(type, slug)",

		// Meta filters look up by post and key, distinct value lists by key
		"CREATE INDEX IF NOT EXISTS idx_postmeta_post_key ON postmeta(post_id, meta_key)",
		"CREATE INDEX IF NOT EXISTS idx_postmeta_key_value ON postmeta(meta_key, meta_value)",

		"CREATE INDEX IF NOT EXISTS idx_term_taxonomy_taxonomy ON term_taxonomy(taxonomy)",
		"CREATE INDEX IF NOT EXISTS idx_terms_slug ON terms(slug)",
		"CREATE INDEX IF NOT EXISTS idx_term_relationships_tt ON term_relationships(term_taxonomy_id)",
	}

	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := s.recordMigration(MigrationV2, "Add listing indexes"); err != nil {
		return err
	}

	log.Printf("Applied migration v%d: Add listing indexes", MigrationV2)
	return nil
}

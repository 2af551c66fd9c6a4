package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB holds the write pool and a query-only pool for fetches.
// Statements run through the reader cannot modify the database.
type DB struct {
	*sql.DB
	reader *sql.DB
}

func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	file, _, _ := strings.Cut(strings.TrimPrefix(dbPath, "file:"), "?")
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// busy_timeout applies per connection, so it goes in the DSN
	db, err := openPool(dsn(dbPath, url.Values{"_busy_timeout": {"5000"}}))
	if err != nil {
		return nil, err
	}

	// Enable WAL mode so readers don't block the writer
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	reader, err := openPool(dsn(dbPath, url.Values{"_busy_timeout": {"5000"}, "_query_only": {"true"}}))
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db, reader: reader}, nil
}

func openPool(dataSource string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSource)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return db, nil
}

// dsn appends driver parameters to dbPath, keeping any query it already has
func dsn(dbPath string, params url.Values) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + params.Encode()
}

// Reader returns the query-only pool
func (db *DB) Reader() *sql.DB {
	return db.reader
}

func (db *DB) Migrate() error {
	queries := []string{
		// AUTOINCREMENT keeps ids monotonic and never reuses a deleted id.
		// BOOLEAN makes the driver scan done back as a Go bool.
		`CREATE TABLE IF NOT EXISTS tasks (
			_id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT,
			description TEXT,
			priority INTEGER,
			done BOOLEAN
		)`,

		`CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func (db *DB) Close() error {
	readerErr := db.reader.Close()
	if err := db.DB.Close(); err != nil {
		return err
	}
	return readerErr
}

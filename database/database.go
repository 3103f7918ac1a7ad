package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

// LookupRecord is one explored song. The credential used for the lookup is
// never stored.
type LookupRecord struct {
	ID         int64
	Query      string
	Title      string
	Artist     string
	Path       string
	Found      bool
	Strategy   string
	WordCount  int
	LookedUpAt time.Time
}

// New opens (and migrates) the sqlite file at dbPath, creating its directory.
func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		return nil, errors.New("database path is required")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Lookup history initialized at %s", dbPath)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS lookup_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			artist TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT '',
			found INTEGER NOT NULL DEFAULT 0,
			strategy TEXT NOT NULL DEFAULT '',
			word_count INTEGER NOT NULL DEFAULT 0,
			looked_up_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lookup_history_looked_up_at ON lookup_history(looked_up_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// Record inserts a lookup.
func (d *Database) Record(r LookupRecord) error {
	at := r.LookedUpAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := d.db.Exec(
		`INSERT INTO lookup_history (query, title, artist, path, found, strategy, word_count, looked_up_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Query, r.Title, r.Artist, r.Path, r.Found, r.Strategy, r.WordCount, at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record lookup: %w", err)
	}
	return nil
}

// Recent returns the newest lookups first.
func (d *Database) Recent(limit int) ([]LookupRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.Query(
		`SELECT id, query, title, artist, path, found, strategy, word_count, looked_up_at
		 FROM lookup_history
		 ORDER BY looked_up_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []LookupRecord
	for rows.Next() {
		var r LookupRecord
		var at string
		if err := rows.Scan(&r.ID, &r.Query, &r.Title, &r.Artist, &r.Path, &r.Found, &r.Strategy, &r.WordCount, &at); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if r.LookedUpAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			log.Warnf("failed to parse looked_up_at timestamp '%s': %v", at, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Package history persists completed translations for the get_history UI
// query. Grounded on the teacher's trace.Store (internal/trace/store.go)
// for the sql.Open/migrate shape, adapted from Postgres/pgx to SQLite (this
// is a single-process desktop store, not a shared server-side sink) and
// on trace.Tracer (internal/trace/tracer.go) for the async buffered-channel
// writer, domain-rewritten from call-session spans to translation records.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// maxHistoryRows bounds the table so a long-running session doesn't grow
// the database file without limit; oldest rows are pruned on insert.
const maxHistoryRows = 5000

// Record is one completed translation.
type Record struct {
	ID         string
	SourceLang string
	TargetLang string
	SourceText string
	Translated string
	Mode       string
	CreatedAt  time.Time
}

// Store persists Records to SQLite.
type Store struct {
	db *sql.DB
}

// Open connects to (creating if absent) a SQLite history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("history open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			source_lang TEXT NOT NULL,
			target_lang TEXT NOT NULL,
			source_text TEXT NOT NULL,
			translated TEXT NOT NULL,
			mode TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at)`)
	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert records one translation and prunes the oldest rows past
// maxHistoryRows.
func (s *Store) Insert(r Record) error {
	_, err := s.db.Exec(
		`INSERT INTO history (id, source_lang, target_lang, source_text, translated, mode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SourceLang, r.TargetLang, r.SourceText, r.Translated, r.Mode, r.CreatedAt.UTC().Unix(),
	)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY created_at DESC LIMIT ?)`,
		maxHistoryRows,
	)
	return err
}

// List returns the most recent records, newest first, bounded by limit.
func (s *Store) List(limit int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, source_lang, target_lang, source_text, translated, mode, created_at
		 FROM history ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.SourceLang, &r.TargetLang, &r.SourceText, &r.Translated, &r.Mode, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

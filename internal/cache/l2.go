package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" driver
)

// L2DefaultTTL and L2CleanupInterval match the spec's on-disk tier: a
// week-long retention with hourly sweeps rather than per-read lazy eviction,
// since the table can grow far larger than L1's in-memory bound.
const (
	L2DefaultTTL      = 7 * 24 * time.Hour
	L2CleanupInterval = time.Hour
)

// L2 is the on-disk SQLite cache tier. It holds two handles to the same
// database: a single-connection writer (SQLite allows one writer at a time
// under WAL) and a pooled reader, mirroring the teacher's single-writer
// discipline for SQLite-backed stores.
type L2 struct {
	writer *sql.DB
	reader *sql.DB
	ttl    time.Duration

	stopCleanup chan struct{}
}

// OpenL2 opens (creating if absent) a SQLite cache database at path in WAL
// mode and runs migrations.
func OpenL2(path string, ttl time.Duration) (*L2, error) {
	writer, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("cache l2 open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&mode=ro")
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("cache l2 open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	if err = migrateL2(writer); err != nil {
		writer.Close()
		reader.Close()
		return nil, fmt.Errorf("cache l2 migrate: %w", err)
	}

	l2 := &L2{writer: writer, reader: reader, ttl: ttl, stopCleanup: make(chan struct{})}
	go l2.cleanupLoop()
	return l2, nil
}

func migrateL2(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS translation_cache (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_cache_created_at ON translation_cache(created_at)`)
	return err
}

// Get returns the cached value for key if present, applying TTL at read
// time (a row past TTL is treated as a miss even if the hourly sweep hasn't
// reaped it yet).
func (c *L2) Get(key string) (string, bool) {
	var value string
	var createdAt int64
	row := c.reader.QueryRow(`SELECT value, created_at FROM translation_cache WHERE key = ?`, key)
	if err := row.Scan(&value, &createdAt); err != nil {
		return "", false
	}
	if time.Since(time.Unix(createdAt, 0)) > c.ttl {
		return "", false
	}
	return value, true
}

// Put upserts key's value with the current timestamp.
func (c *L2) Put(key, value string) error {
	_, err := c.writer.Exec(
		`INSERT INTO translation_cache (key, value, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`,
		key, value, time.Now().Unix(),
	)
	return err
}

func (c *L2) cleanupLoop() {
	ticker := time.NewTicker(L2CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweepExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *L2) sweepExpired() {
	cutoff := time.Now().Add(-c.ttl).Unix()
	c.writer.Exec(`DELETE FROM translation_cache WHERE created_at < ?`, cutoff)
}

// Close stops the cleanup loop and closes both handles.
func (c *L2) Close() error {
	close(c.stopCleanup)
	c.reader.Close()
	return c.writer.Close()
}

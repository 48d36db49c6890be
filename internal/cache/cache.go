// Package cache is a sqlite-backed TTL cache for command results. Writers
// serialize through a flock file so concurrent CLI invocations sharing a
// cache directory do not trip over each other.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

const lockAcquireTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS results (
	key       TEXT PRIMARY KEY,
	payload   BLOB NOT NULL,
	stored_at INTEGER NOT NULL,
	ttl_s     INTEGER NOT NULL
);`

// Store holds cached command payloads keyed by command path + request hash.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

// Result reports a lookup. Stale means the entry outlived its TTL; TooStale
// means it also outlived the caller's extra stale budget and must not be
// served.
type Result struct {
	Hit      bool
	Value    []byte
	Age      time.Duration
	Stale    bool
	TooStale bool
}

// Open creates the cache database and lock file, creating parent directories
// as needed. Entries past their TTL are pruned on open.
func Open(path, lockPath string) (*Store, error) {
	for _, dir := range []string{filepath.Dir(path), filepath.Dir(lockPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	for _, stmt := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA synchronous=NORMAL;", schema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init cache schema: %w", err)
		}
	}

	store := &Store{db: db, lock: flock.New(lockPath)}
	_ = store.Prune()
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Prune deletes entries whose TTL has fully elapsed. Entries inside a stale
// budget are kept since a later fetch failure may still want them.
func (s *Store) Prune() error {
	if s == nil || s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("DELETE FROM results WHERE stored_at + ttl_s < ?", time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}
	return nil
}

// Get looks up a key. maxStale extends how far past its TTL an entry may be
// served; a negative maxStale disables the TooStale cutoff entirely.
func (s *Store) Get(key string, maxStale time.Duration) (Result, error) {
	row := s.db.QueryRow("SELECT payload, stored_at, ttl_s FROM results WHERE key = ?", key)

	var payload []byte
	var storedUnix, ttlSeconds int64
	if err := row.Scan(&payload, &storedUnix, &ttlSeconds); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("cache read: %w", err)
	}

	age := time.Since(time.Unix(storedUnix, 0).UTC())
	if age < 0 {
		age = 0
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	stale := age > ttl

	return Result{
		Hit:      true,
		Value:    payload,
		Age:      age,
		Stale:    stale,
		TooStale: stale && maxStale >= 0 && age > ttl+maxStale,
	}, nil
}

// Set stores a payload under key. The flock is held only for the write so
// readers never block on it.
func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	locked, err := s.lock.TryLockContext(context.Background(), lockAcquireTimeout)
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock cache: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	ttlSeconds := int64(ttl.Seconds())
	if ttlSeconds <= 0 {
		ttlSeconds = 1
	}
	_, err = s.db.Exec(`
		INSERT INTO results (key, payload, stored_at, ttl_s)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload=excluded.payload,
			stored_at=excluded.stored_at,
			ttl_s=excluded.ttl_s
	`, key, value, time.Now().UTC().Unix(), ttlSeconds)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

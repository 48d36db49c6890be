package watch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/scrollkit/scroll-cli/internal/model"
)

// ErrSessionKeyNotFound is returned when a label has no stored record.
var ErrSessionKeyNotFound = errors.New("session key not found")

// Store persists watch cursors and session-key records between CLI
// invocations.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

func OpenStore(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create watch store directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create watch lock directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open watch sqlite: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS watch_cursors (
			watch_id TEXT PRIMARY KEY,
			chain_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			cursor INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_keys (
			label TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init watch schema: %w", err)
		}
	}
	return &Store{db: db, lock: flock.New(lockPath)}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) withLock(fn func() error) error {
	locked, err := s.lock.TryLockContext(context.Background(), 5*time.Second)
	if err != nil {
		return fmt.Errorf("lock watch store: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock watch store: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

// Cursor returns the stored cursor for a watch. ok is false when the
// watch has never been seeded.
func (s *Store) Cursor(watchID string) (uint64, bool, error) {
	var cursor uint64
	err := s.db.QueryRow("SELECT cursor FROM watch_cursors WHERE watch_id = ?", watchID).Scan(&cursor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read watch cursor: %w", err)
	}
	return cursor, true, nil
}

// SaveCursor stores a cursor, refusing to move it backwards.
func (s *Store) SaveCursor(watchID, chainID, kind string, cursor uint64) error {
	if strings.TrimSpace(watchID) == "" {
		return fmt.Errorf("save watch cursor: missing watch id")
	}
	return s.withLock(func() error {
		existing, ok, err := s.Cursor(watchID)
		if err != nil {
			return err
		}
		if ok && cursor < existing {
			return nil
		}
		_, err = s.db.Exec(`
			INSERT INTO watch_cursors (watch_id, chain_id, kind, cursor, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(watch_id) DO UPDATE SET
				cursor=excluded.cursor,
				updated_at=excluded.updated_at
		`, watchID, chainID, kind, cursor, time.Now().UTC().Unix())
		if err != nil {
			return fmt.Errorf("save watch cursor: %w", err)
		}
		return nil
	})
}

// ResetCursor removes a watch's stored cursor so the next poll reseeds.
func (s *Store) ResetCursor(watchID string) error {
	return s.withLock(func() error {
		if _, err := s.db.Exec("DELETE FROM watch_cursors WHERE watch_id = ?", watchID); err != nil {
			return fmt.Errorf("reset watch cursor: %w", err)
		}
		return nil
	})
}

func (s *Store) SaveSessionKey(record model.SessionKeyRecord) error {
	if strings.TrimSpace(record.Label) == "" {
		return fmt.Errorf("save session key: missing label")
	}
	return s.withLock(func() error {
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal session key: %w", err)
		}
		now := time.Now().UTC().Unix()
		created := record.CreatedUNIX
		if created == 0 {
			created = now
		}
		_, err = s.db.Exec(`
			INSERT INTO session_keys (label, payload, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(label) DO UPDATE SET
				payload=excluded.payload,
				updated_at=excluded.updated_at
		`, record.Label, payload, created, now)
		if err != nil {
			return fmt.Errorf("save session key: %w", err)
		}
		return nil
	})
}

func (s *Store) SessionKey(label string) (model.SessionKeyRecord, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM session_keys WHERE label = ?", label).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SessionKeyRecord{}, fmt.Errorf("%w: %s", ErrSessionKeyNotFound, label)
		}
		return model.SessionKeyRecord{}, fmt.Errorf("read session key: %w", err)
	}
	var record model.SessionKeyRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return model.SessionKeyRecord{}, fmt.Errorf("decode session key: %w", err)
	}
	return record, nil
}

func (s *Store) ListSessionKeys() ([]model.SessionKeyRecord, error) {
	rows, err := s.db.Query("SELECT payload FROM session_keys ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list session keys: %w", err)
	}
	defer rows.Close()

	records := make([]model.SessionKeyRecord, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan session key row: %w", err)
		}
		var record model.SessionKeyRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("decode session key row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session key rows: %w", err)
	}
	return records, nil
}

func (s *Store) RevokeSessionKey(label string) (model.SessionKeyRecord, error) {
	record, err := s.SessionKey(label)
	if err != nil {
		return model.SessionKeyRecord{}, err
	}
	record.Revoked = true
	if err := s.SaveSessionKey(record); err != nil {
		return model.SessionKeyRecord{}, err
	}
	return record, nil
}

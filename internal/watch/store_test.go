package watch

import (
	"path/filepath"
	"testing"

	"github.com/scrollkit/scroll-cli/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := OpenStore(filepath.Join(dir, "watch.db"), filepath.Join(dir, "watch.lock"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCursorRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if _, ok, err := store.Cursor("w1"); err != nil || ok {
		t.Fatalf("expected missing cursor, got ok=%v err=%v", ok, err)
	}
	if err := store.SaveCursor("w1", "eip155:534352", KindNewBlock, 100); err != nil {
		t.Fatalf("SaveCursor failed: %v", err)
	}
	cursor, ok, err := store.Cursor("w1")
	if err != nil || !ok || cursor != 100 {
		t.Fatalf("unexpected cursor read: cursor=%d ok=%v err=%v", cursor, ok, err)
	}
}

func TestSaveCursorNeverMovesBackwards(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveCursor("w1", "eip155:534352", KindNewBlock, 100); err != nil {
		t.Fatalf("SaveCursor failed: %v", err)
	}
	if err := store.SaveCursor("w1", "eip155:534352", KindNewBlock, 50); err != nil {
		t.Fatalf("SaveCursor with lower value failed: %v", err)
	}
	cursor, _, err := store.Cursor("w1")
	if err != nil || cursor != 100 {
		t.Fatalf("expected cursor to stay at 100, got %d err=%v", cursor, err)
	}
	if err := store.SaveCursor("w1", "eip155:534352", KindNewBlock, 150); err != nil {
		t.Fatalf("SaveCursor forward failed: %v", err)
	}
	if cursor, _, _ = store.Cursor("w1"); cursor != 150 {
		t.Fatalf("expected cursor to advance to 150, got %d", cursor)
	}
}

func TestResetCursor(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveCursor("w1", "eip155:534352", KindNewBlock, 100); err != nil {
		t.Fatalf("SaveCursor failed: %v", err)
	}
	if err := store.ResetCursor("w1"); err != nil {
		t.Fatalf("ResetCursor failed: %v", err)
	}
	if _, ok, _ := store.Cursor("w1"); ok {
		t.Fatal("expected cursor to be removed")
	}
}

func TestSessionKeyLifecycle(t *testing.T) {
	store := newTestStore(t)

	record := model.SessionKeyRecord{
		Label:       "deploy-bot",
		Address:     "0x1111111111111111111111111111111111111111",
		ChainID:     "eip155:534352",
		ExpiresUNIX: 2_000_000_000,
	}
	if err := store.SaveSessionKey(record); err != nil {
		t.Fatalf("SaveSessionKey failed: %v", err)
	}

	got, err := store.SessionKey("deploy-bot")
	if err != nil {
		t.Fatalf("SessionKey failed: %v", err)
	}
	if got.Address != record.Address || got.Revoked {
		t.Fatalf("unexpected record: %+v", got)
	}

	revoked, err := store.RevokeSessionKey("deploy-bot")
	if err != nil {
		t.Fatalf("RevokeSessionKey failed: %v", err)
	}
	if !revoked.Revoked {
		t.Fatal("expected revoked flag set")
	}

	records, err := store.ListSessionKeys()
	if err != nil || len(records) != 1 {
		t.Fatalf("ListSessionKeys failed: %v (%d records)", err, len(records))
	}
	if !records[0].Revoked {
		t.Fatal("expected listed record to be revoked")
	}

	if _, err := store.SessionKey("missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}

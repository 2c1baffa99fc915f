package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bloodbank/pkg/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreMissingBucket(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Load(context.Background(), domain.EntityRecipient); !errors.Is(err, domain.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestSQLiteStoreSaveOverwritesAndReloads(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := store.Save(ctx,
		domain.Bucket{Kind: domain.EntityUnit, Payload: []byte(`[{"id":1}]`)},
		domain.Bucket{Kind: domain.EntityRecipient, Payload: []byte(`[]`)},
	); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, domain.Bucket{Kind: domain.EntityUnit, Payload: []byte(`[{"id":1},{"id":2}]`)}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	got, err := reopened.Load(ctx, domain.EntityUnit)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `[{"id":1},{"id":2}]` {
		t.Fatalf("unexpected payload %s", got)
	}
	if reopened.Path() != path {
		t.Fatalf("unexpected path %s", reopened.Path())
	}
}

func TestSQLiteStoreSaveRollsBackOnCancelledContext(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Save(ctx, domain.Bucket{Kind: domain.EntityDonor, Payload: []byte(`[]`)}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if _, err := store.Load(context.Background(), domain.EntityDonor); !errors.Is(err, domain.ErrNoSnapshot) {
		t.Fatalf("expected nothing stored, got %v", err)
	}
}

func TestSQLiteStoreCreatesStateTable(t *testing.T) {
	store := openTestStore(t)
	var name string
	if err := store.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", "state").Scan(&name); err != nil {
		t.Fatalf("lookup state table: %v", err)
	}
	if name != "state" {
		t.Fatalf("expected state table, got %s", name)
	}
}

package repository

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func strptr(s string) *string { return &s }

func testTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func copyTestFile(t *testing.T, src, dst string) error {
	t.Helper()
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func TestStorePing(t *testing.T) {
	store := newTestStore(t)

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestStoreCloseThenReopen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Queries against a closed store must error, not panic.
	if err := store.Ping(ctx); err == nil {
		t.Fatal("expected error pinging closed store")
	}

	if err := store.Reopen(); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping after reopen failed: %v", err)
	}
}

func TestStoreReopenSeesNewFile(t *testing.T) {
	// Reopen must pick up whatever file now sits at the store's path. This
	// is what the restore swap relies on.
	dir := t.TempDir()
	path := filepath.Join(dir, "live.db")

	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	catalog := NewSQLiteCatalogRepository(store)
	if _, err := catalog.Upsert(ctx, strptr("111"), "Old", "", "", testTime(t)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Build a replacement database with different contents.
	other, err := OpenStore(filepath.Join(dir, "other.db"))
	if err != nil {
		t.Fatalf("OpenStore(other) failed: %v", err)
	}
	otherCatalog := NewSQLiteCatalogRepository(other)
	if _, err := otherCatalog.Upsert(ctx, strptr("222"), "New", "", "", testTime(t)); err != nil {
		t.Fatalf("Upsert(other) failed: %v", err)
	}
	if err := other.Checkpoint(ctx); err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}
	if err := other.Close(); err != nil {
		t.Fatalf("Close(other) failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := copyTestFile(t, filepath.Join(dir, "other.db"), path); err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if err := store.Reopen(); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}

	p, err := catalog.FindByBarcode(ctx, "222")
	if err != nil {
		t.Fatalf("FindByBarcode failed: %v", err)
	}
	if p == nil || p.Name != "New" {
		t.Fatalf("expected swapped-in product, got %+v", p)
	}

	old, err := catalog.FindByBarcode(ctx, "111")
	if err != nil {
		t.Fatalf("FindByBarcode(111) failed: %v", err)
	}
	if old != nil {
		t.Fatalf("old product survived the swap: %+v", old)
	}
}

func TestStoreStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	catalog := NewSQLiteCatalogRepository(store)
	if _, err := catalog.Upsert(ctx, strptr("333"), "Thing", "", "", testTime(t)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if got := stats["master_products"]; got != int64(1) {
		t.Fatalf("master_products = %v, want 1", got)
	}
}

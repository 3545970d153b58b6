package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shelflife-api/internal/cache"
	"shelflife-api/internal/repository"
)

func newInventoryService(t *testing.T) (*InventoryService, *repository.SQLiteCatalogRepository) {
	t.Helper()
	store, _ := newTestStores(t)
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })

	return NewInventoryService(repository.NewSQLiteInventoryRepository(store), c, time.Minute),
		repository.NewSQLiteCatalogRepository(store)
}

func seedProduct(t *testing.T, catalog *repository.SQLiteCatalogRepository, barcode, name string) int64 {
	t.Helper()
	var bc *string
	if barcode != "" {
		bc = &barcode
	}
	id, err := catalog.Upsert(context.Background(), bc, name, "", "", time.Now())
	if err != nil {
		t.Fatalf("seed product %q: %v", name, err)
	}
	return id
}

func TestRegisterExpiryValidatesDate(t *testing.T) {
	svc, catalog := newInventoryService(t)
	ctx := context.Background()
	id := seedProduct(t, catalog, "111", "Milk")

	for _, bad := range []string{"", "tomorrow", "2025-13-01", "01-07-2025", "2025-7-1"} {
		if _, err := svc.RegisterExpiry(ctx, id, bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("date %q: got %v, want ErrValidation", bad, err)
		}
	}
}

func TestRegisterExpiryEarliestWins(t *testing.T) {
	svc, catalog := newInventoryService(t)
	ctx := context.Background()
	id := seedProduct(t, catalog, "111", "Milk")

	applied, err := svc.RegisterExpiry(ctx, id, "2025-07-15")
	if err != nil || !applied {
		t.Fatalf("first registration: applied=%v err=%v", applied, err)
	}

	// A later date loses and reports so.
	applied, err = svc.RegisterExpiry(ctx, id, "2025-08-01")
	if err != nil {
		t.Fatalf("RegisterExpiry failed: %v", err)
	}
	if applied {
		t.Fatal("later date must not be applied")
	}

	row, err := svc.FindByProduct(ctx, id)
	if err != nil {
		t.Fatalf("FindByProduct failed: %v", err)
	}
	if row.ExpiryDate != "2025-07-15" {
		t.Fatalf("stored = %s, want 2025-07-15", row.ExpiryDate)
	}
}

func TestCorrectExpiryBypassesEarliestWins(t *testing.T) {
	svc, catalog := newInventoryService(t)
	ctx := context.Background()
	id := seedProduct(t, catalog, "111", "Milk")

	if _, err := svc.RegisterExpiry(ctx, id, "2025-07-15"); err != nil {
		t.Fatalf("RegisterExpiry failed: %v", err)
	}
	row, _ := svc.FindByProduct(ctx, id)

	if err := svc.CorrectExpiry(ctx, row.InventoryID, "2025-09-30"); err != nil {
		t.Fatalf("CorrectExpiry failed: %v", err)
	}

	row, _ = svc.FindByProduct(ctx, id)
	if row.ExpiryDate != "2025-09-30" {
		t.Fatalf("stored = %s, want 2025-09-30", row.ExpiryDate)
	}

	if err := svc.CorrectExpiry(ctx, row.InventoryID, "bad date"); !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestFindByProductDerivesUrgency(t *testing.T) {
	svc, catalog := newInventoryService(t)
	ctx := context.Background()
	id := seedProduct(t, catalog, "111", "Milk")

	past := time.Now().AddDate(0, 0, -3).Format(DateLayout)
	if _, err := svc.RegisterExpiry(ctx, id, past); err != nil {
		t.Fatalf("RegisterExpiry failed: %v", err)
	}

	row, err := svc.FindByProduct(ctx, id)
	if err != nil {
		t.Fatalf("FindByProduct failed: %v", err)
	}
	if !row.Urgency.IsUrgent() {
		t.Fatalf("three days past expiry should be urgent, got %s", row.Urgency)
	}
	if row.DaysLeft != -3 {
		t.Fatalf("DaysLeft = %d, want -3", row.DaysLeft)
	}
}

func TestInventoryListSortsAndInvalidates(t *testing.T) {
	svc, catalog := newInventoryService(t)
	ctx := context.Background()

	far := seedProduct(t, catalog, "111", "Far")
	near := seedProduct(t, catalog, "222", "Near")

	if _, err := svc.RegisterExpiry(ctx, far, time.Now().AddDate(0, 2, 0).Format(DateLayout)); err != nil {
		t.Fatalf("RegisterExpiry failed: %v", err)
	}
	// Prime the cache before the second write; the write must drop it.
	if _, err := svc.List(ctx, ""); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if _, err := svc.RegisterExpiry(ctx, near, time.Now().AddDate(0, 0, 1).Format(DateLayout)); err != nil {
		t.Fatalf("RegisterExpiry failed: %v", err)
	}

	rows, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2 (stale cache?)", len(rows))
	}
	if rows[0].Name != "Near" {
		t.Fatalf("urgent row not first: %s", rows[0].Name)
	}

	filtered, err := svc.List(ctx, "far")
	if err != nil {
		t.Fatalf("filtered List failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Name != "Far" {
		t.Fatalf("filter: %+v", filtered)
	}
}

func TestInventoryDeleteInvalidatesListing(t *testing.T) {
	svc, catalog := newInventoryService(t)
	ctx := context.Background()
	id := seedProduct(t, catalog, "111", "Milk")

	if _, err := svc.RegisterExpiry(ctx, id, "2025-07-15"); err != nil {
		t.Fatalf("RegisterExpiry failed: %v", err)
	}
	if _, err := svc.List(ctx, ""); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	row, _ := svc.FindByProduct(ctx, id)
	if err := svc.Delete(ctx, row.InventoryID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	rows, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("deleted record still listed: %+v", rows)
	}
}

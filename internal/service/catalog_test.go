package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelflife-api/internal/assets"
	"shelflife-api/internal/cache"
	"shelflife-api/internal/repository"
)

func newTestStores(t *testing.T) (*repository.Store, assets.Paths) {
	t.Helper()
	dir := t.TempDir()

	store, err := repository.OpenStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, assets.Paths{ImagesDir: filepath.Join(dir, "images", "master")}
}

func newCatalogService(t *testing.T) (*CatalogService, *repository.Store) {
	t.Helper()
	store, paths := newTestStores(t)
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	return NewCatalogService(repository.NewSQLiteCatalogRepository(store), paths, c, time.Minute), store
}

func strp(s string) *string { return &s }

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestRegisterProductValidation(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	if _, err := svc.RegisterProduct(ctx, strp("111"), "   ", "/a.jpg", "/a_thumb.jpg"); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank name: got %v, want ErrValidation", err)
	}
	if _, err := svc.RegisterProduct(ctx, strp("111"), "Milk", "", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing photo: got %v, want ErrValidation", err)
	}
}

func TestRegisterProductAdoptsImage(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	tmp := t.TempDir()
	src := writeFile(t, filepath.Join(tmp, "capture.jpg"), "raw")
	srcThumb := writeFile(t, filepath.Join(tmp, "capture_small.jpg"), "raw-thumb")

	p, err := svc.RegisterProduct(ctx, strp("4901234567890"), "  Milk  ", src, srcThumb)
	if err != nil {
		t.Fatalf("RegisterProduct failed: %v", err)
	}
	if p.Name != "Milk" {
		t.Fatalf("name not trimmed: %q", p.Name)
	}
	if filepath.Base(p.ImagePath) != "4901234567890.jpg" {
		t.Fatalf("image not adopted under canonical name: %s", p.ImagePath)
	}
	if _, err := os.Stat(p.ImagePath); err != nil {
		t.Fatalf("adopted image missing: %v", err)
	}
}

func TestRegisterProductEmptyBarcodeNeverDedupes(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	tmp := t.TempDir()
	src := writeFile(t, filepath.Join(tmp, "a.jpg"), "x")
	thumb := writeFile(t, filepath.Join(tmp, "a_t.jpg"), "x")

	// Empty-string barcodes are treated as absent.
	p1, err := svc.RegisterProduct(ctx, strp(""), "Bread", src, thumb)
	if err != nil {
		t.Fatalf("RegisterProduct failed: %v", err)
	}
	p2, err := svc.RegisterProduct(ctx, strp(""), "Bread", src, thumb)
	if err != nil {
		t.Fatalf("second RegisterProduct failed: %v", err)
	}
	if p1.ID == p2.ID {
		t.Fatal("empty-barcode registrations must not collapse into one product")
	}
	if p1.Barcode != nil || p2.Barcode != nil {
		t.Fatal("empty barcode should be stored as NULL")
	}
}

func TestCatalogListInvalidatedOnWrite(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	tmp := t.TempDir()
	src := writeFile(t, filepath.Join(tmp, "a.jpg"), "x")
	thumb := writeFile(t, filepath.Join(tmp, "a_t.jpg"), "x")

	p, err := svc.RegisterProduct(ctx, strp("111"), "Before", src, thumb)
	if err != nil {
		t.Fatalf("RegisterProduct failed: %v", err)
	}

	// Prime the cached snapshot.
	if _, err := svc.List(ctx, ""); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if err := svc.Rename(ctx, p.ID, "After"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	products, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List after rename failed: %v", err)
	}
	if len(products) != 1 || products[0].Name != "After" {
		t.Fatalf("stale listing after write: %+v", products)
	}
}

func TestCatalogListFilter(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	tmp := t.TempDir()
	src := writeFile(t, filepath.Join(tmp, "a.jpg"), "x")
	thumb := writeFile(t, filepath.Join(tmp, "a_t.jpg"), "x")

	for barcode, name := range map[string]string{
		"4901111111111": "Whole Milk",
		"4902222222222": "Butter",
	} {
		if _, err := svc.RegisterProduct(ctx, strp(barcode), name, src, thumb); err != nil {
			t.Fatalf("RegisterProduct(%s) failed: %v", name, err)
		}
	}

	got, err := svc.List(ctx, "milk")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Whole Milk" {
		t.Fatalf("name filter: %+v", got)
	}

	got, err = svc.List(ctx, "4902")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Butter" {
		t.Fatalf("barcode filter: %+v", got)
	}
}

func TestCatalogDeletePropagatesNotFound(t *testing.T) {
	svc, _ := newCatalogService(t)

	if err := svc.Delete(context.Background(), 999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"shelflife-api/internal/assets"
	"shelflife-api/internal/cache"
	"shelflife-api/internal/model"
	"shelflife-api/internal/repository"
	"shelflife-api/pkg/fsutil"
)

// Cache keys for the listing snapshots. Every write path invalidates both;
// a restore drops the whole cache.
const (
	catalogListKey   = "catalog:list"
	inventoryListKey = "inventory:list"
)

// ErrValidation marks caller mistakes (empty name, bad date) so the HTTP
// layer can map them to 400s.
var ErrValidation = errors.New("validation failed")

// CatalogService handles master-product business logic.
type CatalogService struct {
	catalog  repository.CatalogRepository
	paths    assets.Paths
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewCatalogService creates a catalog service. cache may be nil.
func NewCatalogService(catalog repository.CatalogRepository, paths assets.Paths, c cache.Cache, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{catalog: catalog, paths: paths, cache: c, cacheTTL: cacheTTL}
}

// RegisterProduct records a scanned (or barcode-less) product. An existing
// barcode match is overwritten in place (name/photo refresh); barcode-less
// registrations always create a distinct product. When the product has a
// barcode, the photo is adopted into the managed image directory right away
// so the next backup captures it without waiting for a normalize pass.
func (s *CatalogService) RegisterProduct(ctx context.Context, barcode *string, name, imagePath, thumbPath string) (*model.MasterProduct, error) {
	if barcode != nil && *barcode == "" {
		barcode = nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if imagePath == "" || thumbPath == "" {
		return nil, fmt.Errorf("%w: a product photo is required", ErrValidation)
	}

	if barcode != nil {
		imagePath = s.adopt(imagePath, s.paths.MainImagePath(*barcode))
		thumbPath = s.adopt(thumbPath, s.paths.ThumbImagePath(*barcode))
	}

	id, err := s.catalog.Upsert(ctx, barcode, name, imagePath, thumbPath, time.Now())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	return s.catalog.FindByID(ctx, id)
}

// FindByBarcode returns the product with this barcode, or nil.
func (s *CatalogService) FindByBarcode(ctx context.Context, barcode string) (*model.MasterProduct, error) {
	return s.catalog.FindByBarcode(ctx, barcode)
}

// List returns the catalog, newest first, optionally filtered.
func (s *CatalogService) List(ctx context.Context, query string) ([]model.MasterProduct, error) {
	products, err := cachedList(ctx, s.cache, catalogListKey, s.cacheTTL, func() ([]model.MasterProduct, error) {
		return s.catalog.ListAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, query), nil
}

// Rename changes a product's display name.
func (s *CatalogService) Rename(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := s.catalog.UpdateName(ctx, id, name); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ReplacePhoto swaps a product's images.
func (s *CatalogService) ReplacePhoto(ctx context.Context, id int64, imagePath, thumbPath string) error {
	if imagePath == "" || thumbPath == "" {
		return fmt.Errorf("%w: both image and thumbnail paths are required", ErrValidation)
	}
	if err := s.catalog.UpdatePhoto(ctx, id, imagePath, thumbPath); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a product; the inventory cascade goes with it.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.catalog.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	invalidateListings(ctx, s.cache)
}

// adopt copies a freshly captured image into the managed directory under its
// canonical name. Best-effort: on any failure the original path is stored
// and the pre-export normalize pass gets another chance at it.
func (s *CatalogService) adopt(src, target string) string {
	if s.paths.IsManaged(src) || !fsutil.Exists(src) {
		return src
	}
	if err := s.paths.EnsureDirs(); err != nil {
		return src
	}
	if err := fsutil.CopyFile(src, target); err != nil {
		log.Printf("[Catalog] Failed to adopt image %s: %v", src, err)
		return src
	}
	return target
}

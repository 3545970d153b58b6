package assets

import (
	"context"
	"fmt"
	"log"

	"shelflife-api/internal/repository"
	"shelflife-api/pkg/fsutil"
)

// NormalizeStatus classifies what happened to one catalog row.
type NormalizeStatus string

const (
	// StatusNormalized means at least one image was copied into the managed
	// directory and the stored paths were rewritten.
	StatusNormalized NormalizeStatus = "normalized"
	// StatusUnchanged means the row's paths were already canonical.
	StatusUnchanged NormalizeStatus = "unchanged"
	// StatusSkippedNoBarcode means no canonical name is derivable.
	StatusSkippedNoBarcode NormalizeStatus = "skipped_no_barcode"
	// StatusSkippedMissing means the source files no longer exist; the
	// stored paths are left untouched.
	StatusSkippedMissing NormalizeStatus = "skipped_missing_source"
)

// NormalizeResult is the per-row outcome of a normalization pass.
type NormalizeResult struct {
	ProductID int64           `json:"product_id"`
	Barcode   string          `json:"barcode,omitempty"`
	Status    NormalizeStatus `json:"status"`
}

// Normalizer moves product images into the managed directory under their
// canonical barcode-derived names. It is best-effort: a missing source file
// skips that row rather than failing the pass, since partial normalization
// beats blocking the export entirely.
type Normalizer struct {
	catalog repository.CatalogRepository
	paths   Paths
}

// NewNormalizer creates a normalizer over the catalog.
func NewNormalizer(catalog repository.CatalogRepository, paths Paths) *Normalizer {
	return &Normalizer{catalog: catalog, paths: paths}
}

// NormalizeAll walks every catalog row and canonicalizes its image paths.
// Only listing and path-rewrite failures are returned as errors.
func (n *Normalizer) NormalizeAll(ctx context.Context) ([]NormalizeResult, error) {
	if err := n.paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("failed to create managed image directory: %w", err)
	}

	products, err := n.catalog.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}

	results := make([]NormalizeResult, 0, len(products))
	for i := range products {
		p := &products[i]
		res := NormalizeResult{ProductID: p.ID, Barcode: p.BarcodeValue()}

		if p.Barcode == nil || *p.Barcode == "" {
			res.Status = StatusSkippedNoBarcode
			results = append(results, res)
			continue
		}

		if n.paths.IsManaged(p.ImagePath) && n.paths.IsManaged(p.ThumbPath) {
			res.Status = StatusUnchanged
			results = append(results, res)
			continue
		}

		imagePath, imageMoved := n.adopt(p.ImagePath, n.paths.MainImagePath(*p.Barcode))
		thumbPath, thumbMoved := n.adopt(p.ThumbPath, n.paths.ThumbImagePath(*p.Barcode))

		if !imageMoved && !thumbMoved {
			res.Status = StatusSkippedMissing
			log.Printf("[Normalizer] Skipping product %d (%s): source images missing", p.ID, *p.Barcode)
			results = append(results, res)
			continue
		}

		if err := n.catalog.UpdatePhoto(ctx, p.ID, imagePath, thumbPath); err != nil {
			return results, fmt.Errorf("failed to rewrite paths for product %d: %w", p.ID, err)
		}
		res.Status = StatusNormalized
		results = append(results, res)
	}

	return results, nil
}

// adopt copies src to the canonical target when src exists outside the
// managed directory. Returns the path to store and whether a copy happened.
func (n *Normalizer) adopt(src, target string) (string, bool) {
	if n.paths.IsManaged(src) {
		return src, false
	}
	if !fsutil.Exists(src) {
		return src, false
	}
	if err := fsutil.CopyFile(src, target); err != nil {
		log.Printf("[Normalizer] Failed to copy %s: %v", src, err)
		return src, false
	}
	return target, true
}

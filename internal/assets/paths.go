package assets

import (
	"path/filepath"

	"shelflife-api/pkg/fsutil"
)

// Paths resolves the managed image directory layout. Every product with a
// barcode gets a canonical pair of files under ImagesDir; full backups
// package exactly this directory.
type Paths struct {
	ImagesDir string
}

// MainImagePath returns the canonical full-size image path for a barcode.
func (p Paths) MainImagePath(barcode string) string {
	return filepath.Join(p.ImagesDir, barcode+".jpg")
}

// ThumbImagePath returns the canonical thumbnail path for a barcode.
func (p Paths) ThumbImagePath(barcode string) string {
	return filepath.Join(p.ImagesDir, barcode+"_thumb.jpg")
}

// IsManaged reports whether path lives directly under the managed directory.
func (p Paths) IsManaged(path string) bool {
	if path == "" {
		return false
	}
	return filepath.Dir(filepath.Clean(path)) == filepath.Clean(p.ImagesDir)
}

// EnsureDirs creates the managed image directory if needed.
func (p Paths) EnsureDirs() error {
	return fsutil.EnsureDir(p.ImagesDir)
}

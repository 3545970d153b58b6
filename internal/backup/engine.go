package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"shelflife-api/internal/assets"
	"shelflife-api/internal/repository"
	"shelflife-api/pkg/fsutil"
	"shelflife-api/pkg/uid"
)

// FormatVersion is the archive metadata version this build reads and writes.
const FormatVersion = 1

// imagesRoot is the relative path images are stored under inside an archive.
const imagesRoot = "images/master"

// Meta is the self-describing descriptor at the root of a full backup.
type Meta struct {
	Version    int    `json:"version"`
	ExportedAt string `json:"exportedAt"`
	DBName     string `json:"dbName"`
	ImagesRoot string `json:"imagesRoot"`
}

// Engine packages the live database file plus the managed image directory
// into a single archive, and restores by validating then atomically swapping
// the live file. Restore is a whole-file replacement, never a row merge;
// whatever inventory data traveled inside the backed-up file comes back with
// it, and nothing else survives.
type Engine struct {
	store      *repository.Store
	catalog    repository.CatalogRepository
	normalizer *assets.Normalizer
	paths      assets.Paths
	scratchDir string
	dbName     string

	// OnRestore runs after a successful full restore, e.g. to drop caches.
	OnRestore func()
}

// NewEngine creates a backup engine.
func NewEngine(store *repository.Store, catalog repository.CatalogRepository, normalizer *assets.Normalizer, paths assets.Paths, scratchDir, dbName string) *Engine {
	return &Engine{
		store:      store,
		catalog:    catalog,
		normalizer: normalizer,
		paths:      paths,
		scratchDir: scratchDir,
		dbName:     dbName,
	}
}

// ExportFull produces a full backup archive and returns its path (inside the
// scratch directory; the caller shares or serves it from there).
//
// Order matters: normalize first so the managed directory actually holds
// every referenced image, checkpoint so the file copy is complete, and fail
// fast on an empty catalog before staging anything.
func (e *Engine) ExportFull(ctx context.Context) (string, error) {
	if err := e.paths.EnsureDirs(); err != nil {
		return "", fmt.Errorf("failed to prepare image directory: %w", err)
	}
	if err := fsutil.EnsureDir(e.scratchDir); err != nil {
		return "", fmt.Errorf("failed to prepare scratch directory: %w", err)
	}

	if _, err := e.normalizer.NormalizeAll(ctx); err != nil {
		return "", fmt.Errorf("failed to normalize image paths: %w", err)
	}

	count, err := e.catalog.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count catalog: %w", err)
	}
	if count == 0 {
		return "", ErrNothingToBackup
	}

	if err := e.store.Checkpoint(ctx); err != nil {
		return "", err
	}

	staging := filepath.Join(e.scratchDir, "export-"+uid.New())
	defer os.RemoveAll(staging)

	now := time.Now().UTC()
	meta := Meta{
		Version:    FormatVersion,
		ExportedAt: now.Format(time.RFC3339),
		DBName:     e.dbName,
		ImagesRoot: imagesRoot,
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := fsutil.EnsureDir(staging); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, "meta.json"), metaBytes, 0o644); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := fsutil.CopyFile(e.store.Path(), filepath.Join(staging, "db", e.dbName)); err != nil {
		return "", fmt.Errorf("failed to stage database file: %w", err)
	}
	if err := fsutil.CopyDir(e.paths.ImagesDir, filepath.Join(staging, filepath.FromSlash(imagesRoot))); err != nil {
		return "", fmt.Errorf("failed to stage images: %w", err)
	}

	archive := filepath.Join(e.scratchDir, fmt.Sprintf("shelflife_backup_%s.zip", now.Format("2006-01-02_15-04-05")))
	if err := zipDir(staging, archive); err != nil {
		return "", err
	}

	log.Printf("[Backup] Exported %d products to %s", count, archive)
	return archive, nil
}

// ImportFull restores a full backup from a picked archive file.
//
// Everything destructive is back-loaded: the archive is unpacked and its
// metadata validated before a single live byte changes; images merge next
// (live database still untouched); the file swap goes last, bracketed by
// Close and Reopen. A failure after the swap wraps ErrRestoreFatal since
// there is no automatic rollback of a file-level replacement.
func (e *Engine) ImportFull(ctx context.Context, picker FilePicker) error {
	picked, err := picker.Pick(ctx)
	if err != nil {
		return err
	}

	if err := fsutil.EnsureDir(e.scratchDir); err != nil {
		return fmt.Errorf("failed to prepare scratch directory: %w", err)
	}
	staging := filepath.Join(e.scratchDir, "import-"+uid.New())
	defer os.RemoveAll(staging)

	// Work from a local copy, never the picked path itself.
	local := filepath.Join(staging, "picked.zip")
	if err := fsutil.CopyFile(picked, local); err != nil {
		return fmt.Errorf("failed to copy backup locally: %w", err)
	}

	unpacked := filepath.Join(staging, "unpacked")
	if err := unzip(local, unpacked); err != nil {
		return err
	}

	meta, err := e.readMeta(unpacked)
	if err != nil {
		return err
	}

	dbCopy := filepath.Join(unpacked, "db", meta.DBName)
	if !fsutil.Exists(dbCopy) {
		return fmt.Errorf("%w: archive is missing db/%s", ErrInvalidBackup, meta.DBName)
	}

	// Images first: a failure here leaves the live database untouched.
	archiveImages := filepath.Join(unpacked, filepath.FromSlash(meta.ImagesRoot))
	if fsutil.Exists(archiveImages) {
		if err := e.paths.EnsureDirs(); err != nil {
			return fmt.Errorf("failed to prepare image directory: %w", err)
		}
		if err := fsutil.CopyDir(archiveImages, e.paths.ImagesDir); err != nil {
			return fmt.Errorf("failed to restore images: %w", err)
		}
	}

	// Point of no return: close, swap, reopen - in that order. Replacing a
	// file that is still open for writing risks corruption.
	if err := e.store.Close(); err != nil {
		return fmt.Errorf("failed to close live database: %w", err)
	}

	livePath := e.store.Path()
	tmp := livePath + ".restore"
	if err := fsutil.CopyFile(dbCopy, tmp); err != nil {
		// Live file untouched; bring the connection back.
		if reopenErr := e.store.Reopen(); reopenErr != nil {
			return fmt.Errorf("%w: %v (and reopen failed: %v)", ErrRestoreFatal, err, reopenErr)
		}
		return fmt.Errorf("failed to stage restored database: %w", err)
	}
	if err := os.Rename(tmp, livePath); err != nil {
		os.Remove(tmp)
		if reopenErr := e.store.Reopen(); reopenErr != nil {
			return fmt.Errorf("%w: %v (and reopen failed: %v)", ErrRestoreFatal, err, reopenErr)
		}
		return fmt.Errorf("failed to swap database file: %w", err)
	}

	// Stale WAL sidecars belong to the replaced file.
	os.Remove(livePath + "-wal")
	os.Remove(livePath + "-shm")

	if err := e.store.Reopen(); err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFatal, err)
	}

	if e.OnRestore != nil {
		e.OnRestore()
	}

	log.Printf("[Backup] Restored database from %s (exported %s)", picked, meta.ExportedAt)
	return nil
}

func (e *Engine) readMeta(unpacked string) (*Meta, error) {
	raw, err := os.ReadFile(filepath.Join(unpacked, "meta.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: missing meta.json", ErrInvalidBackup)
	}

	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: unreadable meta.json", ErrInvalidBackup)
	}
	if meta.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrInvalidBackup, meta.Version)
	}
	if meta.DBName != e.dbName {
		return nil, fmt.Errorf("%w: archive is for database %q, expected %q", ErrInvalidBackup, meta.DBName, e.dbName)
	}
	if meta.ImagesRoot == "" {
		meta.ImagesRoot = imagesRoot
	}
	return &meta, nil
}

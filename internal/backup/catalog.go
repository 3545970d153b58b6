package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"shelflife-api/internal/model"
	"shelflife-api/pkg/fsutil"
)

// catalogTable is the logical table name recorded in catalog-only backups.
const catalogTable = "master_products"

// CatalogRow is one master product in a catalog-only backup file.
type CatalogRow struct {
	Barcode   *string `json:"barcode"`
	Name      string  `json:"name"`
	ImagePath string  `json:"imagePath"`
	ThumbPath string  `json:"thumbPath"`
	CreatedAt string  `json:"createdAt"`
}

// CatalogFile is the lightweight JSON backup of master products only: no
// archive, no images, no inventory. Importable as a row-level merge without
// replacing the live database file.
type CatalogFile struct {
	Version    int          `json:"version"`
	ExportedAt string       `json:"exportedAt"`
	Table      string       `json:"table"`
	Count      int          `json:"count"`
	Rows       []CatalogRow `json:"rows"`
}

// ExportCatalog writes a catalog-only JSON backup into the scratch directory
// and returns its path.
func (e *Engine) ExportCatalog(ctx context.Context) (string, error) {
	products, err := e.catalog.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list catalog: %w", err)
	}

	rows := make([]CatalogRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, CatalogRow{
			Barcode:   p.Barcode,
			Name:      p.Name,
			ImagePath: p.ImagePath,
			ThumbPath: p.ThumbPath,
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	now := time.Now().UTC()
	payload := CatalogFile{
		Version:    FormatVersion,
		ExportedAt: now.Format(time.RFC3339),
		Table:      catalogTable,
		Count:      len(rows),
		Rows:       rows,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode catalog backup: %w", err)
	}

	if err := fsutil.EnsureDir(e.scratchDir); err != nil {
		return "", fmt.Errorf("failed to prepare scratch directory: %w", err)
	}
	path := filepath.Join(e.scratchDir, fmt.Sprintf("master_products_backup_%s.json", now.Format("2006-01-02_15-04-05")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write catalog backup: %w", err)
	}

	log.Printf("[Backup] Exported %d catalog rows to %s", len(rows), path)
	return path, nil
}

// ImportCatalog merges a catalog-only JSON backup into the live database by
// upsert-by-barcode. The inventory table is never touched and no file is
// replaced, which makes this the low-risk import path.
func (e *Engine) ImportCatalog(ctx context.Context, picker FilePicker) (int, error) {
	picked, err := picker.Pick(ctx)
	if err != nil {
		return 0, err
	}

	raw, err := os.ReadFile(picked)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup file: %w", err)
	}

	var file CatalogFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("%w: unreadable JSON", ErrInvalidBackup)
	}
	if file.Version != FormatVersion || file.Table != catalogTable || file.Rows == nil {
		return 0, fmt.Errorf("%w: not a %s backup", ErrInvalidBackup, catalogTable)
	}

	items := make([]model.MasterProduct, 0, len(file.Rows))
	for _, row := range file.Rows {
		createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
		if err != nil {
			createdAt = time.Now().UTC()
		}
		items = append(items, model.MasterProduct{
			Barcode:   row.Barcode,
			Name:      row.Name,
			ImagePath: row.ImagePath,
			ThumbPath: row.ThumbPath,
			CreatedAt: createdAt,
		})
	}

	imported, err := e.catalog.BatchUpsert(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("failed to merge catalog rows: %w", err)
	}

	log.Printf("[Backup] Merged %d catalog rows from %s", imported, picked)
	return imported, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shelflife-api/internal/model"
)

// SQLiteCatalogRepository implements CatalogRepository on the shared Store.
type SQLiteCatalogRepository struct {
	store *Store
}

// NewSQLiteCatalogRepository creates a catalog repository over the store.
func NewSQLiteCatalogRepository(store *Store) *SQLiteCatalogRepository {
	return &SQLiteCatalogRepository{store: store}
}

const catalogColumns = `id, barcode, name, image_path, thumb_path, created_at`

// FindByBarcode returns the product with this exact barcode, or nil.
func (r *SQLiteCatalogRepository) FindByBarcode(ctx context.Context, barcode string) (*model.MasterProduct, error) {
	row := r.store.QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM master_products WHERE barcode = ? LIMIT 1`, barcode)

	p, err := scanMasterProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by barcode: %w", err)
	}
	return p, nil
}

// FindByID returns the product with this id, or nil.
func (r *SQLiteCatalogRepository) FindByID(ctx context.Context, id int64) (*model.MasterProduct, error) {
	row := r.store.QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM master_products WHERE id = ? LIMIT 1`, id)

	p, err := scanMasterProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by id: %w", err)
	}
	return p, nil
}

// Upsert inserts a product, or overwrites name/image/thumb of the row sharing
// its barcode; created_at and barcode are never overwritten. A nil barcode
// bypasses the UNIQUE constraint, so every barcode-less call inserts a fresh
// row - accepted behavior, each barcode-less registration is its own product.
func (r *SQLiteCatalogRepository) Upsert(ctx context.Context, barcode *string, name, imagePath, thumbPath string, createdAt time.Time) (int64, error) {
	created := formatTimestamp(createdAt)

	if barcode == nil {
		res, err := r.store.ExecContext(ctx,
			`INSERT INTO master_products (barcode, name, image_path, thumb_path, created_at)
			 VALUES (NULL, ?, ?, ?, ?)`,
			name, imagePath, thumbPath, created)
		if err != nil {
			return 0, fmt.Errorf("failed to insert product: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read inserted id: %w", err)
		}
		return id, nil
	}

	_, err := r.store.ExecContext(ctx,
		`INSERT INTO master_products (barcode, name, image_path, thumb_path, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(barcode) DO UPDATE SET
			name = excluded.name,
			image_path = excluded.image_path,
			thumb_path = excluded.thumb_path`,
		*barcode, name, imagePath, thumbPath, created)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert product: %w", err)
	}

	var id int64
	err = r.store.QueryRowContext(ctx,
		`SELECT id FROM master_products WHERE barcode = ? LIMIT 1`, *barcode).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve upserted id: %w", err)
	}
	return id, nil
}

// UpdateName renames a product.
func (r *SQLiteCatalogRepository) UpdateName(ctx context.Context, id int64, name string) error {
	res, err := r.store.ExecContext(ctx,
		`UPDATE master_products SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to update product name: %w", err)
	}
	return requireAffected(res)
}

// UpdatePhoto replaces a product's image paths.
func (r *SQLiteCatalogRepository) UpdatePhoto(ctx context.Context, id int64, imagePath, thumbPath string) error {
	res, err := r.store.ExecContext(ctx,
		`UPDATE master_products SET image_path = ?, thumb_path = ? WHERE id = ?`,
		imagePath, thumbPath, id)
	if err != nil {
		return fmt.Errorf("failed to update product photo: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a product and, via the foreign-key cascade, its inventory
// item. The explicit inventory delete mirrors the cascade as a second line
// of defense in case the FK pragma was not applied.
func (r *SQLiteCatalogRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM inventory_items WHERE product_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete inventory for product: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM master_products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListAll returns every product, newest id first.
func (r *SQLiteCatalogRepository) ListAll(ctx context.Context) ([]model.MasterProduct, error) {
	rows, err := r.store.QueryContext(ctx,
		`SELECT `+catalogColumns+` FROM master_products ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	out := make([]model.MasterProduct, 0)
	for rows.Next() {
		p, err := scanMasterProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Count returns the number of catalog rows.
func (r *SQLiteCatalogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.store.QueryRowContext(ctx, `SELECT COUNT(*) FROM master_products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// BatchUpsert applies Upsert semantics to many rows in one transaction.
func (r *SQLiteCatalogRepository) BatchUpsert(ctx context.Context, items []model.MasterProduct) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO master_products (barcode, name, image_path, thumb_path, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(barcode) DO UPDATE SET
			name = excluded.name,
			image_path = excluded.image_path,
			thumb_path = excluded.thumb_path`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, item := range items {
		var barcode interface{}
		if item.Barcode != nil {
			barcode = *item.Barcode
		}
		if _, err := stmt.ExecContext(ctx, barcode, item.Name, item.ImagePath, item.ThumbPath, formatTimestamp(item.CreatedAt)); err != nil {
			return 0, fmt.Errorf("failed to batch upsert product %q: %w", item.Name, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMasterProduct(row rowScanner) (*model.MasterProduct, error) {
	var (
		p       model.MasterProduct
		barcode sql.NullString
		created string
	)
	if err := row.Scan(&p.ID, &barcode, &p.Name, &p.ImagePath, &p.ThumbPath, &created); err != nil {
		return nil, err
	}
	if barcode.Valid {
		p.Barcode = &barcode.String
	}
	p.CreatedAt = parseTimestamp(created)
	return &p, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Timestamps are stored as RFC3339 TEXT so the database file stays portable
// across backup/restore.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Ensure SQLiteCatalogRepository implements CatalogRepository
var _ CatalogRepository = (*SQLiteCatalogRepository)(nil)

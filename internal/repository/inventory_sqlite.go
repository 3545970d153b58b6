package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shelflife-api/internal/model"
)

// SQLiteInventoryRepository implements InventoryRepository on the shared Store.
type SQLiteInventoryRepository struct {
	store *Store
}

// NewSQLiteInventoryRepository creates an inventory repository over the store.
func NewSQLiteInventoryRepository(store *Store) *SQLiteInventoryRepository {
	return &SQLiteInventoryRepository{store: store}
}

// UpsertEarliest registers an expiry date under the earliest-wins rule.
// The conflict is resolved in one guarded statement, not read-then-write:
// the WHERE clause on the conflict update means only a strictly earlier
// date replaces an existing one, and the single connection serializes it.
// Dates are YYYY-MM-DD TEXT, so the lexicographic compare is chronological.
//
// applied is true when the supplied date is the stored date afterwards,
// whether it was inserted fresh or won the conflict.
func (r *SQLiteInventoryRepository) UpsertEarliest(ctx context.Context, productID int64, expiryDate string, createdAt time.Time) (bool, error) {
	_, err := r.store.ExecContext(ctx,
		`INSERT INTO inventory_items (product_id, expiry_date, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(product_id) DO UPDATE SET
			expiry_date = excluded.expiry_date,
			created_at  = excluded.created_at
		 WHERE excluded.expiry_date < inventory_items.expiry_date`,
		productID, expiryDate, formatTimestamp(createdAt))
	if err != nil {
		return false, fmt.Errorf("failed to upsert expiry: %w", err)
	}

	var stored string
	err = r.store.QueryRowContext(ctx,
		`SELECT expiry_date FROM inventory_items WHERE product_id = ? LIMIT 1`,
		productID).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read back expiry: %w", err)
	}

	return stored == expiryDate, nil
}

// EditDirect overwrites an existing record's date unconditionally. This is
// the deliberate escape hatch from earliest-wins, kept as its own entry
// point so invariant-breaking writes stay explicit at the call site.
func (r *SQLiteInventoryRepository) EditDirect(ctx context.Context, inventoryID int64, expiryDate string) error {
	res, err := r.store.ExecContext(ctx,
		`UPDATE inventory_items SET expiry_date = ? WHERE id = ?`,
		expiryDate, inventoryID)
	if err != nil {
		return fmt.Errorf("failed to edit expiry: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an inventory item.
func (r *SQLiteInventoryRepository) Delete(ctx context.Context, inventoryID int64) error {
	res, err := r.store.ExecContext(ctx,
		`DELETE FROM inventory_items WHERE id = ?`, inventoryID)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	return requireAffected(res)
}

const joinedSelect = `
	SELECT
		i.id AS inventory_id,
		i.expiry_date,
		i.created_at,
		p.id AS product_id,
		p.barcode,
		p.name,
		p.image_path,
		p.thumb_path
	FROM inventory_items i
	JOIN master_products p ON p.id = i.product_id`

// FindByProductID returns the joined row for a product, or nil.
func (r *SQLiteInventoryRepository) FindByProductID(ctx context.Context, productID int64) (*model.InventoryRow, error) {
	row := r.store.QueryRowContext(ctx, joinedSelect+` WHERE i.product_id = ? LIMIT 1`, productID)

	ir, err := scanInventoryRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find inventory by product: %w", err)
	}
	return ir, nil
}

// ListAllJoined returns every inventory item joined with its product,
// ordered by expiry date ascending, ties by newest item first. The urgency
// bucket sort on top of this order lives in the query layer.
func (r *SQLiteInventoryRepository) ListAllJoined(ctx context.Context) ([]model.InventoryRow, error) {
	rows, err := r.store.QueryContext(ctx, joinedSelect+` ORDER BY i.expiry_date ASC, i.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	out := make([]model.InventoryRow, 0)
	for rows.Next() {
		ir, err := scanInventoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		out = append(out, *ir)
	}
	return out, rows.Err()
}

func scanInventoryRow(row rowScanner) (*model.InventoryRow, error) {
	var (
		ir      model.InventoryRow
		barcode sql.NullString
		created string
	)
	if err := row.Scan(&ir.InventoryID, &ir.ExpiryDate, &created,
		&ir.ProductID, &barcode, &ir.Name, &ir.ImagePath, &ir.ThumbPath); err != nil {
		return nil, err
	}
	if barcode.Valid {
		ir.Barcode = &barcode.String
	}
	ir.CreatedAt = parseTimestamp(created)
	return &ir, nil
}

// Ensure SQLiteInventoryRepository implements InventoryRepository
var _ InventoryRepository = (*SQLiteInventoryRepository)(nil)

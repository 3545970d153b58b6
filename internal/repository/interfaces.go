package repository

import (
	"context"
	"errors"
	"time"

	"shelflife-api/internal/model"
)

// ErrNotFound is returned by targeted mutations when the row does not exist.
var ErrNotFound = errors.New("not found")

// CatalogRepository defines master-product data access methods.
type CatalogRepository interface {
	// FindByBarcode returns the product with this exact barcode, or nil.
	FindByBarcode(ctx context.Context, barcode string) (*model.MasterProduct, error)

	// FindByID returns the product with this id, or nil.
	FindByID(ctx context.Context, id int64) (*model.MasterProduct, error)

	// Upsert inserts a product, or overwrites name/image/thumb of the row
	// sharing its barcode. A nil barcode always inserts a new row.
	// Returns the row id either way.
	Upsert(ctx context.Context, barcode *string, name, imagePath, thumbPath string, createdAt time.Time) (int64, error)

	// UpdateName renames a product.
	UpdateName(ctx context.Context, id int64, name string) error

	// UpdatePhoto replaces a product's image paths.
	UpdatePhoto(ctx context.Context, id int64, imagePath, thumbPath string) error

	// Delete removes a product; its inventory item goes with it.
	Delete(ctx context.Context, id int64) error

	// ListAll returns every product, newest id first.
	ListAll(ctx context.Context) ([]model.MasterProduct, error)

	// Count returns the number of catalog rows.
	Count(ctx context.Context) (int64, error)

	// BatchUpsert applies Upsert semantics to many rows in one transaction.
	// Used by the catalog-only backup import.
	BatchUpsert(ctx context.Context, rows []model.MasterProduct) (int, error)
}

// InventoryRepository defines inventory-item data access methods.
type InventoryRepository interface {
	// UpsertEarliest registers an expiry date under the earliest-wins rule:
	// an existing date is only replaced by a strictly earlier one. Returns
	// whether the supplied date is the stored date afterwards.
	UpsertEarliest(ctx context.Context, productID int64, expiryDate string, createdAt time.Time) (bool, error)

	// EditDirect overwrites an existing record's date unconditionally.
	// This deliberately bypasses earliest-wins; keep call sites explicit.
	EditDirect(ctx context.Context, inventoryID int64, expiryDate string) error

	// Delete removes an inventory item.
	Delete(ctx context.Context, inventoryID int64) error

	// FindByProductID returns the joined row for a product, or nil.
	FindByProductID(ctx context.Context, productID int64) (*model.InventoryRow, error)

	// ListAllJoined returns every inventory item joined with its product,
	// ordered by expiry date ascending, then id descending.
	ListAllJoined(ctx context.Context) ([]model.InventoryRow, error)
}

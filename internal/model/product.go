package model

import "time"

// MasterProduct is a catalog entry for a distinct real-world product,
// identified by barcode when one exists. Creation always carries a photo,
// so ImagePath and ThumbPath are never empty on a stored row.
type MasterProduct struct {
	ID        int64     `json:"id"`
	Barcode   *string   `json:"barcode"` // nil for barcode-less products
	Name      string    `json:"name"`
	ImagePath string    `json:"image_path"`
	ThumbPath string    `json:"thumb_path"`
	CreatedAt time.Time `json:"created_at"`
}

// BarcodeValue returns the barcode or "" when absent.
func (p *MasterProduct) BarcodeValue() string {
	if p.Barcode == nil {
		return ""
	}
	return *p.Barcode
}

// InventoryItem is the live expiry record for a product. At most one row
// exists per product at any time (UNIQUE on product_id).
type InventoryItem struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"product_id"`
	ExpiryDate string    `json:"expiry_date"` // YYYY-MM-DD
	CreatedAt  time.Time `json:"created_at"`  // last accepted write, not first registration
}

// InventoryRow is an inventory item joined with its master product, as
// returned by the listing queries. Urgency and DaysLeft are derived by the
// query layer, never stored.
type InventoryRow struct {
	InventoryID int64     `json:"inventory_id"`
	ExpiryDate  string    `json:"expiry_date"`
	CreatedAt   time.Time `json:"created_at"`

	ProductID int64   `json:"product_id"`
	Barcode   *string `json:"barcode"`
	Name      string  `json:"name"`
	ImagePath string  `json:"image_path"`
	ThumbPath string  `json:"thumb_path"`

	Urgency  Urgency `json:"urgency,omitempty"`
	DaysLeft int     `json:"days_left"`
}

// BarcodeValue returns the barcode or "" when absent.
func (r *InventoryRow) BarcodeValue() string {
	if r.Barcode == nil {
		return ""
	}
	return *r.Barcode
}

// Urgency buckets an inventory row by days until expiry.
type Urgency string

const (
	UrgencyExpired Urgency = "expired" // already past
	UrgencyToday   Urgency = "today"   // expires today
	UrgencySoon    Urgency = "soon"    // 1-3 days
	UrgencyWarning Urgency = "warning" // 4-7 days
	UrgencyOK      Urgency = "ok"      // more than 7 days
	UrgencyUnknown Urgency = "unknown" // unparseable date
)

// IsUrgent reports whether the bucket sorts ahead of "ok" in listings.
func (u Urgency) IsUrgent() bool {
	switch u {
	case UrgencyExpired, UrgencyToday, UrgencySoon, UrgencyWarning:
		return true
	}
	return false
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shelflife-api/internal/cache"
	"shelflife-api/internal/model"
	"shelflife-api/internal/repository"
)

// InventoryService handles expiry-record business logic. Registration goes
// through the earliest-wins rule; corrections use the explicit direct-edit
// path, which deliberately bypasses that rule.
type InventoryService struct {
	inventory repository.InventoryRepository
	cache     cache.Cache
	cacheTTL  time.Duration
}

// NewInventoryService creates an inventory service. cache may be nil.
func NewInventoryService(inventory repository.InventoryRepository, c cache.Cache, cacheTTL time.Duration) *InventoryService {
	return &InventoryService{inventory: inventory, cache: c, cacheTTL: cacheTTL}
}

// RegisterExpiry records an expiry date for a product under earliest-wins.
// applied is true when the supplied date is the live value afterwards.
func (s *InventoryService) RegisterExpiry(ctx context.Context, productID int64, expiryDate string) (bool, error) {
	if err := validateDate(expiryDate); err != nil {
		return false, err
	}

	applied, err := s.inventory.UpsertEarliest(ctx, productID, expiryDate, time.Now())
	if err != nil {
		return false, err
	}
	invalidateListings(ctx, s.cache)
	return applied, nil
}

// CorrectExpiry overwrites an inventory record's date by its own id. This is
// the escape hatch for user corrections and may move the date later; the
// earliest-wins invariant does not hold across it.
func (s *InventoryService) CorrectExpiry(ctx context.Context, inventoryID int64, expiryDate string) error {
	if err := validateDate(expiryDate); err != nil {
		return err
	}

	if err := s.inventory.EditDirect(ctx, inventoryID, expiryDate); err != nil {
		return err
	}
	invalidateListings(ctx, s.cache)
	return nil
}

// Delete removes an inventory record.
func (s *InventoryService) Delete(ctx context.Context, inventoryID int64) error {
	if err := s.inventory.Delete(ctx, inventoryID); err != nil {
		return err
	}
	invalidateListings(ctx, s.cache)
	return nil
}

// FindByProduct returns the joined expiry record for a product with urgency
// derived, or nil.
func (s *InventoryService) FindByProduct(ctx context.Context, productID int64) (*model.InventoryRow, error) {
	row, err := s.inventory.FindByProductID(ctx, productID)
	if err != nil || row == nil {
		return row, err
	}
	row.Urgency, row.DaysLeft = ClassifyUrgency(row.ExpiryDate, time.Now())
	return row, nil
}

// List returns the joined inventory listing, urgency-sorted and optionally
// filtered. The undecorated snapshot is cached; urgency depends on the
// current day and is always derived fresh.
func (s *InventoryService) List(ctx context.Context, query string) ([]model.InventoryRow, error) {
	rows, err := cachedList(ctx, s.cache, inventoryListKey, s.cacheTTL, func() ([]model.InventoryRow, error) {
		return s.inventory.ListAllJoined(ctx)
	})
	if err != nil {
		return nil, err
	}

	DecorateUrgency(rows, time.Now())
	SortByUrgency(rows)
	return FilterRows(rows, query), nil
}

func validateDate(expiryDate string) error {
	if _, err := time.Parse(DateLayout, expiryDate); err != nil {
		return fmt.Errorf("%w: expiry date must be YYYY-MM-DD", ErrValidation)
	}
	return nil
}

// cachedList returns the cached JSON snapshot under key, or loads and caches
// it via the cache's GetOrSet. A nil cache, a cache failure or an unreadable
// snapshot all degrade to a direct load.
func cachedList[T any](ctx context.Context, c cache.Cache, key string, ttl time.Duration, load func() ([]T, error)) ([]T, error) {
	if c == nil {
		return load()
	}

	data, err := c.GetOrSet(ctx, key, ttl, func() ([]byte, error) {
		out, err := load()
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	})
	if err != nil {
		return load()
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return load()
	}
	return out, nil
}

// invalidateListings drops the cached listing snapshots after any write.
func invalidateListings(ctx context.Context, c cache.Cache) {
	if c == nil {
		return
	}
	_ = c.Delete(ctx, catalogListKey)
	_ = c.Delete(ctx, inventoryListKey)
}

// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Item model.
//
// Reads populate the Seller association with the public subset of user
// columns (id, name, avatar) so handlers never need a second query and the
// password hash never travels with a listing.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afrimart/marketplace-backend/internal/domain"
)

// sellerColumns restricts the preloaded Seller association to public fields.
func sellerColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "avatar")
}

// CreateItem inserts a new item row owned by sellerID.
func CreateItem(ctx context.Context, db *gorm.DB, it *domain.Item) (*domain.Item, error) {
	it.ID = uuid.NewString()
	it.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(it).Error; err != nil {
		return nil, err
	}
	return it, nil
}

// GetItem fetches a single item by ID with its seller populated, or
// ErrNotFound if missing.
func GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.Item, error) {
	var it domain.Item
	err := db.WithContext(ctx).
		Preload("Seller", sellerColumns).
		Where("id = ?", id).
		First(&it).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ListItemsPage returns a page of items, newest first, sellers populated.
// Use CountItems to obtain the total for pagination metadata.
func ListItemsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Item, error) {
	var out []domain.Item
	err := db.WithContext(ctx).
		Preload("Seller", sellerColumns).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountItems returns the total number of live items.
func CountItems(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Item{}).Count(&total).Error
	return total, err
}

// ListAllItems returns every live item without associations. Used to build
// the in-memory search index at startup.
func ListAllItems(ctx context.Context, db *gorm.DB) ([]domain.Item, error) {
	var out []domain.Item
	err := db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

// UpdateItem applies the given column updates to an item. Ownership is
// enforced at the service layer; here the row is addressed by ID only.
// Returns ErrNotFound when no row is affected.
func UpdateItem(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteItem soft-deletes an item by ID. Returns ErrNotFound when no row is
// affected.
func DeleteItem(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ItemsStats returns aggregate metadata for the items table: the total number
// of rows and the maximum UpdatedAt timestamp among them. Used for ETag
// generation on the public listing endpoint. When there are no items, the
// returned count is 0 and maxUpdatedAt is nil.
func ItemsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Item{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

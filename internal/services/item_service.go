// Package services – ItemService
//
// This file implements the lifecycle of marketplace listings: creation with
// validation, paginated listing, keyword search over an in-memory index,
// owner-gated updates and deletion, and the make-offer path that notifies
// the seller's live connection synchronously.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/repo"
	"github.com/afrimart/marketplace-backend/internal/search"
)

// ItemInput is the validated payload for creating a listing.
type ItemInput struct {
	Name        string
	Description string
	Price       float64
	Currency    string
	Category    string
	Location    string
	Images      []string
}

// ItemUpdate carries optional field updates; nil pointers are left unchanged.
type ItemUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Currency    *string
	Category    *string
	Location    *string
	Images      []string
}

// ItemService coordinates listing persistence, search indexing, and offer
// notifications.
type ItemService struct {
	DB       *gorm.DB
	Index    *search.MemoryIndex
	Delivery Delivery
}

// NewItemService constructs an ItemService.
func NewItemService(db *gorm.DB, idx *search.MemoryIndex, d Delivery) *ItemService {
	return &ItemService{
		DB:       db,
		Index:    idx,
		Delivery: d,
	}
}

// titleCategory canonicalizes a category to title case. A cases.Caser keeps
// internal buffers, so each call builds its own rather than sharing one
// across request goroutines.
func titleCategory(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// Create validates and persists a new listing for sellerID, indexes it, and
// returns it with the seller populated.
func (s *ItemService) Create(ctx context.Context, sellerID string, in ItemInput) (*domain.Item, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	it := &domain.Item{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Currency:    in.Currency,
		Category:    in.Category,
		Location:    in.Location,
		Images:      in.Images,
		SellerID:    sellerID,
	}
	if _, err := repo.CreateItem(ctx, s.DB, it); err != nil {
		return nil, err
	}
	s.indexItem(it)

	return repo.GetItem(ctx, s.DB, it.ID)
}

// Get returns a single listing with its seller populated.
func (s *ItemService) Get(ctx context.Context, id string) (*domain.Item, error) {
	it, err := repo.GetItem(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return it, nil
}

// ListPage returns a page of listings, newest first, and the total count.
func (s *ItemService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Item, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountItems(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Item{}, 0, nil
	}

	items, err := repo.ListItemsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Search returns listings matching the keyword query, best match first.
func (s *ItemService) Search(ctx context.Context, query string, limit int) ([]domain.Item, error) {
	if s.Index == nil {
		return []domain.Item{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	out := make([]domain.Item, 0, limit)
	for _, r := range s.Index.TopK(query, limit) {
		it, err := repo.GetItem(ctx, s.DB, r.ID)
		if err != nil {
			// Index can briefly trail the table; skip stale hits.
			continue
		}
		out = append(out, *it)
	}
	return out, nil
}

// Update applies the given changes to a listing owned by userID.
func (s *ItemService) Update(ctx context.Context, userID, id string, upd ItemUpdate) (*domain.Item, error) {
	it, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.SellerID != userID {
		return nil, ErrNotOwner
	}

	updates := map[string]any{}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		updates["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil && strings.TrimSpace(*upd.Description) != "" {
		updates["description"] = strings.TrimSpace(*upd.Description)
	}
	if upd.Price != nil && *upd.Price > 0 {
		updates["price"] = *upd.Price
	}
	if upd.Currency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*upd.Currency))
		if !domain.IsSupportedCurrency(cur) {
			return nil, ErrUnsupportedCurrency
		}
		updates["currency"] = cur
	}
	if upd.Category != nil && strings.TrimSpace(*upd.Category) != "" {
		updates["category"] = titleCategory(*upd.Category)
	}
	if upd.Location != nil && strings.TrimSpace(*upd.Location) != "" {
		updates["location"] = strings.TrimSpace(*upd.Location)
	}
	if len(upd.Images) > 0 {
		updates["images"] = upd.Images
	}
	if len(updates) > 0 {
		if err := repo.UpdateItem(ctx, s.DB, id, updates); err != nil {
			return nil, err
		}
	}

	it, err = repo.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	s.indexItem(it)
	return it, nil
}

// Delete removes a listing owned by userID and drops it from the index.
func (s *ItemService) Delete(ctx context.Context, userID, id string) error {
	it, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if it.SellerID != userID {
		return ErrNotOwner
	}
	if err := repo.DeleteItem(ctx, s.DB, id); err != nil {
		return err
	}
	if s.Index != nil {
		s.Index.Remove(id)
	}
	return nil
}

// MakeOffer resolves the seller of itemID and notifies their live connection
// that buyerID made an offer. The notification is best-effort: the returned
// seller id is valid whether or not the seller was online, and the REST
// response never depends on delivery.
func (s *ItemService) MakeOffer(ctx context.Context, buyerID, itemID string) (sellerID string, err error) {
	it, err := s.Get(ctx, itemID)
	if err != nil {
		return "", err
	}
	if s.Delivery != nil {
		s.Delivery.NotifyOffer(it.SellerID, buyerID, itemID)
	}
	return it.SellerID, nil
}

// Stats returns listing count and latest update time, used for ETags on the
// public listing endpoint.
func (s *ItemService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return repo.ItemsStats(ctx, s.DB)
}

// RebuildIndex loads every live listing into the search index. Called once
// at startup; incremental upserts keep it current afterwards.
func (s *ItemService) RebuildIndex(ctx context.Context) error {
	if s.Index == nil {
		return nil
	}
	items, err := repo.ListAllItems(ctx, s.DB)
	if err != nil {
		return err
	}
	for i := range items {
		s.indexItem(&items[i])
	}
	return nil
}

// indexItem upserts the searchable text of a listing.
func (s *ItemService) indexItem(it *domain.Item) {
	if s.Index == nil {
		return
	}
	s.Index.Upsert(it.ID, strings.Join([]string{it.Name, it.Description, it.Category, it.Location}, " "))
}

// validateInput normalizes and checks a creation payload in place.
func (s *ItemService) validateInput(in *ItemInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.Category = titleCategory(in.Category)

	switch {
	case in.Name == "" || utf8.RuneCountInString(in.Name) > 255:
		return ErrInvalidInput
	case in.Description == "":
		return ErrInvalidInput
	case in.Price <= 0:
		return ErrInvalidInput
	case in.Category == "" || in.Location == "":
		return ErrInvalidInput
	case len(in.Images) == 0:
		return ErrInvalidInput
	}
	if !domain.IsSupportedCurrency(in.Currency) {
		return ErrUnsupportedCurrency
	}
	return nil
}

// Package services – OrderService
//
// Orders are created when a buyer commits to an item. Reads are gated to the
// two parties: the original API returned any order to any authenticated
// user, which was an information leak, so access here requires being buyer
// or seller.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/repo"
)

// OrderService provides order lifecycle operations. Chat inside an order is
// owned by MessagingService; this service covers the aggregate itself.
type OrderService struct {
	DB *gorm.DB
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{DB: db}
}

// Create opens a pending order: the caller becomes the buyer, the item's
// owner the seller.
func (s *OrderService) Create(ctx context.Context, buyerID, itemID string, price float64) (*domain.Order, error) {
	if price <= 0 {
		return nil, ErrInvalidInput
	}
	it, err := repo.GetItem(ctx, s.DB, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	o, err := repo.CreateOrder(ctx, s.DB, buyerID, it.SellerID, itemID, price)
	if err != nil {
		return nil, err
	}
	return repo.GetOrder(ctx, s.DB, o.ID)
}

// Get returns an order to one of its parties.
func (s *OrderService) Get(ctx context.Context, callerID, orderID string) (*domain.Order, error) {
	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if _, ok := o.Counterparty(callerID); !ok {
		return nil, ErrNotParticipant
	}
	return o, nil
}

// ListForUser returns every order where userID is buyer or seller,
// newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return repo.ListOrdersForUser(ctx, s.DB, userID)
}

// Messages returns the order chat, oldest first, to one of its parties.
func (s *OrderService) Messages(ctx context.Context, callerID, orderID string) ([]domain.OrderMessage, error) {
	if _, err := s.Get(ctx, callerID, orderID); err != nil {
		return nil, err
	}
	return repo.ListOrderMessages(ctx, s.DB, orderID)
}

// Complete marks the order settled. Only the seller can complete.
func (s *OrderService) Complete(ctx context.Context, callerID, orderID string) error {
	o, err := s.Get(ctx, callerID, orderID)
	if err != nil {
		return err
	}
	if o.SellerID != callerID {
		return ErrNotOwner
	}
	return repo.UpdateOrderStatus(ctx, s.DB, orderID, domain.OrderStatusCompleted)
}

// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Order
// aggregate and its embedded chat messages.
//
// The message sequence is append-only: AppendOrderMessage is a single INSERT
// into order_messages, never a read-modify-write of the order row, so two
// concurrent appends to the same order cannot lose each other.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afrimart/marketplace-backend/internal/domain"
)

// CreateOrder inserts a new pending order between buyer and seller for item.
func CreateOrder(ctx context.Context, db *gorm.DB, buyerID, sellerID, itemID string, price float64) (*domain.Order, error) {
	o := &domain.Order{
		ID:        uuid.NewString(),
		BuyerID:   buyerID,
		SellerID:  sellerID,
		ItemID:    itemID,
		Price:     price,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder fetches an order by ID with buyer, seller, and item populated,
// or ErrNotFound if missing.
func GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Preload("Buyer", sellerColumns).
		Preload("Seller", sellerColumns).
		Preload("Item").
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrdersForUser returns all orders where userID is buyer or seller,
// newest first, with item, buyer, and seller populated.
func ListOrdersForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Preload("Buyer", sellerColumns).
		Preload("Seller", sellerColumns).
		Preload("Item").
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// UpdateOrderStatus sets the order status. Returns ErrNotFound when no row
// is affected.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, id, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendOrderMessage durably appends one message to the order chat as a
// single atomic INSERT. The caller is responsible for having verified that
// the order exists.
func AppendOrderMessage(ctx context.Context, db *gorm.DB, orderID, senderID, body string) (*domain.OrderMessage, error) {
	m := &domain.OrderMessage{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListOrderMessages returns the order chat in append order (oldest first)
// with senders populated.
func ListOrderMessages(ctx context.Context, db *gorm.DB, orderID string) ([]domain.OrderMessage, error) {
	var out []domain.OrderMessage
	err := db.WithContext(ctx).
		Preload("Sender", sellerColumns).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountOrderMessages returns the number of messages in an order chat.
func CountOrderMessages(ctx context.Context, db *gorm.DB, orderID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.OrderMessage{}).
		Where("order_id = ?", orderID).
		Count(&total).Error
	return total, err
}

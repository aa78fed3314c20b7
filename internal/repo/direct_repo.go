// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for direct
// (user-to-user) messages.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afrimart/marketplace-backend/internal/domain"
)

// CreateDirectMessage durably stores one direct message as a single INSERT.
func CreateDirectMessage(ctx context.Context, db *gorm.DB, senderID, receiverID, body string) (*domain.DirectMessage, error) {
	m := &domain.DirectMessage{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListConversation returns the two-way history between userA and userB,
// oldest first.
func ListConversation(ctx context.Context, db *gorm.DB, userA, userB string) ([]domain.DirectMessage, error) {
	var out []domain.DirectMessage
	err := db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Group
// aggregate: metadata, the durable membership set, and the group chat.
//
// Like order messages, group messages are append-only single INSERTs.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afrimart/marketplace-backend/internal/domain"
)

// CreateGroup inserts a new group and registers the creator as its first
// member.
func CreateGroup(ctx context.Context, db *gorm.DB, g *domain.Group) (*domain.Group, error) {
	g.ID = uuid.NewString()
	g.CreatedAt = time.Now().UTC()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Create(g).Error; err != nil {
			return err
		}
		return tx.Exec(
			"INSERT INTO group_members (group_id, user_id) VALUES (?, ?)",
			g.ID, g.CreatedBy,
		).Error
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetGroup fetches a group by ID with its members populated (public columns
// only), or ErrNotFound if missing.
func GetGroup(ctx context.Context, db *gorm.DB, id string) (*domain.Group, error) {
	var g domain.Group
	err := db.WithContext(ctx).
		Preload("Members", sellerColumns).
		Where("id = ?", id).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGroups returns all groups, newest first, members populated.
func ListGroups(ctx context.Context, db *gorm.DB) ([]domain.Group, error) {
	var out []domain.Group
	err := db.WithContext(ctx).
		Preload("Members", sellerColumns).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// IsGroupMember reports whether userID is in the durable membership set.
func IsGroupMember(ctx context.Context, db *gorm.DB, groupID, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Table("group_members").
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&n).Error
	return n > 0, err
}

// AddGroupMember adds userID to the group. Adding an existing member is a
// no-op, matching the idempotent join semantics of the HTTP endpoint.
func AddGroupMember(ctx context.Context, db *gorm.DB, groupID, userID string) error {
	member, err := IsGroupMember(ctx, db, groupID, userID)
	if err != nil {
		return err
	}
	if member {
		return nil
	}
	return db.WithContext(ctx).Exec(
		"INSERT INTO group_members (group_id, user_id) VALUES (?, ?)",
		groupID, userID,
	).Error
}

// RemoveGroupMember removes userID from the group. Removing a non-member is
// a no-op.
func RemoveGroupMember(ctx context.Context, db *gorm.DB, groupID, userID string) error {
	return db.WithContext(ctx).Exec(
		"DELETE FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	).Error
}

// ListGroupMemberIDs returns the identity set of the group's durable members.
func ListGroupMemberIDs(ctx context.Context, db *gorm.DB, groupID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Table("group_members").
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// AppendGroupMessage durably appends one message to the group chat as a
// single atomic INSERT.
func AppendGroupMessage(ctx context.Context, db *gorm.DB, groupID, senderID, senderName, body string) (*domain.GroupMessage, error) {
	m := &domain.GroupMessage{
		ID:         uuid.NewString(),
		GroupID:    groupID,
		SenderID:   senderID,
		SenderName: senderName,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListGroupMessages returns the group chat in append order (oldest first).
func ListGroupMessages(ctx context.Context, db *gorm.DB, groupID string) ([]domain.GroupMessage, error) {
	var out []domain.GroupMessage
	err := db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountGroupMessages returns the number of messages in a group chat.
func CountGroupMessages(ctx context.Context, db *gorm.DB, groupID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.GroupMessage{}).
		Where("group_id = ?", groupID).
		Count(&total).Error
	return total, err
}

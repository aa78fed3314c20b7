// Package services – GroupService
//
// Groups are open communities: any authenticated user may create, join,
// leave, or read them. Join and leave are idempotent on the durable
// membership set. Room subscriptions on the realtime channel are a separate
// concern and deliberately not synchronized with this list (see DESIGN.md).
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/repo"
)

// GroupInput is the payload for creating a group.
type GroupInput struct {
	Name        string
	Description string
	Category    string
	Location    string
	CoverImage  string
}

// GroupService provides group lifecycle and membership operations.
type GroupService struct {
	DB *gorm.DB
}

// NewGroupService constructs a GroupService.
func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{DB: db}
}

// Create persists a new group; the creator becomes the first member.
func (s *GroupService) Create(ctx context.Context, creatorID string, in GroupInput) (*domain.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrInvalidInput
	}

	g := &domain.Group{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Location:    strings.TrimSpace(in.Location),
		CoverImage:  strings.TrimSpace(in.CoverImage),
		CreatedBy:   creatorID,
	}
	if _, err := repo.CreateGroup(ctx, s.DB, g); err != nil {
		return nil, err
	}
	return repo.GetGroup(ctx, s.DB, g.ID)
}

// Get returns a group with its members populated.
func (s *GroupService) Get(ctx context.Context, id string) (*domain.Group, error) {
	g, err := repo.GetGroup(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return g, nil
}

// List returns all groups, newest first.
func (s *GroupService) List(ctx context.Context) ([]domain.Group, error) {
	return repo.ListGroups(ctx, s.DB)
}

// Join adds userID to the durable membership set. Joining a group you are
// already in is a no-op.
func (s *GroupService) Join(ctx context.Context, groupID, userID string) error {
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	return repo.AddGroupMember(ctx, s.DB, groupID, userID)
}

// Leave removes userID from the durable membership set. Leaving a group you
// are not in is a no-op.
func (s *GroupService) Leave(ctx context.Context, groupID, userID string) error {
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	return repo.RemoveGroupMember(ctx, s.DB, groupID, userID)
}

// Messages returns the group chat, oldest first.
func (s *GroupService) Messages(ctx context.Context, groupID string) ([]domain.GroupMessage, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	return repo.ListGroupMessages(ctx, s.DB, groupID)
}

// MemberIDs returns the identity set of the group's durable members.
func (s *GroupService) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	return repo.ListGroupMemberIDs(ctx, s.DB, groupID)
}

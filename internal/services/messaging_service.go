// Package services – MessagingService
//
// This file implements MessagingService, the persistence bridge between chat
// callers (the WebSocket dispatcher and the REST endpoints) and the durable
// store. It owns the one ordering rule the realtime layer depends on: a
// message is appended durably first, and only a successful append triggers
// delivery. A failed append returns the error to the caller and delivers
// nothing, so there is never a broadcast-but-not-durable message.
//
// Delivery itself is delegated to a Delivery implementation (the realtime
// hub behind a thin shim); it is best-effort and its outcome never affects
// the result of a send.
package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/afrimart/marketplace-backend/internal/domain"
)

// MessagingRepo defines the repository contract required by MessagingService.
type MessagingRepo interface {
	// GetOrder fetches an order with buyer and seller populated.
	GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error)

	// AppendOrderMessage atomically appends one message to an order chat.
	AppendOrderMessage(ctx context.Context, db *gorm.DB, orderID, senderID, body string) (*domain.OrderMessage, error)

	// GetGroup fetches a group by ID.
	GetGroup(ctx context.Context, db *gorm.DB, id string) (*domain.Group, error)

	// AppendGroupMessage atomically appends one message to a group chat.
	AppendGroupMessage(ctx context.Context, db *gorm.DB, groupID, senderID, senderName, body string) (*domain.GroupMessage, error)

	// GetUser fetches a user (for sender display names).
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)

	// CreateDirectMessage durably stores one direct message.
	CreateDirectMessage(ctx context.Context, db *gorm.DB, senderID, receiverID, body string) (*domain.DirectMessage, error)

	// ListConversation returns the two-way direct history, oldest first.
	ListConversation(ctx context.Context, db *gorm.DB, userA, userB string) ([]domain.DirectMessage, error)
}

// MessageNote is the delivery payload handed to the realtime layer after a
// durable append.
type MessageNote struct {
	SenderName string
	Body       string
	SentAt     time.Time
}

// Delivery is the outbound side of the realtime layer as seen by services.
// All methods are best-effort fire-and-forget: an offline recipient is a
// silent no-op, never an error.
type Delivery interface {
	// NotifyMessage delivers a newMessage event to one user's live connection.
	NotifyMessage(userID string, note MessageNote)

	// BroadcastMessage delivers a newMessage event to every subscriber of the
	// group's room.
	BroadcastMessage(groupID string, note MessageNote)

	// NotifyOffer delivers an offerNotification event to the seller.
	NotifyOffer(sellerID, buyerID, itemID string)
}

// MessagingService appends chat messages durably and fans them out.
type MessagingService struct {
	DB       *gorm.DB
	Repo     MessagingRepo
	Delivery Delivery

	// MaxMessageRunes caps message length; <= 0 means the default of 2000.
	MaxMessageRunes int
}

// NewMessagingService constructs a MessagingService with default limits.
func NewMessagingService(db *gorm.DB, r MessagingRepo, d Delivery) *MessagingService {
	return &MessagingService{DB: db, Repo: r, Delivery: d, MaxMessageRunes: 2000}
}

// SendOrderMessage appends text to the order chat and then notifies both
// parties. The append happens strictly before any delivery; when it fails,
// the error is returned and nothing is delivered.
func (s *MessagingService) SendOrderMessage(ctx context.Context, orderID, senderID, text string) (*domain.OrderMessage, error) {
	order, err := s.Repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	text, err = s.validate(text)
	if err != nil {
		return nil, err
	}
	if _, ok := order.Counterparty(senderID); !ok {
		return nil, ErrNotParticipant
	}

	msg, err := s.Repo.AppendOrderMessage(ctx, s.DB, orderID, senderID, text)
	if err != nil {
		return nil, err
	}

	// Durable from here on; delivery is fire-and-forget to both parties,
	// mirroring the order chat UI which renders the echo for the sender.
	if s.Delivery != nil {
		note := MessageNote{
			SenderName: s.orderSenderName(order, senderID),
			Body:       msg.Body,
			SentAt:     msg.CreatedAt,
		}
		s.Delivery.NotifyMessage(order.BuyerID, note)
		s.Delivery.NotifyMessage(order.SellerID, note)
	}
	return msg, nil
}

// SendGroupMessage appends text to the group chat and then broadcasts it to
// the group's room. Same ordering contract as SendOrderMessage.
func (s *MessagingService) SendGroupMessage(ctx context.Context, groupID, senderID, text string) (*domain.GroupMessage, error) {
	if _, err := s.Repo.GetGroup(ctx, s.DB, groupID); err != nil {
		return nil, ErrGroupNotFound
	}

	text, err := s.validate(text)
	if err != nil {
		return nil, err
	}

	sender, err := s.Repo.GetUser(ctx, s.DB, senderID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	msg, err := s.Repo.AppendGroupMessage(ctx, s.DB, groupID, senderID, sender.Name, text)
	if err != nil {
		return nil, err
	}

	if s.Delivery != nil {
		s.Delivery.BroadcastMessage(groupID, MessageNote{
			SenderName: msg.SenderName,
			Body:       msg.Body,
			SentAt:     msg.CreatedAt,
		})
	}
	return msg, nil
}

// SendDirectMessage durably stores a user-to-user message and then notifies
// the receiver's live connection, if any.
func (s *MessagingService) SendDirectMessage(ctx context.Context, senderID, receiverID, text string) (*domain.DirectMessage, error) {
	text, err := s.validate(text)
	if err != nil {
		return nil, err
	}

	sender, err := s.Repo.GetUser(ctx, s.DB, senderID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if _, err := s.Repo.GetUser(ctx, s.DB, receiverID); err != nil {
		return nil, ErrUserNotFound
	}

	msg, err := s.Repo.CreateDirectMessage(ctx, s.DB, senderID, receiverID, text)
	if err != nil {
		return nil, err
	}

	if s.Delivery != nil {
		s.Delivery.NotifyMessage(receiverID, MessageNote{
			SenderName: sender.Name,
			Body:       msg.Body,
			SentAt:     msg.CreatedAt,
		})
	}
	return msg, nil
}

// Conversation returns the direct-message history between the caller and the
// other user, oldest first.
func (s *MessagingService) Conversation(ctx context.Context, userID, otherID string) ([]domain.DirectMessage, error) {
	return s.Repo.ListConversation(ctx, s.DB, userID, otherID)
}

// validate trims and bounds message text.
func (s *MessagingService) validate(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	max := s.MaxMessageRunes
	if max <= 0 {
		max = 2000
	}
	if utf8.RuneCountInString(text) > max {
		return "", ErrTooLong
	}
	return text, nil
}

// orderSenderName resolves the display name for an order message from the
// preloaded parties, falling back to the party role when the join is absent.
func (s *MessagingService) orderSenderName(order *domain.Order, senderID string) string {
	switch senderID {
	case order.BuyerID:
		if order.Buyer != nil && order.Buyer.Name != "" {
			return order.Buyer.Name
		}
		return "Buyer"
	default:
		if order.Seller != nil && order.Seller.Name != "" {
			return order.Seller.Name
		}
		return "Seller"
	}
}

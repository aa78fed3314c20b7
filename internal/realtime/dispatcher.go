// Dispatcher: decodes inbound envelopes and drives the hub and the
// messaging service. Each session's read loop calls Dispatch sequentially;
// state shared between sessions lives behind the hub's locks.
package realtime

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/services"
)

// Messenger is the persistence bridge consumed by the dispatcher: it must
// durably append a chat message before any delivery happens, and return an
// error (delivering nothing) when the append fails.
type Messenger interface {
	SendOrderMessage(ctx context.Context, orderID, senderID, text string) (*domain.OrderMessage, error)
	SendGroupMessage(ctx context.Context, groupID, senderID, text string) (*domain.GroupMessage, error)
}

// Dispatcher routes inbound events for one hub.
type Dispatcher struct {
	Hub      *Hub
	Messages Messenger
	Log      zerolog.Logger
}

// Dispatch handles a single inbound envelope from sess. A panic inside an
// event handler is recovered here and turned into an errorMessage to the
// originating connection only; other sessions are unaffected.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *Session, ev Envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.Log.Error().Interface("panic", r).Str("event", ev.Event).Msg("event handler panicked")
			d.Hub.SendTo(sess.ID, EventError, "internal error")
		}
	}()

	switch ev.Event {
	case EventUserConnected:
		var p ConnectPayload
		if !d.decode(sess, ev, &p) {
			return
		}
		if p.UserID == "" {
			d.Hub.SendTo(sess.ID, EventError, "userId is required")
			return
		}
		sess.userID = p.UserID
		d.Hub.Identify(sess.ID, p.UserID)

	case EventJoinGroup:
		var p GroupPayload
		if !d.decode(sess, ev, &p) {
			return
		}
		if p.GroupID == "" {
			d.Hub.SendTo(sess.ID, EventError, "groupId is required")
			return
		}
		d.Hub.JoinRoom(p.GroupID, sess.ID)
		d.Hub.Broadcast(p.GroupID, EventUserJoined, PresenceNotification{
			UserID:  p.UserID,
			GroupID: p.GroupID,
		})

	case EventLeaveGroup:
		var p GroupPayload
		if !d.decode(sess, ev, &p) {
			return
		}
		d.Hub.LeaveRoom(p.GroupID, sess.ID)
		d.Hub.Broadcast(p.GroupID, EventUserLeft, PresenceNotification{
			UserID:  p.UserID,
			GroupID: p.GroupID,
		})

	case EventSendMessage:
		var p SendMessagePayload
		if !d.decode(sess, ev, &p) {
			return
		}
		d.sendMessage(ctx, sess, p)

	case EventSendOffer, EventMakeOffer:
		var p OfferPayload
		if !d.decode(sess, ev, &p) {
			return
		}
		if p.SellerID == "" {
			d.Hub.SendTo(sess.ID, EventError, "sellerId is required")
			return
		}
		note := OfferNotification{
			BuyerID: p.BuyerID,
			ItemID:  p.ItemID,
		}
		d.Hub.Notify(p.SellerID, EventOfferNotification, note)
		// Older clients listen for newOffer instead.
		d.Hub.Notify(p.SellerID, EventNewOffer, note)

	default:
		d.Hub.SendTo(sess.ID, EventError, "unknown event")
	}
}

// sendMessage discriminates the two historical payload shapes and runs the
// persistence bridge. Delivery happens inside the messaging service, strictly
// after the durable append; a failed append surfaces here as an error event
// to the sender and nothing is broadcast.
func (d *Dispatcher) sendMessage(ctx context.Context, sess *Session, p SendMessagePayload) {
	sender := p.Sender()
	if sender == "" {
		sender = sess.userID
	}

	var err error
	switch {
	case p.OrderID != "":
		_, err = d.Messages.SendOrderMessage(ctx, p.OrderID, sender, p.Body())
	case p.GroupID != "":
		_, err = d.Messages.SendGroupMessage(ctx, p.GroupID, sender, p.Body())
	default:
		d.Hub.SendTo(sess.ID, EventError, "orderId or groupId is required")
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, services.ErrOrderNotFound):
		d.Hub.SendTo(sess.ID, EventError, "Order not found.")
	case errors.Is(err, services.ErrGroupNotFound):
		d.Hub.SendTo(sess.ID, EventError, "Group not found.")
	case errors.Is(err, services.ErrEmptyMessage):
		d.Hub.SendTo(sess.ID, EventError, "Message text is required.")
	default:
		d.Log.Error().Err(err).Msg("send message failed")
		d.Hub.SendTo(sess.ID, EventError, "Error sending message.")
	}
}

// decode unmarshals the payload, reporting a malformed one to the sender.
func (d *Dispatcher) decode(sess *Session, ev Envelope, dst any) bool {
	if len(ev.Data) == 0 {
		d.Hub.SendTo(sess.ID, EventError, "missing payload")
		return false
	}
	if err := decodeJSON(ev.Data, dst); err != nil {
		d.Hub.SendTo(sess.ID, EventError, "malformed payload")
		return false
	}
	return true
}

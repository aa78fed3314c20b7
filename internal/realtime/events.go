// Package realtime implements the live-notification layer: a process-wide
// presence registry, a hub that routes events to connected WebSocket
// sessions, room-based group broadcast, and the inbound event dispatcher.
//
// Delivery semantics are deliberately best-effort and at-most-once: an event
// for a user who is not connected (or whose send queue is full) is dropped
// without error, and there is no store-and-forward or backlog replay. Durable
// state lives exclusively in the database; everything in this package is lost
// on restart.
package realtime

import "encoding/json"

// Inbound event names accepted on the WebSocket channel.
const (
	EventUserConnected = "userConnected"
	EventJoinGroup     = "joinGroup"
	EventLeaveGroup    = "leaveGroup"
	EventSendMessage   = "sendMessage"
	EventSendOffer     = "sendOffer"
	EventMakeOffer     = "makeOffer" // legacy alias for sendOffer
)

// Outbound event names emitted to connected sessions.
const (
	EventNewMessage        = "newMessage"
	EventOfferNotification = "offerNotification"
	EventNewOffer          = "newOffer" // legacy alias some clients still listen for
	EventUserJoined        = "userJoined"
	EventUserLeft          = "userLeft"
	EventError             = "errorMessage"
)

// Envelope is the wire format of every event in both directions:
// a name plus a JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope builds an outbound envelope, marshaling data into the payload.
// A payload that cannot be marshaled yields an envelope with empty data; the
// event name still goes out so the client sees something rather than nothing.
func NewEnvelope(event string, data any) Envelope {
	if data == nil {
		return Envelope{Event: event}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{Event: event}
	}
	return Envelope{Event: event, Data: raw}
}

// ErrorEnvelope builds an errorMessage envelope carrying a plain string,
// matching the channel's historical wire shape.
func ErrorEnvelope(msg string) Envelope {
	return NewEnvelope(EventError, msg)
}

// decodeJSON unmarshals a payload into dst.
func decodeJSON(raw json.RawMessage, dst any) error {
	return json.Unmarshal(raw, dst)
}

// ConnectPayload identifies the user behind a connection.
type ConnectPayload struct {
	UserID string `json:"userId"`
}

// GroupPayload addresses a group room on join/leave.
type GroupPayload struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

// SendMessagePayload is the inbound chat payload. The channel historically
// carries two shapes under the same event name: group messages
// ({groupId, userId, text}) and order messages ({orderId, senderId, message}).
// The dispatcher discriminates on which aggregate id is present.
type SendMessagePayload struct {
	GroupID  string `json:"groupId,omitempty"`
	OrderID  string `json:"orderId,omitempty"`
	UserID   string `json:"userId,omitempty"`
	SenderID string `json:"senderId,omitempty"`
	Text     string `json:"text,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Sender returns whichever sender field the payload carries.
func (p SendMessagePayload) Sender() string {
	if p.SenderID != "" {
		return p.SenderID
	}
	return p.UserID
}

// Body returns whichever text field the payload carries.
func (p SendMessagePayload) Body() string {
	if p.Text != "" {
		return p.Text
	}
	return p.Message
}

// OfferPayload is the inbound sendOffer payload.
type OfferPayload struct {
	SellerID string `json:"sellerId"`
	BuyerID  string `json:"buyerId"`
	ItemID   string `json:"itemId"`
}

// OfferNotification is the outbound payload delivered to the seller.
type OfferNotification struct {
	BuyerID string `json:"buyerId"`
	ItemID  string `json:"itemId"`
}

// MessageNotification is the outbound payload for newMessage events.
type MessageNotification struct {
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// PresenceNotification is the outbound payload for userJoined/userLeft.
type PresenceNotification struct {
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
}

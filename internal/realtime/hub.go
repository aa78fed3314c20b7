// Hub: routes events to live sessions, point-to-point via the presence
// registry or one-to-many via group rooms.
package realtime

import (
	"sync"

	"github.com/rs/zerolog"
)

// Outbound is the delivery end of one live connection. Push must not block;
// it reports whether the event was accepted. A full queue means the consumer
// is too slow and the transport layer will drop the connection.
type Outbound interface {
	Push(ev Envelope) bool
}

// Hub owns the live-connection state: attached sessions, the presence
// registry, and the group broadcast rooms. All exported methods are safe for
// concurrent use.
//
// Delivery through the hub is at-most-once and best-effort. Notify to an
// offline user is a silent no-op; Broadcast to an empty room delivers to
// nobody and is not an error. The hub never persists anything: callers that
// need durability must write first and notify after (see
// services.MessagingService).
type Hub struct {
	log      zerolog.Logger
	presence *Presence

	mu    sync.RWMutex
	conns map[string]Outbound            // connID -> session
	rooms map[string]map[string]Outbound // groupID -> connID -> session
}

// NewHub returns an empty hub logging through log.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:      log,
		presence: NewPresence(),
		conns:    make(map[string]Outbound),
		rooms:    make(map[string]map[string]Outbound),
	}
}

// Presence exposes the registry for read-side collaborators (tests, health).
func (h *Hub) Presence() *Presence { return h.presence }

// Attach registers a transport session under connID. The session is not yet
// bound to a user; Identify does that once the client announces itself.
func (h *Hub) Attach(connID string, out Outbound) {
	h.mu.Lock()
	h.conns[connID] = out
	h.mu.Unlock()
	wsConnections.Inc()
	h.log.Debug().Str("conn_id", connID).Msg("session attached")
}

// Detach removes the session, its presence entry, and every room
// subscription it holds. Safe to call for an unknown connection; the
// transport invokes it exactly once per disconnect.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	_, known := h.conns[connID]
	delete(h.conns, connID)
	for groupID, room := range h.rooms {
		if _, ok := room[connID]; ok {
			delete(room, connID)
			if len(room) == 0 {
				delete(h.rooms, groupID)
			}
		}
	}
	h.mu.Unlock()

	h.presence.Unregister(connID)
	wsOnlineUsers.Set(float64(h.presence.Online()))
	if known {
		wsConnections.Dec()
		h.log.Debug().Str("conn_id", connID).Msg("session detached")
	}
}

// Identify binds connID to userID in the presence registry,
// last-connect-wins.
func (h *Hub) Identify(connID, userID string) {
	h.presence.Register(userID, connID)
	wsOnlineUsers.Set(float64(h.presence.Online()))
	h.log.Debug().Str("conn_id", connID).Str("user_id", userID).Msg("user online")
}

// Notify delivers one event to userID's live connection, if any. It returns
// whether the event was enqueued. An offline target is expected and logged
// at debug only; there is no queueing and no retry.
//
// Notify is a plain synchronous call so REST handlers can invoke it directly
// (the make-offer endpoint does), not only the WebSocket dispatcher.
func (h *Hub) Notify(userID, event string, data any) bool {
	connID, ok := h.presence.ConnID(userID)
	if !ok {
		wsDropped.WithLabelValues(event, "offline").Inc()
		h.log.Debug().Str("user_id", userID).Str("event", event).Msg("target offline, dropping event")
		return false
	}
	return h.push(connID, NewEnvelope(event, data))
}

// SendTo delivers one event to a specific connection, bypassing presence.
// Used for error feedback to the originating session.
func (h *Hub) SendTo(connID, event string, data any) bool {
	return h.push(connID, NewEnvelope(event, data))
}

// push enqueues an envelope on a connection's send queue.
func (h *Hub) push(connID string, ev Envelope) bool {
	h.mu.RLock()
	out, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		wsDropped.WithLabelValues(ev.Event, "gone").Inc()
		return false
	}
	if !out.Push(ev) {
		wsDropped.WithLabelValues(ev.Event, "queue_full").Inc()
		h.log.Warn().Str("conn_id", connID).Str("event", ev.Event).Msg("send queue full, dropping event")
		return false
	}
	wsDelivered.WithLabelValues(ev.Event).Inc()
	return true
}

// JoinRoom subscribes connID to the broadcast room for groupID. Room
// membership is independent of the durable group membership list: the
// subscription lives and dies with the connection.
func (h *Hub) JoinRoom(groupID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out, ok := h.conns[connID]
	if !ok {
		return
	}
	room := h.rooms[groupID]
	if room == nil {
		room = make(map[string]Outbound)
		h.rooms[groupID] = room
	}
	room[connID] = out
}

// LeaveRoom unsubscribes connID from the room. No-op when not subscribed.
func (h *Hub) LeaveRoom(groupID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[groupID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, groupID)
	}
}

// Broadcast delivers one event to every current subscriber of the room and
// returns how many sessions accepted it. An empty room is not an error.
func (h *Hub) Broadcast(groupID, event string, data any) int {
	ev := NewEnvelope(event, data)

	h.mu.RLock()
	room := h.rooms[groupID]
	targets := make([]Outbound, 0, len(room))
	for _, out := range room {
		targets = append(targets, out)
	}
	h.mu.RUnlock()

	n := 0
	for _, out := range targets {
		if out.Push(ev) {
			wsDelivered.WithLabelValues(event).Inc()
			n++
		} else {
			wsDropped.WithLabelValues(event, "queue_full").Inc()
		}
	}
	return n
}

// RoomSize reports the number of current subscribers of a room.
func (h *Hub) RoomSize(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[groupID])
}

// Session: one live WebSocket connection, with the standard read/write pump
// pair. A single writer goroutine consumes the buffered send queue; the hub
// and REST handlers only ever enqueue.
package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// writeWait is the deadline for a single write to the peer.
	writeWait = 10 * time.Second
	// pongWait is how long we wait for a pong before declaring the peer dead.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize caps inbound frames; chat payloads are small.
	maxMessageSize = 8 << 10
)

// Session wraps a websocket.Conn with a buffered outbound queue.
// It implements Outbound.
//
// The send queue is never closed: Push may run concurrently with teardown,
// and both pumps exit by closing the underlying connection instead.
type Session struct {
	// ID is the opaque connection identity used by the presence registry.
	ID string

	conn *websocket.Conn
	send chan Envelope
	log  zerolog.Logger

	// userID is set by the dispatcher on userConnected. It is only written
	// and read from the session's read loop, so it needs no lock.
	userID string
}

// NewSession wraps conn with a fresh connection id and a send queue of the
// given capacity.
func NewSession(conn *websocket.Conn, queueSize int, log zerolog.Logger) *Session {
	if queueSize <= 0 {
		queueSize = 32
	}
	id := uuid.NewString()
	return &Session{
		ID:   id,
		conn: conn,
		send: make(chan Envelope, queueSize),
		log:  log.With().Str("conn_id", id).Logger(),
	}
}

// Push enqueues an envelope without blocking. It reports false when the
// queue is full; the hub records the drop and the write pump will eventually
// tear the connection down if the client never drains.
func (s *Session) Push(ev Envelope) bool {
	select {
	case s.send <- ev:
		return true
	default:
		return false
	}
}

// WritePump drains the send queue to the peer and keeps the connection alive
// with periodic pings. It must run in its own goroutine, exactly one per
// session; it exits when a write fails, which includes the read side closing
// the connection.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case ev := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(ev); err != nil {
				s.log.Debug().Err(err).Msg("write failed, closing session")
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump reads envelopes off the wire and hands them to handle until the
// peer goes away. On return the connection is closed; the caller is
// responsible for detaching the session from the hub exactly once.
func (s *Session) ReadPump(handle func(Envelope)) {
	defer func() { _ = s.conn.Close() }()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Msg("unexpected close")
			}
			return
		}
		var ev Envelope
		if err := json.Unmarshal(raw, &ev); err != nil {
			s.Push(ErrorEnvelope("malformed event"))
			continue
		}
		handle(ev)
	}
}

// Realtime channel HTTP handler.
//
// This file upgrades GET /ws to a WebSocket connection and runs it through
// the realtime hub: one writer goroutine per connection, a read loop that
// feeds the event dispatcher, and exactly one detach when the socket dies.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/afrimart/marketplace-backend/internal/realtime"
)

// WSHandler owns the WebSocket endpoint.
type WSHandler struct {
	hub        *realtime.Hub
	dispatcher *realtime.Dispatcher
	queueSize  int
	log        zerolog.Logger
	upgrader   websocket.Upgrader
}

// NewWSHandler constructs a WSHandler. queueSize bounds each connection's
// outbound buffer; events past it are dropped, not queued.
func NewWSHandler(hub *realtime.Hub, dispatcher *realtime.Dispatcher, queueSize int, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:        hub,
		dispatcher: dispatcher,
		queueSize:  queueSize,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS layer on the REST
			// surface; the socket accepts any origin like the rest of the API.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve godoc
// @ID          realtimeChannel
// @Summary     Realtime event channel
// @Description Upgrades the request to a WebSocket carrying JSON envelopes {event, data}. Clients identify with a userConnected event after connecting.
// @Tags        Realtime
//
// @Success     101  {string}  string  "Switching Protocols"
// @Failure     400  {object}  handlers.ErrorResponse  "Upgrade failed"
// @Router      /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	sess := realtime.NewSession(conn, h.queueSize, h.log)
	h.hub.Attach(sess.ID, sess)
	defer h.hub.Detach(sess.ID)

	go sess.WritePump()

	ctx := c.Request.Context()
	sess.ReadPump(func(ev realtime.Envelope) {
		h.dispatcher.Dispatch(ctx, sess, ev)
	})
}

package http

import (
	"context"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/core"
)

const maxFrameSize = 65536

// WSHandler upgrades HTTP connections and bridges them to the command
// queue. Each connection is a single producer: its CONNECT, MESSAGE and
// DISCONNECT events are enqueued from one goroutine, which is what gives
// the per-connection ordering guarantee at the queue boundary.
type WSHandler struct {
	queue *core.CommandQueue
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(queue *core.CommandQueue, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{queue: queue, log: logger}
}

// Handle is the gin route for the chat endpoint.
func (h *WSHandler) Handle(c *gin.Context) {
	h.serve(c.Writer, c.Request)
}

func (h *WSHandler) serve(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	conn.SetReadLimit(maxFrameSize)

	wc := &wsConn{conn: conn, remote: r.RemoteAddr}

	if err := h.queue.Enqueue(core.ClientCommand{
		Conn: wc,
		Kind: core.CommandConnect,
		Name: r.URL.Query().Get("name"),
	}); err != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	for {
		msgType, data, readErr := conn.Read(ctx)
		if readErr != nil {
			if websocket.CloseStatus(readErr) == -1 {
				h.log.Debug().Err(readErr).Str("remote", wc.remote).Msg("ws read ended")
			}
			break
		}
		if msgType != websocket.MessageText {
			continue
		}
		if err := h.queue.Enqueue(core.ClientCommand{
			Conn:    wc,
			Kind:    core.CommandMessage,
			Payload: string(data),
		}); err != nil {
			break
		}
	}

	// Best effort: the resolver treats disconnects for unknown connections
	// as a no-op, so a lost enqueue during shutdown is harmless.
	_ = h.queue.Enqueue(core.ClientCommand{Conn: wc, Kind: core.CommandDisconnect})
	conn.Close(websocket.StatusNormalClosure, "closing")
}

// wsConn lends the write capability of a websocket connection to the core.
// coder/websocket serializes concurrent writers internally, so fan-out
// tasks may write without extra locking.
type wsConn struct {
	conn   *websocket.Conn
	remote string
}

func (c *wsConn) WriteText(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) RemoteAddr() string {
	return c.remote
}

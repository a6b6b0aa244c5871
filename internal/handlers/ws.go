package handlers

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/aaronzipp/famous-spy/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 32
)

var (
	errConnClosed  = errors.New("connection closed")
	errSendTimeout = errors.New("send timed out")
)

type clientFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// HandleWebSocket upgrades the request and runs the connection until it
// closes. The token comes from the token query parameter or the token header.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = c.GetHeader(TokenHeader)
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug().Err(err).Str("ip", c.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	conn := newWSConn(ws, h.opts.SendTimeout, h.log)
	go conn.writePump()

	if err := h.sessions.OnConnect(conn, token); err != nil {
		return
	}
	conn.readPump(func(f clientFrame) {
		switch f.Event {
		case session.EventRequestState:
			h.sessions.OnRequestState(conn.ID())
		case session.EventAnnounceRound:
			h.sessions.OnAnnounceRound(conn.ID())
		}
	})
	conn.Close()
	h.sessions.OnDisconnect(conn.ID())
}

// wsConn is a session.Conn over a gorilla websocket. Outbound frames go
// through a buffered queue drained by writePump, the only goroutine writing
// to the socket.
type wsConn struct {
	id          string
	ws          *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	sendTimeout time.Duration
	log         zerolog.Logger
}

func newWSConn(ws *websocket.Conn, sendTimeout time.Duration, log zerolog.Logger) *wsConn {
	id := uuid.NewString()
	return &wsConn{
		id:          id,
		ws:          ws,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		sendTimeout: sendTimeout,
		log:         log.With().Str("conn", id).Logger(),
	}
}

func (c *wsConn) ID() string { return c.id }

// Send queues a frame. It gives up after the send timeout so one slow client
// cannot stall a broadcast.
func (c *wsConn) Send(event string, data any) error {
	msg, err := json.Marshal(session.Frame{Event: event, Data: data})
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	timer := time.NewTimer(c.sendTimeout)
	defer timer.Stop()
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return errConnClosed
	case <-timer.C:
		return errSendTimeout
	}
}

// Close asks writePump to flush queued frames and close the socket
func (c *wsConn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued
func (c *wsConn) flush() {
	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *wsConn) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

// readPump decodes client frames until the socket fails. Malformed frames
// are skipped.
func (c *wsConn) readPump(handle func(clientFrame)) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("connection dropped")
			}
			return
		}

		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			c.log.Debug().Err(err).Msg("malformed frame")
			continue
		}
		handle(f)
	}
}

package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Liveness literals exchanged as text frames.
const (
	PingText = "ping"
	PongText = "pong"
)

const maxInboundBytes = 4096

// ConnConfig configures a subscriber connection.
type ConnConfig struct {
	PingInterval time.Duration // How often we send a WebSocket ping
	PingTimeout  time.Duration // How long after a ping we wait for the pong
	WriteTimeout time.Duration // Write deadline per frame
	SendBuffer   int           // Queued frames before the subscriber counts as stuck
}

// DefaultConnConfig returns sensible defaults.
func DefaultConnConfig() ConnConfig {
	return ConnConfig{
		PingInterval: 20 * time.Second,
		PingTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   64,
	}
}

// Conn is a Subscriber backed by a WebSocket connection.
type Conn struct {
	id     string
	ws     *websocket.Conn
	cfg    ConnConfig
	logger *slog.Logger

	send chan []byte
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewConn wraps an upgraded connection. Call Serve to run it.
func NewConn(ws *websocket.Conn, cfg ConnConfig, logger *slog.Logger) *Conn {
	def := DefaultConnConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = def.PingTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	return &Conn{
		id:     id,
		ws:     ws,
		cfg:    cfg,
		logger: logger.With("subscriber", id),
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

// ID returns the subscriber id.
func (c *Conn) ID() string { return c.id }

// Send queues a text frame without blocking.
func (c *Conn) Send(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close stops the pumps; the write pump sends a close frame and closes the socket.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	return nil
}

// Serve registers the connection, pumps frames until either side goes away,
// then unregisters. It blocks for the life of the connection.
func (c *Conn) Serve(ctx context.Context, reg *Registry) error {
	if err := reg.Register(ctx, c); err != nil {
		c.logger.Warn("register failed", "error", err)
		c.Close()
		c.ws.Close()
		return err
	}
	defer reg.Unregister(c)

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		c.writePump()
	}()

	// Server shutdown closes the subscriber
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	c.readPump()

	c.Close()
	<-pumpDone
	return nil
}

// readPump handles inbound frames and keeps the read deadline moving on pongs.
func (c *Conn) readPump() {
	wait := c.cfg.PingInterval + c.cfg.PingTimeout

	c.ws.SetReadLimit(maxInboundBytes)
	c.ws.SetReadDeadline(time.Now().Add(wait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("subscriber read error", "error", err)
			}
			return
		}

		// Anything other than the literal ping is ignored
		if msgType == websocket.TextMessage && string(data) == PingText {
			if !c.reply([]byte(PongText)) {
				return
			}
		}
	}
}

// reply queues a heartbeat answer. A subscriber too far behind to take it
// is closed.
func (c *Conn) reply(data []byte) bool {
	if c.Send(data) {
		return true
	}
	c.logger.Warn("subscriber queue full, dropping connection", "queued", len(c.send))
	c.Close()
	return false
}

// writePump is the only writer on the socket.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			c.ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			return

		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("subscriber write failed", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteTimeout)); err != nil {
				c.logger.Debug("subscriber ping failed", "error", err)
				return
			}
		}
	}
}

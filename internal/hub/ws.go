package hub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sim-trading-engine/internal/id"
	"sim-trading-engine/internal/logger"
	"sim-trading-engine/internal/store"
)

// WSConfig tunes websocket subscribers.
type WSConfig struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
	PongTimeout  time.Duration
	MaxMessage   int64
}

// DefaultWSConfig returns the settings used when a field is unset.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		SendBuffer:   64,
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		PongTimeout:  60 * time.Second,
		MaxMessage:   4096,
	}
}

// WSConfigFrom reads the hub section of cfg.
func WSConfigFrom(cfg *store.Config) WSConfig {
	return WSConfig{
		SendBuffer:   cfg.Hub.SendBuffer,
		WriteTimeout: cfg.Hub.WriteTimeout,
		PingInterval: cfg.Hub.PingInterval,
		PongTimeout:  cfg.Hub.PongTimeout,
		MaxMessage:   cfg.Hub.MaxMessage,
	}
}

// withDefaults replaces non-positive fields with DefaultWSConfig values.
func (c WSConfig) withDefaults() WSConfig {
	d := DefaultWSConfig()
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = d.PongTimeout
	}
	if c.MaxMessage <= 0 {
		c.MaxMessage = d.MaxMessage
	}
	return c
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsSubscriber queues outbound messages for a single write pump, which is
// the only goroutine that writes to conn.
type wsSubscriber struct {
	id   string
	conn *websocket.Conn
	cfg  WSConfig
	send chan []byte

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newWSSubscriber(conn *websocket.Conn, cfg WSConfig) *wsSubscriber {
	return &wsSubscriber{
		id:   id.UUID(),
		conn: conn,
		cfg:  cfg,
		send: make(chan []byte, cfg.SendBuffer),
		done: make(chan struct{}),
	}
}

func (s *wsSubscriber) ID() string { return s.id }

func (s *wsSubscriber) Send(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	select {
	case s.send <- msg:
		return nil
	default:
		return ErrSlowSubscriber
	}
}

func (s *wsSubscriber) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *wsSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

func (s *wsSubscriber) writePump(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = s.Close()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug(ctx, "Websocket write failed", "subscriber_id", s.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.cfg.WriteTimeout))
			return
		}
	}
}

// readPump discards client frames and returns once the peer goes away.
func (s *wsSubscriber) readPump() {
	s.conn.SetReadLimit(s.cfg.MaxMessage)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WSHandler upgrades the request and keeps the subscriber registered for
// the lifetime of the connection.
func (h *Hub) WSHandler(cfg WSConfig) http.HandlerFunc {
	cfg = cfg.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithoutCancel(r.Context())

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn(ctx, "Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}

		sub := newWSSubscriber(conn, cfg)
		go sub.writePump(ctx)

		if err := h.Subscribe(ctx, sub); err != nil {
			logger.Warn(ctx, "Websocket subscribe failed", "subscriber_id", sub.id, "error", err)
			return
		}

		sub.readPump()
		h.Unsubscribe(ctx, sub)
		_ = sub.Close()
	}
}

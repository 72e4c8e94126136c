package signaling

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/huddlekit/signaling/internal/config"
	"github.com/huddlekit/signaling/internal/metrics"
	"github.com/huddlekit/signaling/internal/origin"
	"github.com/huddlekit/signaling/internal/ratelimit"
	"github.com/huddlekit/signaling/internal/room"
)

const (
	wsWriteWait = 1 * time.Second

	// Events queued per connection before delivery becomes lossy.
	clientSendQueue = 32
)

// Server upgrades browser connections at the signaling endpoint and feeds
// their events into the room store, one message at a time per connection.
//
// It enforces an origin policy plus per-connection limits so a single
// misbehaving client cannot hold large buffers or flood the room store.
type Server struct {
	cfg      config.Config
	store    *room.Store
	registry *Registry
	metrics  *metrics.Metrics
	clock    ratelimit.Clock
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewServer(cfg config.Config, store *room.Store, registry *Registry, m *metrics.Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		store:    store,
		registry: registry,
		metrics:  m,
		clock:    ratelimit.RealClock{},
		log:      log,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// Only browsers send Origin; its absence means a non-browser
			// client, which the origin policy does not constrain.
			header := r.Header.Get("Origin")
			if header == "" {
				return true
			}
			o, ok := origin.Allowed(header, r.Host, cfg.AllowedOrigins)
			if !ok {
				s.metrics.Inc(metrics.OriginRejected)
				s.log.Warn("rejected websocket origin", "origin", o, "host", r.Host)
			}
			return ok
		},
	}
	return s
}

// client is one upgraded WebSocket connection. All writes go through the
// send queue so the write pump is the only goroutine touching the socket's
// write side.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientSendQueue),
		done: make(chan struct{}),
	}
}

// trySend queues a payload without blocking. Returns false when the queue is
// full or the connection is shutting down.
func (c *client) trySend(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *client) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := newClient(conn)
	s.registry.add(c)
	defer func() {
		// Disconnect runs the same leave path as an explicit leave-room, after
		// the connection can no longer receive its own notifications.
		s.registry.remove(c.id)
		close(c.done)
		s.store.Leave(c.id)
	}()

	s.log.Debug("websocket connected", "conn_id", c.id, "remote_addr", r.RemoteAddr)

	conn.SetReadLimit(s.cfg.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.WSIdleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.WSIdleTimeout))
	})

	go c.writePump(s.cfg.WSPingInterval)

	rate := int64(s.cfg.MaxMessagesPerSecond)
	limiter := ratelimit.NewTokenBucket(s.clock, rate, rate)

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			s.log.Debug("websocket closed", "conn_id", c.id, "err", err)
			return
		}
		if msgType != websocket.TextMessage {
			writeClose(conn, websocket.CloseUnsupportedData, "expected text message")
			return
		}
		if !limiter.Allow(1) {
			s.metrics.Inc(metrics.MessagesRateLimited)
			writeClose(conn, websocket.ClosePolicyViolation, "rate limit exceeded")
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.WSIdleTimeout))

		msg, err := parseClientMessage(payload)
		if err != nil {
			writeClose(conn, websocket.ClosePolicyViolation, "invalid message")
			return
		}

		s.dispatch(c, msg)
	}
}

// dispatch runs one event to completion. A panicking handler is contained to
// this message: the connection and every other room stay up.
func (s *Server) dispatch(c *client, msg clientMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("event handler panicked", "conn_id", c.id, "event", string(msg.Type), "panic", r)
			switch msg.Type {
			case messageTypeCreateRoom:
				s.sendEvent(c, failureAck{Type: ackTypeCreateRoom, Error: "Internal error"})
			case messageTypeJoinRoom:
				s.sendEvent(c, failureAck{Type: ackTypeJoinRoom, Error: "Internal error"})
			}
		}
	}()

	switch msg.Type {
	case messageTypeCreateRoom:
		res, err := s.store.Create(c.id, msg.Username, msg.Secret)
		if err != nil {
			s.sendEvent(c, failureAck{Type: ackTypeCreateRoom, Error: err.Error()})
			return
		}
		s.sendEvent(c, createRoomAck{
			Type:    ackTypeCreateRoom,
			Success: true,
			RoomID:  res.RoomID,
			IsHost:  true,
		})

	case messageTypeJoinRoom:
		res, err := s.store.Join(c.id, msg.RoomID, msg.Username, msg.Secret)
		if err != nil {
			s.sendEvent(c, failureAck{Type: ackTypeJoinRoom, Error: err.Error()})
			return
		}
		s.sendEvent(c, joinRoomAck{
			Type:          ackTypeJoinRoom,
			Success:       true,
			RoomID:        res.RoomID,
			IsHost:        res.IsHost,
			Participants:  res.Roster,
			ScreenSharing: res.ScreenSharing,
		})

	case messageTypeSignal:
		s.store.Signal(c.id, msg.To, msg.Signal)

	case messageTypeMuteUpdate:
		s.store.SetMuted(c.id, *msg.Muted)

	case messageTypeScreenSharing:
		s.store.SetScreenSharing(c.id, *msg.Active)

	case messageTypeLeaveRoom:
		s.store.Leave(c.id)

	case messageTypeHeartbeat:
		s.store.Heartbeat(c.id)
	}
}

func (s *Server) sendEvent(c *client, event any) {
	s.registry.Notify(c.id, event)
}

func writeClose(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(wsWriteWait))
}

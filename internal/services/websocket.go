package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// Send buffer per session; when full, the oldest messages are dropped so
	// a slow client never blocks the publisher.
	sessionSendBuffer = 256

	pongWait = 30 * time.Second
)

// SessionRegistry tracks the live WebSocket sessions per user. The mutex
// guards insertion and removal only; message sending never holds it.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[*Session]bool
	logger   *logrus.Logger
}

func NewSessionRegistry(logger *logrus.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[uuid.UUID]map[*Session]bool),
		logger:   logger,
	}
}

func (r *SessionRegistry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.userID] == nil {
		r.sessions[s.userID] = make(map[*Session]bool)
	}
	r.sessions[s.userID][s] = true
	r.logger.WithField("user_id", s.userID).Debug("WebSocket session registered")
}

func (r *SessionRegistry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.sessions[s.userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(r.sessions, s.userID)
		}
	}
	r.logger.WithField("user_id", s.userID).Debug("WebSocket session removed")
}

// Count returns the number of connected sessions across all users.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, set := range r.sessions {
		n += len(set)
	}
	return n
}

// CountForUser returns the number of sessions a single user holds.
func (r *SessionRegistry) CountForUser(userID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID])
}

// SessionConfig carries the gateway timing knobs.
type SessionConfig struct {
	PingInterval  time.Duration
	WriteDeadline time.Duration
	EchoMessages  bool // echo client frames back in development
}

// Session is one authenticated WebSocket connection. It subscribes to the
// global channel and the user's own channel and forwards every payload
// verbatim as a text frame, preserving per-channel publish order.
type Session struct {
	userID      uuid.UUID
	conn        *websocket.Conn
	redisClient *redis.Client
	registry    *SessionRegistry
	config      SessionConfig
	logger      *logrus.Logger

	send      chan []byte
	dropped   int
	droppedMu sync.Mutex

	closeOnce sync.Once
}

func NewSession(conn *websocket.Conn, userID uuid.UUID, redisClient *redis.Client, registry *SessionRegistry, config SessionConfig, logger *logrus.Logger) *Session {
	if config.PingInterval <= 0 {
		config.PingInterval = 15 * time.Second
	}
	if config.WriteDeadline <= 0 {
		config.WriteDeadline = 10 * time.Second
	}
	return &Session{
		userID:      userID,
		conn:        conn,
		redisClient: redisClient,
		registry:    registry,
		config:      config,
		logger:      logger,
		send:        make(chan []byte, sessionSendBuffer),
	}
}

// Run serves the session until the client disconnects or the context is
// cancelled. It blocks; the HTTP handler calls it from the upgraded
// connection's goroutine.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.registry.Add(s)
	defer func() {
		s.registry.Remove(s)
		s.conn.Close()
	}()

	welcome, _ := json.Marshal(map[string]interface{}{
		"type":    "welcome",
		"user_id": s.userID,
	})
	s.enqueue(welcome)

	go s.subscribeLoop(ctx)
	go s.writeLoop(ctx)
	s.readLoop()
}

// subscribeLoop forwards broker messages into the send buffer. Both
// channels ride one subscription, so each channel's messages stay in
// publish order.
func (s *Session) subscribeLoop(ctx context.Context) {
	pubsub := s.redisClient.Subscribe(ctx, GlobalChannel, UserChannel(s.userID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.enqueue([]byte(msg.Payload))
		}
	}
}

// enqueue adds a message to the send buffer, dropping the oldest message
// when the buffer is full.
func (s *Session) enqueue(payload []byte) {
	for {
		select {
		case s.send <- payload:
			return
		default:
		}
		select {
		case <-s.send:
			s.droppedMu.Lock()
			s.dropped++
			dropped := s.dropped
			s.droppedMu.Unlock()
			s.logger.WithFields(logrus.Fields{
				"user_id": s.userID,
				"dropped": dropped,
			}).Warn("WebSocket send buffer full, dropping oldest message")
		default:
		}
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer func() {
		ticker.Stop()
		// Closing the connection here unblocks readLoop, which tears the
		// session down.
		s.closeOnce.Do(func() { s.conn.Close() })
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteDeadline))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.logger.WithError(err).WithField("user_id", s.userID).Debug("WebSocket write failed")
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteDeadline))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop consumes client frames. Incoming messages are echoed back in
// development and ignored otherwise; its real job is pong handling and
// noticing disconnects.
func (s *Session) readLoop() {
	s.conn.SetReadLimit(4096)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WithError(err).WithField("user_id", s.userID).Debug("WebSocket closed unexpectedly")
			}
			return
		}
		if s.config.EchoMessages {
			s.enqueue(payload)
		}
	}
}

// Package websocket implements the live order feed for partner devices.
//
// Each connection is one Session. After the handshake the session is bound
// to the establishments its principal owns: one hub topic per establishment,
// fixed for the lifetime of the connection. Two goroutines serve it:
//
//   - readPump: inbound control messages (order status updates)
//   - writePump: drains the session's event queue to the peer
//
// Thread safety:
//   - Close() is safe to call multiple times and from any goroutine
//   - the event queue decouples the hub from the peer; a slow peer drops
//     events instead of stalling the hub or other sessions
package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/domain/events"
	"github.com/happyhours/orderhub/internal/domain/ports"
	"github.com/happyhours/orderhub/internal/hub"
	"github.com/happyhours/orderhub/internal/orders"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 15 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 90 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024

	// Event queue capacity per session.
	sendQueueSize = 256

	// Application-level heartbeat interval.
	heartbeatInterval = 30 * time.Second
)

// SessionState tracks the connection lifecycle.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthenticating
	StateActive
	StateClosing
	StateClosed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is one live, authenticated partner connection.
type Session struct {
	id        string
	conn      *websocket.Conn
	principal domain.Principal
	topics    []string

	queue *hub.QueueSubscriber

	hub    ports.TopicHub
	orders *orders.Service

	state   atomic.Int32
	onClose func(id string)
}

// controlMessage is the inbound wire format.
type controlMessage struct {
	Type    string             `json:"type"`
	OrderID string             `json:"order_id"`
	Status  domain.OrderStatus `json:"status"`
}

// newSession creates a session for an already-authenticated principal.
func newSession(conn *websocket.Conn, principal domain.Principal, topics []string,
	topicHub ports.TopicHub, orderService *orders.Service, onClose func(id string)) *Session {
	s := &Session{
		id:        uuid.New().String(),
		conn:      conn,
		principal: principal,
		topics:    topics,
		hub:       topicHub,
		orders:    orderService,
		onClose:   onClose,
	}
	s.queue = hub.NewQueueSubscriber(s.id, sendQueueSize)
	s.state.Store(int32(StateConnecting))
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// start subscribes the session to its topics and launches the pumps.
func (s *Session) start() {
	for _, topic := range s.topics {
		s.hub.Subscribe(topic, s.queue)
	}
	s.state.Store(int32(StateActive))

	log.Info().
		Str("session_id", s.id).
		Str("user_id", s.principal.UserID).
		Int("topics", len(s.topics)).
		Msg("session active")

	go s.writePump()
	go s.readPump()
}

// Close tears the session down: it is removed from every topic before the
// queue is closed, so the hub never delivers into a dead session. Safe to
// call multiple times.
func (s *Session) Close() {
	if !s.state.CompareAndSwap(int32(StateActive), int32(StateClosing)) {
		return
	}

	s.hub.UnsubscribeAll(s.queue)
	_ = s.queue.Close()
	_ = s.conn.Close()

	s.state.Store(int32(StateClosed))
	if s.onClose != nil {
		s.onClose(s.id)
	}

	log.Info().
		Str("session_id", s.id).
		Uint64("dropped_events", s.queue.Dropped()).
		Msg("session closed")
}

// readPump reads inbound control messages until the peer disconnects.
func (s *Session) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session_id", s.id).Msg("websocket read error")
			}
			return
		}
		s.handleMessage(message)
	}
}

// handleMessage dispatches one inbound control message. Failures are
// reported only to this session; they never end the connection.
func (s *Session) handleMessage(raw []byte) {
	var msg controlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendError(domain.ErrCodeInvalidPayload, "invalid message")
		return
	}

	switch msg.Type {
	case "update_order":
		s.handleUpdateOrder(msg)
	default:
		log.Debug().
			Str("session_id", s.id).
			Str("type", msg.Type).
			Msg("unknown control message")
		s.sendError(domain.ErrCodeInvalidCommand, "unknown message type")
	}
}

// handleUpdateOrder applies a status change requested over the socket.
// Ownership is re-checked by the order service at request time. On success
// the update is broadcast through the regular publish path, so this session
// receives the echoed event along with every other subscriber.
func (s *Session) handleUpdateOrder(msg controlMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.orders.UpdateStatus(ctx, s.principal, msg.OrderID, msg.Status)
	if err != nil {
		log.Debug().
			Err(err).
			Str("session_id", s.id).
			Str("order_id", msg.OrderID).
			Msg("order update refused")
		s.sendError(domain.ErrCodeOrderRejected,
			"Failed to update order. You might not have permission or the order does not exist.")
	}
}

// sendError queues an error event for this session only.
func (s *Session) sendError(code, message string) {
	if err := s.queue.Send(events.NewErrorEvent(code, message)); err != nil {
		log.Debug().Err(err).Str("session_id", s.id).Msg("could not queue error event")
	}
}

// writePump drains the event queue to the peer and keeps the connection
// alive with pings and application heartbeats.
func (s *Session) writePump() {
	ping := time.NewTicker(pingPeriod)
	heartbeat := time.NewTicker(heartbeatInterval)
	defer func() {
		ping.Stop()
		heartbeat.Stop()
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
		s.Close()
	}()

	for {
		select {
		case event, ok := <-s.queue.Events():
			if !ok {
				return
			}
			payload, err := event.ToJSON()
			if err != nil {
				log.Error().Err(err).Str("session_id", s.id).Msg("event serialization failed")
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Str("session_id", s.id).Msg("write error")
				return
			}

		case <-heartbeat.C:
			payload, _ := events.NewHeartbeat(len(s.topics)).ToJSON()
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ping.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("session_id", s.id).Msg("ping error")
				return
			}
		}
	}
}

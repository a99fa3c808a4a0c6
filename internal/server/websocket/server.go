package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/happyhours/orderhub/internal/domain/ports"
	"github.com/happyhours/orderhub/internal/orders"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Partner devices connect from app webviews; origin is not a
		// meaningful boundary here, the token is.
		return true
	},
}

// authTimeout bounds the credential check during the handshake.
const authTimeout = 10 * time.Second

// Handler accepts order-feed connections and drives each one through its
// lifecycle: upgrade, authenticate, subscribe, pump, cleanup.
type Handler struct {
	auth           ports.Authenticator
	establishments ports.EstablishmentStore
	hub            ports.TopicHub
	orders         *orders.Service

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHandler creates the connection handler.
func NewHandler(auth ports.Authenticator, establishments ports.EstablishmentStore,
	topicHub ports.TopicHub, orderService *orders.Service) *Handler {
	return &Handler{
		auth:           auth,
		establishments: establishments,
		hub:            topicHub,
		orders:         orderService,
		sessions:       make(map[string]*Session),
	}
}

// ServeHTTP is the connection entry point. The credential travels as a
// `token` query parameter; the connection is refused before any session
// state exists when it does not resolve to a partner account.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authTimeout)
	defer cancel()

	principal, err := h.auth.Authenticate(ctx, r.URL.Query().Get("token"))
	if err != nil || !principal.IsPartner() {
		log.Debug().Err(err).Msg("connection refused")
		refuse(conn)
		return
	}

	topics, err := h.establishments.ControlledEstablishments(ctx, principal.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", principal.UserID).Msg("could not resolve establishments")
		refuse(conn)
		return
	}

	session := newSession(conn, principal, topics, h.hub, h.orders, h.removeSession)

	h.mu.Lock()
	h.sessions[session.ID()] = session
	h.mu.Unlock()

	session.start()
}

// refuse closes a connection that never became a session.
func refuse(conn *websocket.Conn) {
	deadline := time.Now().Add(writeWait)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"),
		deadline)
	_ = conn.Close()
}

func (h *Handler) removeSession(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

// SessionCount returns the number of active sessions.
func (h *Handler) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Session returns an active session by ID.
func (h *Handler) Session(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Shutdown closes every active session.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

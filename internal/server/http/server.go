// Package http implements the REST API for order placement and history.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/domain/ports"
	"github.com/happyhours/orderhub/internal/orders"
	"github.com/happyhours/orderhub/internal/server/http/middleware"
)

type principalKey struct{}

// Server is the HTTP API server.
type Server struct {
	addr       string
	httpServer *http.Server
	router     *mux.Router

	auth    ports.Authenticator
	orders  *orders.Service
	limiter *middleware.RateLimiter

	// wsHandler serves the live order feed; mounted here so one listener
	// carries both surfaces.
	wsHandler http.Handler

	startTime time.Time
}

// Option configures the server.
type Option func(*serverOptions)

type serverOptions struct {
	rateLimitPerMinute int
}

// WithRateLimit sets the per-caller request budget per minute.
func WithRateLimit(perMinute int) Option {
	return func(o *serverOptions) {
		o.rateLimitPerMinute = perMinute
	}
}

// New creates the API server.
func New(host string, port int, auth ports.Authenticator, orderService *orders.Service, wsHandler http.Handler, opts ...Option) *Server {
	options := serverOptions{rateLimitPerMinute: middleware.DefaultMaxRequests}
	for _, opt := range opts {
		opt(&options)
	}

	s := &Server{
		addr:      fmt.Sprintf("%s:%d", host, port),
		auth:      auth,
		orders:    orderService,
		limiter:   middleware.NewRateLimiter(middleware.WithMaxRequests(options.rateLimitPerMinute)),
		wsHandler: wsHandler,
		startTime: time.Now(),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Live order feed
	if s.wsHandler != nil {
		r.Handle("/ws/orders", s.wsHandler)
	}

	// Swagger UI endpoint (REST API docs)
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
	))

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authenticate)
	api.Use(func(next http.Handler) http.Handler {
		return middleware.Limit(s.limiter, next)
	})

	api.HandleFunc("/orders", s.handlePlaceOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", s.handleUpdateStatus).Methods(http.MethodPatch)
	api.HandleFunc("/partner/orders", s.handlePartnerPlaceOrder).Methods(http.MethodPost)

	return r
}

// Router returns the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.limiter.Close()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// authenticate resolves the bearer token to a principal and stores it on
// the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing bearer token")
			return
		}

		principal, err := s.auth.Authenticate(r.Context(), header[len("Bearer "):])
		if err != nil {
			writeError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid credentials")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(r *http.Request) domain.Principal {
	p, _ := r.Context().Value(principalKey{}).(domain.Principal)
	return p
}

// handleHealth reports liveness.
// @Summary Health check
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": int64(time.Since(s.startTime).Seconds()),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

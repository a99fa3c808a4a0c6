// Package app orchestrates all components of orderhub.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/happyhours/orderhub/internal/adapters/store"
	"github.com/happyhours/orderhub/internal/config"
	"github.com/happyhours/orderhub/internal/hub"
	"github.com/happyhours/orderhub/internal/notify"
	"github.com/happyhours/orderhub/internal/orders"
	"github.com/happyhours/orderhub/internal/pairing"
	"github.com/happyhours/orderhub/internal/security"
	httpserver "github.com/happyhours/orderhub/internal/server/http"
	"github.com/happyhours/orderhub/internal/server/websocket"
)

const shutdownTimeout = 10 * time.Second

// App is the main application struct that wires all components together.
type App struct {
	cfg     *config.Config
	version string

	hub         *hub.Hub
	store       *store.SQLiteStore
	tokens      *security.TokenManager
	orders      *orders.Service
	wsHandler   *websocket.Handler
	httpServer  *httpserver.Server
	qrGenerator *pairing.QRGenerator

	startTime time.Time

	mu      sync.Mutex
	running bool
}

// New creates a new App instance. Components that hold external resources
// are opened in Start.
func New(cfg *config.Config, version string) (*App, error) {
	tokens, err := security.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenExpirySecs)
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	return &App{
		cfg:     cfg,
		version: version,
		hub:     hub.New(),
		tokens:  tokens,
	}, nil
}

// TokenManager exposes the signing component for CLI token issuance.
func (a *App) TokenManager() *security.TokenManager {
	return a.tokens
}

// Start starts the application and blocks until the context is cancelled
// or the HTTP server fails.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("application is already running")
	}
	a.running = true
	a.startTime = time.Now()
	a.mu.Unlock()

	db, err := store.Open(a.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.store = db

	if a.cfg.Database.SeedFile != "" {
		if err := store.LoadSeed(ctx, db, a.cfg.Database.SeedFile); err != nil {
			return fmt.Errorf("failed to load seed fixture: %w", err)
		}
	}

	auth := security.NewTokenAuthenticator(a.tokens, db)

	a.orders = orders.NewService(
		orders.NewAdmission(orders.NewChecker(db), db),
		db, db, db,
		notify.NewPublisher(a.hub),
	)

	a.wsHandler = websocket.NewHandler(auth, db, a.hub, a.orders)

	a.httpServer = httpserver.New(
		a.cfg.Server.Host, a.cfg.Server.HTTPPort,
		auth, a.orders, a.wsHandler,
		httpserver.WithRateLimit(a.cfg.Orders.RateLimitPerMinute),
	)

	if a.cfg.Pairing.ShowQRInTerminal {
		a.qrGenerator = pairing.NewQRGenerator(a.cfg.Server.Host, a.cfg.Server.HTTPPort)
		if a.cfg.Server.ExternalWSURL != "" {
			a.qrGenerator.SetExternalWSURL(a.cfg.Server.ExternalWSURL)
		}
		a.qrGenerator.PrintToTerminal()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpServer.Start()
	}()

	log.Info().
		Str("version", a.version).
		Str("addr", fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.HTTPPort)).
		Str("db", a.cfg.Database.Path).
		Msg("orderhub started")

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errCh:
		if err != nil {
			_ = a.shutdown()
			return fmt.Errorf("http server: %w", err)
		}
		return a.shutdown()
	}
}

// shutdown stops components in dependency order: stop accepting HTTP
// traffic, end live sessions, close the hub, then the database.
func (a *App) shutdown() error {
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			log.Warn().Err(err).Msg("http server shutdown failed")
			firstErr = err
		}
	}
	if a.wsHandler != nil {
		a.wsHandler.Shutdown()
	}
	a.hub.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("database close failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()

	log.Info().Msg("orderhub stopped")
	return firstErr
}

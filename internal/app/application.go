package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"quizlive/internal/api"
	"quizlive/internal/broadcast"
	"quizlive/internal/config"
	"quizlive/internal/gateway"
	"quizlive/internal/session"
	"quizlive/internal/store"
	"quizlive/internal/websocket"
	pkgdatabase "quizlive/pkg/database"
)

// Application coordinates all system components.
// Initialization follows strict dependency order:
// Store → Sessions → Connections → Broadcast → Gateway → API → HTTP.
type Application struct {
	config      *config.Config
	store       *store.Manager
	sessions    *session.Registry
	directory   *session.Directory
	connections *websocket.Registry
	gateway     *gateway.Gateway
	apiServer   *api.Server
	httpServer  *http.Server

	sweeperCancel context.CancelFunc
}

// NewApplication creates an application instance with all components wired.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbConfig := &pkgdatabase.Config{
		DatabasePath:    cfg.Database.Path,
		MaxConnections:  10,
		ConnMaxLifetime: cfg.Database.Timeout,
		ConnMaxIdleTime: cfg.Database.Timeout / 3,
	}

	storeManager, err := store.NewManager(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	sessions := session.NewRegistry()
	directory := session.NewDirectory()
	connections := websocket.NewRegistry()
	broadcaster := broadcast.NewCoordinator(connections)

	sessionGateway := gateway.New(sessions, directory, broadcaster, connections, storeManager, storeManager)

	apiServer := api.NewServer(storeManager, storeManager, storeManager, sessions, connections)

	wsHandler := websocket.NewHandler(connections, sessionGateway, websocket.Options{
		PingInterval:    cfg.WebSocket.PingInterval,
		ReadTimeout:     cfg.WebSocket.ReadTimeout,
		EventsPerMinute: cfg.WebSocket.EventsPerMinute,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer)
	mux.Handle("/health", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:      cfg,
		store:       storeManager,
		sessions:    sessions,
		directory:   directory,
		connections: connections,
		gateway:     sessionGateway,
		apiServer:   apiServer,
		httpServer:  httpServer,
	}, nil
}

// Start begins application execution: the session sweeper first, then the
// HTTP server, verified ready before returning.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting quizlive on %s", app.httpServer.Addr)

	sweeperCtx, cancel := context.WithCancel(ctx)
	app.sweeperCancel = cancel
	app.sessions.StartSweeper(sweeperCtx, app.config.Session.IdleExpiry, app.config.Session.SweepInterval)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		cancel()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("quizlive started successfully")
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// Stop gracefully shuts down in reverse dependency order:
// HTTP → sweeper → store.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down quizlive")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if app.sweeperCancel != nil {
		app.sweeperCancel()
	}

	if err := app.store.Close(); err != nil {
		log.Printf("Store shutdown error: %v", err)
	}

	log.Printf("quizlive shutdown complete")
	return nil
}

// GetAddr returns the server address for external connections.
func (app *Application) GetAddr() string {
	return app.httpServer.Addr
}

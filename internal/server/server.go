// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gorillahandlers "github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"

	"github.com/floodwatch/hub/api"
	"github.com/floodwatch/hub/api/middleware"
	"github.com/floodwatch/hub/internal/alerting"
	"github.com/floodwatch/hub/internal/analysis"
	"github.com/floodwatch/hub/internal/config"
	"github.com/floodwatch/hub/internal/database"
	"github.com/floodwatch/hub/internal/flood"
	"github.com/floodwatch/hub/internal/floodservice"
	"github.com/floodwatch/hub/internal/liveness"
	"github.com/floodwatch/hub/internal/monitoring"
	"github.com/floodwatch/hub/internal/repository"
	"github.com/floodwatch/hub/internal/repository/postgres"
	"github.com/floodwatch/hub/internal/repository/sheets"
	"github.com/floodwatch/hub/internal/sweep"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	service    *floodservice.FloodService
	sweeper    *sweep.Sweeper
	monitoring *monitoring.Service
	closers    []func() error
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start wires all components, begins listening for requests and
// blocks until shutdown.
func (s *Server) Start() error {
	svc, err := s.initializeFloodService()
	if err != nil {
		return err
	}
	s.service = svc

	s.monitoring = monitoring.NewService()
	s.setupAlertHandlers()

	router := api.NewRouter(svc, middleware.DeviceTokenConfig{Token: s.config.Server.DeviceToken})
	s.srv.Handler = s.withCORS(router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.sweeper = sweep.New(s.config.Sweep, svc)
	s.sweeper.Start(ctx)

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	s.sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	for _, closer := range s.closers {
		if err := closer(); err != nil {
			nuts.L.Warnf("[Server] Close error during shutdown: %v", err)
		}
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// withCORS wraps the handler with the CORS policy the dashboard
// frontend needs.
func (s *Server) withCORS(h http.Handler) http.Handler {
	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{s.config.Server.FrontendOrigin}),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Device-Token"}),
	)(h)
}

// setupAlertHandlers forwards gate events into monitoring counters.
func (s *Server) setupAlertHandlers() {
	s.service.Gate.OnAlert("alert.sent", func(nodeID string) {
		s.monitoring.RecordEvent("alert_sent", map[string]string{"node_id": nodeID})
	})
	s.service.Gate.OnAlert("alert.suppressed", func(nodeID string) {
		s.monitoring.RecordEvent("alert_suppressed", map[string]string{"node_id": nodeID})
	})
	s.service.Gate.OnAlert("alert.failed", func(nodeID string) {
		s.monitoring.RecordEvent("alert_failed", map[string]string{"node_id": nodeID})
	})
}

// initializeFloodService creates and wires the flood service from the
// configured backends.
func (s *Server) initializeFloodService() (*floodservice.FloodService, error) {
	readings, err := s.initReadingStore()
	if err != nil {
		return nil, err
	}

	cooldowns := s.initCooldownStore()
	notifier := alerting.NewTelegramNotifier(s.config.Telegram)
	gate := alerting.NewGate(s.config.Alerting, s.config.Risk.WaterLevelWarning, cooldowns, notifier)
	engine := flood.NewEngine(s.config.Risk)
	summarizer := analysis.NewSummarizer(s.config.Gemini)
	live := liveness.NewEvaluator(s.config.Liveness)

	svc := floodservice.New(s.config, readings, engine, gate, summarizer, live, notifier)
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Server) initReadingStore() (repository.ReadingRepository, error) {
	switch s.config.Storage.Backend {
	case "postgres":
		db, err := database.NewPostgresDB(s.config.Storage.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		s.closers = append(s.closers, db.Close)

		repo, err := postgres.NewReadingRepository(db)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		nuts.L.Infof("[Server] Using postgres reading store on %s", s.config.Storage.Postgres.Host)
		return repo, nil
	default:
		nuts.L.Infof("[Server] Using sheets reading store (spreadsheet %s)", s.config.Storage.Sheets.SpreadsheetID)
		return sheets.NewReadingRepository(s.config.Storage.Sheets), nil
	}
}

func (s *Server) initCooldownStore() alerting.CooldownStore {
	if s.config.Alerting.CooldownBackend == "redis" {
		store := alerting.NewRedisCooldownStore(s.config.Redis)
		s.closers = append(s.closers, store.Close)
		nuts.L.Infof("[Server] Using redis cooldown store on %s", s.config.Redis.Host)
		return store
	}
	return alerting.NewMemoryCooldownStore()
}

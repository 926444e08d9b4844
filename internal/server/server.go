// Package server assembles the folio HTTP server: it opens the database,
// wires providers, storage, the generation pipeline, and the scheduler, and
// serves the endpoint registry.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/pipeline"
	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/scheduler"
	"github.com/jackzampolin/folio/internal/server/endpoints"
	"github.com/jackzampolin/folio/internal/storage"
	"github.com/jackzampolin/folio/internal/store"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// Server is the main Folio HTTP server.
type Server struct {
	httpServer *http.Server
	store      *store.Store
	files      *storage.Local
	pipeline   *pipeline.Pipeline
	worker     *scheduler.Worker
	registry   *providers.Registry
	configMgr  *config.Manager
	homeDir    *home.Dir
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the folio home directory
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
	// SwaggerSpecPath is the path to swagger.json
	SwaggerSpecPath string
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, err
		}
		cfg.Home = h
	}

	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)

	if cfg.ConfigManager != nil {
		registry.Reload(cfg.ConfigManager.Get().ToProviderRegistryConfig())

		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToProviderRegistryConfig())
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		homeDir:   cfg.Home,
		logger:    cfg.Logger,
	}

	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{SwaggerSpecPath: cfg.SwaggerSpecPath}) {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start opens the database, wires the pipeline and scheduler, and serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.homeDir.EnsureExists(); err != nil {
		s.setNotRunning()
		return err
	}

	cfg := config.DefaultConfig()
	if s.configMgr != nil {
		cfg = s.configMgr.Get()
	}

	// Database
	dbCfg := store.Config{Type: cfg.Database.Type, DSN: cfg.Database.DSN}
	if dbCfg.Type == "" {
		dbCfg.Type = "sqlite"
	}
	if dbCfg.Type == "sqlite" && dbCfg.DSN == "" {
		dbCfg.DSN = s.homeDir.DatabasePath()
	}
	st, err := store.Open(dbCfg)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.store = st
	s.logger.Info("database ready", "type", dbCfg.Type)

	// Artifact storage
	root := cfg.Storage.Root
	if root == "" {
		root = s.homeDir.FilesPath()
	}
	files, err := storage.NewLocal(root, cfg.Storage.BaseURL+"/files")
	if err != nil {
		_ = s.store.Close()
		s.setNotRunning()
		return fmt.Errorf("failed to set up storage: %w", err)
	}
	s.files = files

	// Generation pipeline
	llm := s.defaultLLM()
	images := s.defaultImage()
	if llm == nil {
		s.logger.Warn("no LLM provider configured, generation will fail until one is added")
	}
	s.pipeline = pipeline.New(pipeline.Config{
		Store:   s.store,
		Storage: files,
		LLM:     llm,
		Images:  images,
		Logger:  s.logger,
	})

	// Scheduler
	runCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	if cfg.Scheduler.Enabled {
		s.worker = scheduler.NewWorker(scheduler.Config{
			Store:              s.store,
			Pipeline:           s.pipeline,
			LLM:                llm,
			Logger:             s.logger,
			Interval:           cfg.Scheduler.Interval,
			DefaultNumChapters: cfg.Generation.NumChapters,
		})
		go s.worker.Run(runCtx)
	}

	s.services = &svcctx.Services{
		Store:     s.store,
		Registry:  s.registry,
		Storage:   s.files,
		Files:     s.files,
		Pipeline:  s.pipeline,
		Scheduler: s.worker,
		Config:    s.configMgr,
		Logger:    s.logger,
		Home:      s.homeDir,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server and the database.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Store returns the database store. Nil before Start.
func (s *Server) Store() *store.Store {
	return s.store
}

// defaultLLM picks the LLM client generation runs with. Names are sorted so
// the choice is stable across restarts.
func (s *Server) defaultLLM() providers.LLMClient {
	names := s.registry.ListLLM()
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	client, err := s.registry.GetLLM(names[0])
	if err != nil {
		return nil
	}
	return client
}

// defaultImage picks the cover art client. Nil disables covers.
func (s *Server) defaultImage() providers.ImageClient {
	names := s.registry.ListImage()
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	client, err := s.registry.GetImage(names[0])
	if err != nil {
		return nil
	}
	return client
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the database and pipeline are wired.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil || s.pipeline == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}

package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/marketpulse/internal/model"
	"github.com/rickgao/marketpulse/internal/orchestrator"
)

// Service is the orchestrator surface the server needs.
type Service interface {
	State() model.Snapshot
	Refresh(ctx context.Context) (model.Snapshot, error)
	AddAsset(ctx context.Context, ref model.TrackedAssetRef) bool
	RemoveAsset(ctx context.Context, symbol string) bool
	TrackedAssets() []model.TrackedAssetRef
	OnUpdate(fn orchestrator.Listener)
}

// Config holds HTTP server settings.
type Config struct {
	Addr             string
	ReadTimeout      time.Duration // Request header and body read bound
	StreamPing       time.Duration // Websocket ping interval
	StreamBufferSize int           // Queued messages per stream client
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:             ":3000",
		ReadTimeout:      10 * time.Second,
		StreamPing:       30 * time.Second,
		StreamBufferSize: 8,
	}
}

// Server serves the HTTP API and the snapshot stream.
type Server struct {
	cfg    Config
	svc    Service
	hub    *Hub
	logger *slog.Logger
	http   *http.Server
}

// New creates a Server and subscribes its stream hub to svc updates.
func New(cfg Config, svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		hub:    NewHub(cfg.StreamPing, cfg.StreamBufferSize, logger),
		logger: logger,
	}
	svc.OnUpdate(s.hub.Broadcast)

	s.http = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.Handler(),
		ReadTimeout: cfg.ReadTimeout,
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/assets", s.handleListAssets)
	mux.HandleFunc("POST /api/assets", s.handleAddAsset)
	mux.HandleFunc("DELETE /api/assets/{symbol}", s.handleRemoveAsset)
	mux.HandleFunc("POST /api/agents/OrchestratorAgent/query", s.handleQuery)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "err", err)
		}
	}()
	return nil
}

// Shutdown closes stream clients and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.http.Shutdown(ctx)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"mercator-hq/chaos/pkg/config"
	"mercator-hq/chaos/pkg/journal"
	"mercator-hq/chaos/pkg/proxy"
	"mercator-hq/chaos/pkg/proxy/middleware"
	"mercator-hq/chaos/pkg/telemetry/health"
	"mercator-hq/chaos/pkg/telemetry/metrics"
)

// Options carries the collaborators of the server. Metrics and Journal
// are optional.
type Options struct {
	Agent   proxy.Engine
	Checker *health.Checker
	Metrics *metrics.Collector
	Journal journal.Storage
	Logger  *slog.Logger

	Version   string
	Commit    string
	BuildTime string
}

// Server is the chaos agent HTTP server.
type Server struct {
	config        config.ServerConfig
	metricsConfig config.MetricsConfig
	faultWait     time.Duration
	opts          Options
	logger        *slog.Logger
	handler       http.Handler

	mu         sync.RWMutex
	httpServer *http.Server
	addr       net.Addr
	isRunning  bool
}

// New builds the server and its routes. It fails when the upstream URL is
// invalid.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if opts.Agent == nil {
		return nil, errors.New("server requires an agent")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		config:        cfg.Server,
		metricsConfig: cfg.Telemetry.Metrics,
		faultWait:     cfg.MaxFaultWait(),
		opts:          opts,
		logger:        opts.Logger.With("component", "server"),
	}

	handler, err := s.setupRoutes()
	if err != nil {
		return nil, err
	}
	s.handler = handler
	return s, nil
}

func (s *Server) setupRoutes() (http.Handler, error) {
	mux := http.NewServeMux()

	proxy.NewAPI(s.opts.Agent, s.opts.Journal, s.opts.Logger).Register(mux)

	if s.opts.Checker != nil {
		health.Register(mux, s.opts.Checker, s.opts.Version, s.opts.Commit, s.opts.BuildTime)
	}
	if s.opts.Metrics != nil && s.metricsConfig.Enabled {
		mux.Handle("GET "+s.metricsConfig.Path, s.opts.Metrics.Handler())
	}

	if s.config.Upstream != "" {
		rp, err := proxy.NewReverseProxy(s.config.Upstream, s.opts.Logger)
		if err != nil {
			return nil, err
		}
		mux.Handle("/", proxy.ChaosMiddleware(s.opts.Agent)(rp))
	}

	var recorder middleware.Recorder
	if s.opts.Metrics != nil {
		recorder = s.opts.Metrics
	}

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(s.opts.Logger, recorder)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(s.opts.Logger)(handler)

	// Latency and timeout faults hold the request inside the handler, so the
	// write deadline must outlast the longest of them.
	if s.config.WriteTimeout > 0 && s.faultWait > 0 {
		handler = middleware.WriteDeadlineMiddleware(s.config.WriteTimeout + s.faultWait)(handler)
	}
	return handler, nil
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.New("server is already running")
	}
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.addr = ln.Addr()
	s.isRunning = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting chaos agent server",
			"address", ln.Addr().String(),
			"upstream", s.config.Upstream,
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err, ok := <-errCh:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	srv := s.httpServer
	s.mu.Unlock()

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("chaos agent server stopped", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

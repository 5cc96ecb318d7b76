package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"bookshelf/internal/domain"
	"bookshelf/internal/infra/config"
	"bookshelf/internal/infra/logger"
	"bookshelf/internal/infra/middleware"
)

// ServerOptions configures the listener and the middleware stack.
type ServerOptions struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxBodyBytes      int64
	MetricsEnabled    bool
	SecurityHeaders   bool
	RateLimit         config.RateLimitConfig
}

// OptionsFromConfig maps the server section of the config file.
func OptionsFromConfig(cfg config.ServerConfig) ServerOptions {
	return ServerOptions{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ShutdownTimeout:   cfg.ShutdownTimeout,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		MetricsEnabled:    cfg.MetricsEnabled,
		SecurityHeaders:   cfg.SecurityHeaders,
		RateLimit:         cfg.RateLimit,
	}
}

// Server serves the book routes over HTTP.
type Server struct {
	store   domain.BookStore
	opts    ServerOptions
	logger  *slog.Logger
	metrics *Metrics
	started time.Time
	handler http.Handler

	// Stops background work owned by the middleware stack.
	cancel context.CancelFunc

	mu        sync.Mutex
	httpSrv   *http.Server
	boundAddr string
}

// NewServer builds the route table and middleware chain around store.
// Zero-valued options fall back to config.Defaults.
func NewServer(store domain.BookStore, opts ServerOptions, log *slog.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	def := config.Defaults().Server
	if opts.Addr == "" {
		opts.Addr = def.Addr
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = def.MaxBodyBytes
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = def.ShutdownTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		store:   store,
		opts:    opts,
		logger:  log,
		metrics: &Metrics{},
		started: time.Now(),
		cancel:  cancel,
	}
	s.handler = s.buildHandler(ctx)
	return s
}

func (s *Server) buildHandler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /save", s.handle(s.handleSave))
	mux.HandleFunc("GET /get/{name}", s.handle(s.handleGet))
	mux.HandleFunc("DELETE /delete/{name}", s.handle(s.handleDelete))
	if s.opts.MetricsEnabled {
		mux.HandleFunc("GET /metrics", metricsHandler(s.metrics, s.started, s.store.Name()))
	}
	// Anything the patterns above do not match, including a known path
	// with the wrong method.
	mux.HandleFunc("/", s.notFound)

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RequestLogger(s.logger),
		middleware.Trace,
	}
	if s.opts.SecurityHeaders {
		mws = append(mws, middleware.SecurityHeaders)
	}
	if rl := s.opts.RateLimit; rl.Enabled {
		mws = append(mws, middleware.RateLimitWithConfig(ctx, middleware.RateLimitConfig{
			RequestsPerMin: rl.RequestsPerMin,
			Burst:          rl.Burst,
			TrustedProxies: rl.TrustedProxies,
		}))
	}
	return middleware.Chain(mux, mws...)
}

// Handler returns the fully wrapped handler. Useful for httptest.
func (s *Server) Handler() http.Handler { return s.handler }

// Metrics returns the live request counters.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("httpapi listen: %w", err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       s.opts.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.boundAddr = listener.Addr().String()
	s.mu.Unlock()

	s.logger.Info("bookshelf listening", "addr", listener.Addr().String(), "store", s.store.Name())

	serveDone := make(chan struct{})
	shutdownErr := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
			shutdownErr <- s.Stop(context.Background())
		case <-serveDone:
			shutdownErr <- nil
		}
	}()

	err = srv.Serve(listener)
	close(serveDone)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpapi serve: %w", err)
	}
	if err := <-shutdownErr; err != nil {
		s.logger.Warn("shutdown incomplete", logger.Err(err))
	}
	s.logger.Info("bookshelf stopped")
	return nil
}

// Stop drains in-flight requests, bounded by the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.opts.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// BoundAddr returns the listener address. Only valid after Start.
func (s *Server) BoundAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundAddr
}

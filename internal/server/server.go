package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/singleflight"

	"github.com/rickgao/mazaneh-relay/internal/hub"
	"github.com/rickgao/mazaneh-relay/internal/model"
	"github.com/rickgao/mazaneh-relay/internal/pipeline"
	"github.com/rickgao/mazaneh-relay/internal/store"
)

// Store is what the HTTP surface reads from the ledger.
type Store interface {
	Latest(ctx context.Context) (model.PricePoint, bool, error)
	Stats(ctx context.Context) (store.Stats, error)
	Ping(ctx context.Context) error
}

// PipelineStats exposes coordinator counters.
type PipelineStats interface {
	Stats() pipeline.Stats
}

// Config holds server settings.
type Config struct {
	Addr            string
	Conn            hub.ConnConfig
	ShutdownTimeout time.Duration
}

// Server serves subscribers and status endpoints.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	registry *hub.Registry
	store    Store
	pipeline PipelineStats
	version  string

	upgrader websocket.Upgrader
	latest   singleflight.Group

	// Lifetime of upgraded connections; hijacked sockets outlive their request
	connCtx    context.Context
	connCancel context.CancelFunc
}

// New creates a Server. pl may be nil.
func New(cfg Config, registry *hub.Registry, st Store, pl PipelineStats, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	connCtx, connCancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		store:    st,
		pipeline: pl,
		version:  version,
		upgrader: websocket.Upgrader{
			// Subscribers are unauthenticated and may come from any origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		connCtx:    connCtx,
		connCancel: connCancel,
	}
}

// Routes returns the gin engine with all routes.
func (s *Server) Routes() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(s.logger))
	engine.GET("/ws", s.handleWS)
	engine.GET("/health", s.handleHealth)
	engine.GET("/latest", s.handleLatest)
	return engine
}

// Run serves until ctx is cancelled, then shuts down and closes all subscribers.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("push server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.Close()
		if ok {
			return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down push server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close disconnects every subscriber.
func (s *Server) Close() {
	s.connCancel()
	s.registry.CloseAll()
}

func (s *Server) handleWS(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.logger.Debug("websocket upgrade failed", "error", err, "remote", c.ClientIP())
		return
	}

	conn := hub.NewConn(ws, s.cfg.Conn, s.logger)
	s.logger.Info("subscriber connected", "id", conn.ID(), "remote", c.ClientIP())
	conn.Serve(s.connCtx, s.registry)
	s.logger.Info("subscriber disconnected", "id", conn.ID())
}

type latestResponse struct {
	ID        int64      `json:"id,omitempty"`
	Price     *int64     `json:"price"`
	Timestamp *string    `json:"timestamp"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (s *Server) handleLatest(c *gin.Context) {
	v, err, _ := s.latest.Do("latest", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		point, ok, err := s.store.Latest(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return latestResponse{}, nil
		}
		return latestResponse{
			ID:        point.ID,
			Price:     &point.Price,
			Timestamp: &point.CreatedAtLocal,
			CreatedAt: &point.CreatedAt,
		}, nil
	})
	if err != nil {
		s.logger.Error("read latest failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "latest price unavailable"})
		return
	}
	c.JSON(http.StatusOK, v)
}

type healthResponse struct {
	Status     string         `json:"status"`
	Version    string         `json:"version"`
	Components map[string]any `json:"components"`
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	health := healthResponse{
		Status:     "healthy",
		Version:    s.version,
		Components: make(map[string]any),
	}

	if err := s.store.Ping(ctx); err != nil {
		health.Status = "unhealthy"
		health.Components["database"] = map[string]string{
			"status": "disconnected",
			"error":  err.Error(),
		}
	} else {
		health.Components["database"] = "connected"

		if st, err := s.store.Stats(ctx); err != nil {
			health.Components["store"] = map[string]string{"error": err.Error()}
		} else {
			health.Components["store"] = st
		}
	}

	health.Components["subscribers"] = s.registry.Stats()

	if s.pipeline != nil {
		health.Components["pipeline"] = s.pipeline.Stats()
	}

	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}

// requestLogger logs each request through slog.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

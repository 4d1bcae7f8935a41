// Package site serves the documentation website: rendered pages, the sitemap,
// the publish webhook and the live preview endpoints.
package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/internal/events"
	"github.com/fivetwenty-io/storyblok-docs/internal/metrics"
	"github.com/fivetwenty-io/storyblok-docs/internal/render"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// ErrClientRequired is returned by New without a CDA client.
var ErrClientRequired = errors.New("storyblok client is required")

// linkResolverProvider is implemented by clients that expose their resolver.
type linkResolverProvider interface {
	LinkResolver() *storyblok.LinkResolver
}

// Server is the docs server.
type Server struct {
	cfg      Config
	client   storyblok.Client
	bus      events.Bus
	resolver *storyblok.PathResolver
	renderer *render.Renderer
	layout   *render.Layout
	metrics  *metrics.Manager
	logger   *zap.Logger
	engine   *gin.Engine
	now      func() time.Time

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(manager *metrics.Manager) Option {
	return func(s *Server) {
		if manager != nil {
			s.metrics = manager
		}
	}
}

// WithRenderer replaces the default renderer, e.g. to register components.
func WithRenderer(renderer *render.Renderer) Option {
	return func(s *Server) {
		s.renderer = renderer
	}
}

// WithClock sets the time source used for preview tokens and sessions.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a server. A nil bus uses an in-process MemoryBus.
func New(cfg Config, client storyblok.Client, bus events.Bus, opts ...Option) (*Server, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	cfg.setDefaults()

	if bus == nil {
		bus = events.NewMemoryBus(0)
	}

	s := &Server{
		cfg:    cfg,
		client: client,
		bus:    bus,
		resolver: &storyblok.PathResolver{
			BaseFolder:      cfg.BaseFolder,
			HomeSlug:        cfg.HomeSlug,
			Languages:       cfg.Languages,
			DefaultLanguage: cfg.DefaultLanguage,
		},
		logger:   zap.NewNop(),
		now:      time.Now,
		shutdown: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = metrics.NewManager()
	}

	if s.renderer == nil {
		s.renderer = render.New(
			render.WithLogger(s.logger),
			render.WithPathResolver(s.resolver),
			render.WithRecorder(s.metrics),
		)
	}

	layout, err := render.NewLayout()
	if err != nil {
		return nil, err
	}

	s.layout = layout
	s.engine = s.routes()

	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestID())
	r.Use(requestLogger(s.logger))
	r.Use(recovery(s.logger))
	r.Use(s.metrics.GinMiddleware())
	r.Use(apiCORS(s.cfg.AllowedOrigins))

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET("/sitemap.xml", s.sitemap)

	api := r.Group("/api")
	api.GET("/stories/*slug", s.getStory)
	api.POST("/webhooks/storyblok", s.webhook)
	api.GET("/preview/events", s.requirePreview, s.previewEvents)
	api.POST("/preview/render", s.requirePreview, s.previewRender)

	r.NoRoute(s.page)

	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully. Open preview
// event streams are closed when the shutdown starts.
func (s *Server) Run(ctx context.Context) error {
	err := s.watchContentChanges(ctx)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
	}

	httpServer.RegisterOnShutdown(s.closeStreams)

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server starting", zap.String("addr", s.cfg.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	return nil
}

// watchContentChanges flushes the cache version on every story event from the
// bus, including events from webhooks received by other instances.
func (s *Server) watchContentChanges(ctx context.Context) error {
	ch, err := s.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to content events: %w", err)
	}

	go func() {
		for event := range ch {
			if !event.Reload() {
				continue
			}

			s.metrics.SetCacheVersion(0)
			s.client.CacheVersion().Flush()
			s.logger.Debug("cache version flushed",
				zap.String("type", string(event.Type)),
				zap.String("event_id", event.ID),
			)
		}
	}()

	return nil
}

func (s *Server) closeStreams() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/ngenohkevin/cryptopay/internals/config"
	"github.com/ngenohkevin/cryptopay/internals/monitoring"
	"github.com/ngenohkevin/cryptopay/internals/qrcode"
	"github.com/ngenohkevin/cryptopay/internals/share"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

// Deps are the collaborators the HTTP layer drives
type Deps struct {
	Encoder  qrcode.Encoder
	Options  qrcode.Options
	Sinks    *share.Registry
	Recorder monitoring.Recorder
	Sessions *monitoring.SessionLimiter
	Gatherer prometheus.Gatherer
}

type Server struct {
	logger     *slog.Logger
	config     *config.Config
	deps       Deps
	store      *sessions.CookieStore
	page       *template.Template
	limiter    *visitorLimiter
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(logger *slog.Logger, cfg *config.Config, deps Deps) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Encoder == nil {
		return nil, fmt.Errorf("encoder is required")
	}
	deps.Options = deps.Options.WithDefaults()
	if deps.Sinks == nil {
		deps.Sinks = share.NewRegistry(deps.Recorder, logger)
	}
	if deps.Recorder == nil {
		deps.Recorder = monitoring.NoopRecorder{}
	}
	if deps.Sessions == nil {
		deps.Sessions = monitoring.NewSessionLimiter(cfg.MaxWebSockets, logger, nil)
	}

	page, err := loadPage()
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger:  logger,
		config:  cfg,
		deps:    deps,
		store:   newSessionStore(cfg),
		page:    page,
		limiter: newVisitorLimiter(cfg.RequestsPerMinute, cfg.BurstSize),
	}
	s.router = s.routes()
	return s, nil
}

func newSessionStore(cfg *config.Config) *sessions.CookieStore {
	// Generate a random session key if not set
	sessionKey := cfg.SessionKey
	if sessionKey == "" {
		key := make([]byte, 32)
		_, _ = rand.Read(key)
		sessionKey = hex.EncodeToString(key)
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogMiddleware())
	r.Use(cors.Default())

	r.GET("/", s.handlePage)
	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api", s.rateLimitMiddleware())
	api.GET("/currencies", s.handleCurrencies)
	api.POST("/currency", s.handleSelectCurrency)
	api.POST("/uri", s.handleURI)
	api.GET("/qr", s.handleQR)
	api.POST("/share/:sink", s.handleShare)

	r.GET("/ws/session", s.handleLive)

	if s.deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting server", "port", s.config.Port, "environment", s.config.Environment, "sinks", s.deps.Sinks.Names())

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	go s.limiter.run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to run server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"version":  version,
		"sinks":    s.deps.Sinks.Names(),
		"sessions": s.deps.Sessions.Stats(),
	})
}

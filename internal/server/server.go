package server

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/auth"
	"github.com/kce-spotlight/console/internal/config"
	"github.com/kce-spotlight/console/internal/export"
	"github.com/kce-spotlight/console/internal/handler"
	"github.com/kce-spotlight/console/internal/middleware"
	"github.com/kce-spotlight/console/internal/model"
	"github.com/kce-spotlight/console/internal/resource"
	"github.com/kce-spotlight/console/internal/session"
	"github.com/kce-spotlight/console/internal/store"
	ws "github.com/kce-spotlight/console/internal/websocket"
)

// loginAttempts per client IP per window.
const (
	loginAttempts = 10
	loginWindow   = time.Minute
)

type Server struct {
	cfg         config.Config
	hub         *ws.Hub
	api         *apiclient.Client
	sessions    *session.Service
	registry    *resource.Registry
	audit       *store.AuditStore
	handler     *handler.Handler
	metrics     *middleware.Metrics
	rateLimiter *middleware.RateLimiter
	static      fs.FS
	logger      *slog.Logger
}

// New wires the console. webFS holds templates/ and static/.
func New(cfg config.Config, db *sql.DB, webFS fs.FS, logger *slog.Logger) (*Server, error) {
	metrics := middleware.NewMetrics()
	hub := ws.NewHub(logger.With("component", "websocket"))
	registry := resource.NewRegistry()
	audit := store.NewAuditStore(db)

	api := apiclient.NewClient(cfg.Backend.BaseURL,
		apiclient.WithClientID(cfg.Backend.ClientID),
		apiclient.WithTunnelWarning(cfg.Backend.SkipTunnelWarning),
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout.Duration}),
		apiclient.WithLogger(logger.With("component", "apiclient")),
		apiclient.WithObserver(metrics.ObserveBackend),
	)

	sessions, err := session.New(store.NewSessionStore(db), cfg.Session.Secret, session.Options{
		CookieSecure: cfg.Session.CookieSecure,
		DefaultTTL:   cfg.Session.DefaultTTL.Duration,
		Logger:       logger.With("component", "session"),
	})
	if err != nil {
		return nil, fmt.Errorf("session service: %w", err)
	}

	// A session ending drops everything held for it.
	sessions.OnLoggedOut(func(token string) {
		n := registry.Drop(token)
		api.ForgetSession(token)
		hub.Disconnect(token)
		logger.Debug("session ended", "containers", n)
	})
	// The backend rejecting a token ends the console session that sent it.
	api.OnUnauthorized(func(ctx context.Context) {
		token := auth.SessionToken(ctx)
		if token == "" {
			return
		}
		if err := sessions.Expire(token); err != nil {
			logger.Error("expire session", "error", err)
		}
	})

	views, err := handler.NewViews(webFS, cfg.Backend.ImageBaseURL, logger.With("component", "template"))
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(webFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static files: %w", err)
	}

	h := handler.New(handler.Deps{
		API:      api,
		Sessions: sessions,
		Registry: registry,
		Audit:    audit,
		Hub:      hub,
		Archive:  export.NewArchive(cfg.S3, logger.With("component", "export")),
		Views:    views,
		Backend:  cfg.Backend,
		Lists:    cfg.List,
		Logger:   logger.With("component", "handler"),
	})

	return &Server{
		cfg:         cfg,
		hub:         hub,
		api:         api,
		sessions:    sessions,
		registry:    registry,
		audit:       audit,
		handler:     h,
		metrics:     metrics,
		rateLimiter: middleware.NewRateLimiter(loginAttempts, loginWindow),
		static:      static,
		logger:      logger,
	}, nil
}

// Sessions returns the session service for cleanup tasks.
func (s *Server) Sessions() *session.Service {
	return s.sessions
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) AuditStore() *store.AuditStore {
	return s.audit
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no session required)
	outerMux.HandleFunc("GET /login", s.handler.LoginPage)
	outerMux.Handle("POST /login", middleware.RateLimit(s.rateLimiter, http.MethodPost)(http.HandlerFunc(s.handler.Login)))
	outerMux.HandleFunc("GET /unauthorized", s.handler.Unauthorized)
	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	outerMux.HandleFunc("GET /health", s.handler.Health)
	outerMux.Handle("GET /metrics", s.metrics.Handler())

	// Signed-in routes for any console role
	consoleMux := http.NewServeMux()
	consoleMux.HandleFunc("POST /logout", s.handler.Logout)
	consoleMux.HandleFunc("GET /media", s.handler.Media)
	consoleMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Dashboard and management screens are admin only
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /{$}", s.handler.Dashboard)
	adminMux.HandleFunc("GET /achievers", s.handler.Dashboard)
	s.handler.MountManagement(adminMux)
	consoleMux.Handle("/", middleware.RequireRole(model.RoleAdmin)(middleware.Pattern(adminMux)))

	outerMux.Handle("/", middleware.RequireSession(s.sessions, handler.ConsoleRoles...)(middleware.Pattern(consoleMux)))

	var h http.Handler = outerMux
	h = s.metrics.Instrument(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	h = middleware.SecureHeaders(h)
	h = middleware.RequestID(h)
	return h
}

// Package http serves the account screen, the login page and their htmx
// partials. All edit state lives server side in the browser session.
package http

import (
	"context"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"freedom/internal/log"
	"freedom/internal/middleware/ratelimit"
	"freedom/internal/middleware/security"
	"freedom/internal/middleware/trace"
	"freedom/internal/recovery"
	"freedom/internal/session"
	appweb "freedom/web"
)

const (
	sessionCookieName = "freedom_session"
	staticMaxAge      = 3600
	readyTimeout      = 5 * time.Second
)

// Options configures NewServer.
type Options struct {
	Addr     string
	Sessions *session.Manager
	Recovery *recovery.Router
	Logger   *log.Logger
	// Ready reports backend readiness for /readyz. Nil means always ready.
	Ready        func(ctx context.Context) error
	CookieSecure bool
	// LoginRateLimit throttles login attempts per client address.
	LoginRateLimit ratelimit.Config
}

type Server struct {
	http.Server
	templates    *template.Template
	sessions     *session.Manager
	recovery     *recovery.Router
	logger       *log.Logger
	ready        func(ctx context.Context) error
	cookieSecure bool

	detector  *security.Detector
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	startedAt time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		sessions:     opts.Sessions,
		recovery:     opts.Recovery,
		logger:       logger,
		ready:        opts.Ready,
		cookieSecure: opts.CookieSecure,
		detector:     security.NewDetector(logger),
		limiter:      ratelimit.NewLimiter(opts.LoginRateLimit, logger),
		startedAt:    time.Now(),
	}
	if s.recovery == nil {
		s.recovery = recovery.NewRouter(logger)
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(staticMaxAge)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore, s.withBrowser, s.parseForm)

		r.Get("/", s.handleAccount)
		r.Post("/account/edit", s.handleAccountEdit)
		r.Post("/account/validate", s.handleAccountValidate)
		r.Post("/account", s.handleAccountSubmit)
		r.Post("/account/cancel", s.handleAccountCancel)

		r.Post("/funds/new", s.handleFundAdd)
		r.Post("/funds/validate", s.handleFundValidate)
		r.Post("/funds", s.handleFundSubmit)
		r.Post("/funds/cancel", s.handleFundCancel)

		r.Get("/login", s.handleLoginPage)
		r.Post("/login/validate", s.handleLoginValidate)
		r.With(s.limiter.Middleware(s.detector.ExtractClientIP, s.renderRateLimited)).
			Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
	})

	r.NotFound(s.handleNotFound)

	return r
}

// RunMaintenance evicts stale rate limiter entries until ctx is done.
func (s *Server) RunMaintenance(ctx context.Context) error {
	return s.limiter.Run(ctx)
}

// Shutdown gracefully shuts down the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["backend"] = "ok"
	default:
		if err := s.ready(ctx); err != nil {
			checks["backend"] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	}

	requests := s.tracer.GetMetrics()
	limited := s.limiter.GetMetrics()
	checks["sessions"] = map[string]any{"active": s.sessions.Len()}
	checks["requests"] = map[string]any{
		"total":              requests.TotalRequests,
		"avg_response_us":    requests.AverageResponseTime,
		"suspicious":         s.detector.GetMetrics().SuspiciousRequests,
		"login_rate_limited": limited.TotalHits,
	}
	checks["rate_limiter"] = map[string]any{"active_clients": limited.ClientCount}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

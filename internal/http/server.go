// Package http exposes the ledger operations as a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"finanzas/internal/auth"
	"finanzas/internal/cache"
	applog "finanzas/internal/log"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/middleware/trace"
	"finanzas/internal/services"
)

const (
	readyTimeout    = 5 * time.Second
	sessionCleanup  = 10 * time.Minute
	maxRequestBytes = 1 << 20
)

// Deps are the collaborators of the server. Ledger, Gate, Tokens and
// Sessions are required.
type Deps struct {
	Ledger         *services.LedgerService
	Gate           *auth.PinGate
	Tokens         *auth.TokenManager
	Sessions       *auth.SessionStore
	RateLimit      ratelimit.Config
	TrustedProxies []string
	Logger         *applog.Logger
}

type Server struct {
	http.Server

	ledger   *services.LedgerService
	gate     *auth.PinGate
	tokens   *auth.TokenManager
	sessions *auth.SessionStore
	validate *validator.Validate
	logger   *applog.Logger

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	caches      *cache.Manager
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Session cleanup starts immediately and ends with Shutdown.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Ledger == nil || deps.Gate == nil || deps.Tokens == nil || deps.Sessions == nil {
		return nil, errors.New("http: ledger, gate, tokens and sessions are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector, err := security.NewDetector(deps.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		ledger:      deps.Ledger,
		gate:        deps.Gate,
		tokens:      deps.Tokens,
		sessions:    deps.Sessions,
		validate:    newValidator(),
		logger:      logger,
		detector:    detector,
		rateLimiter: ratelimit.NewLimiter(deps.RateLimit),
		tracer:      trace.NewMiddleware(detector.ExtractClientIP, logger),
		caches:      cache.NewManager(),
		started:     time.Now(),
	}
	s.caches.Register(deps.Sessions.Cleaner())
	s.caches.StartCleanup(sessionCleanup)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/session", s.handleLogin)
	mux.HandleFunc("DELETE /api/session", s.withSession(s.handleLogout))

	mux.HandleFunc("GET /api/accounts", s.withSession(s.handleAccounts))
	mux.HandleFunc("GET /api/tables/{table}", s.withSession(s.handleRows))
	mux.HandleFunc("POST /api/tables/{table}/rows", s.withSession(s.handleBlankRow))
	mux.HandleFunc("PUT /api/tables/{table}", s.withSession(s.handleSave))

	mux.HandleFunc("GET /api/summary", s.withSession(s.handleSummary))
	mux.HandleFunc("GET /api/series", s.withSession(s.handleSeries))
	mux.HandleFunc("GET /api/findings", s.withSession(s.handleFindings))
	mux.HandleFunc("GET /api/dashboard", s.withSession(s.handleDashboard))
	mux.HandleFunc("POST /api/rollover", s.withSession(s.handleRollover))
	mux.HandleFunc("POST /api/simulate", s.withSession(s.handleSimulate))

	mux.HandleFunc("GET /api/export/summary.xlsx", s.withSession(s.handleExportSummary))
	mux.HandleFunc("GET /api/export/history.xlsx", s.withSession(s.handleExportHistory))
	mux.HandleFunc("GET /api/export/series.csv", s.withSession(s.handleExportSeries))

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = applog.Middleware(s.logger)(h)
	h = s.tracer.Middleware(h)
	return h
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready when the account table can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if _, err := s.ledger.Accounts(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"store":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ready",
		"store":       "ok",
		"sessions":    s.sessions.Len(),
		"requests":    s.tracer.GetMetrics().TotalRequests,
		"rate_limits": s.rateLimiter.GetMetrics().TotalHits,
		"suspicious":  s.detector.GetMetrics().SuspiciousRequests,
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
}

// Shutdown stops background cleanup and then the HTTP server. Only the
// first call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

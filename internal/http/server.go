package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"flux/internal/identity"
	applog "flux/internal/log"
	"flux/internal/middleware/ratelimit"
	"flux/internal/middleware/security"
	"flux/internal/middleware/trace"
	"flux/internal/services"
)

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Expenses *services.ExpenseService
	Auth     identity.Provider
	// Ready reports backend health for /readyz; nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *applog.Logger

	RateLimitPerMinute int
	TrustedProxies     []string
}

type Server struct {
	http.Server
	expenses *services.ExpenseService
	auth     identity.Provider
	ready    func(ctx context.Context) error
	logger   *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Expenses == nil || deps.Auth == nil {
		return nil, errors.New("expense service and identity provider are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	detector, err := security.NewDetector(deps.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("configure client IP detection: %w", err)
	}

	cfg := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		cfg.RequestsPerMinute = deps.RateLimitPerMinute
	}

	s := &Server{
		expenses: deps.Expenses,
		auth:     deps.Auth,
		ready:    deps.Ready,
		logger:   logger.WithComponent(applog.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(cfg),
		detector: detector,
		tracer:   trace.NewMiddleware(),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /auth/signin", s.handleSignIn)
	mux.HandleFunc("POST /auth/signout", s.handleSignOut)

	mux.HandleFunc("GET /api/categories", handleCategories)
	mux.Handle("GET /api/me", s.requireAuth(http.HandlerFunc(handleMe)))
	mux.Handle("GET /api/dashboard", s.requireAuth(http.HandlerFunc(s.handleDashboard)))
	mux.Handle("GET /api/expenses", s.requireAuth(http.HandlerFunc(s.handleListExpenses)))
	mux.Handle("POST /api/expenses", s.requireAuth(http.HandlerFunc(s.handleCreateExpense)))
	mux.Handle("DELETE /api/expenses/{id}", s.requireAuth(http.HandlerFunc(s.handleDeleteExpense)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	// Outermost first.
	chain := []func(http.Handler) http.Handler{
		s.tracer.Middleware,
		applog.Middleware(s.logger),
		applog.RequestIDMiddleware(trace.FromRequest),
		applog.AccessLog(s.detector.ExtractClientIP),
		s.detector.Middleware,
		headers.Middleware,
		s.limiter.Middleware(s.detector.ExtractClientIP, rateLimited),
	}
	var h http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

// requireAuth resolves the session token and attaches the identity to the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			UnauthorizedError("authentication required").Write(w)
			return
		}
		id, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, "authenticate", err)
			return
		}
		ctx := identity.WithIdentity(r.Context(), id)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, id.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, please try again later").Write(w)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Package http exposes the REST surface of the ledger. Routing is a plain
// net/http ServeMux with method-qualified patterns; cross-cutting concerns
// (tracing, security headers, auth rate limiting, token checks) are layered
// as middleware around it.
package http

import (
	"context"
	"net/http"
	"sync"

	"spence/internal/auth"
	"spence/internal/middleware/ratelimit"
	"spence/internal/middleware/security"
	"spence/internal/middleware/trace"
	"spence/internal/services"
)

// Pinger reports whether the storage backend is reachable. Used by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the tunables NewServer does not derive from its
// collaborators.
type Options struct {
	// AllowedOrigin is the single browser origin granted CORS access.
	// Empty disables CORS entirely.
	AllowedOrigin string

	// AuthRateLimit caps register/login attempts per client IP per minute.
	AuthRateLimit int
}

type Server struct {
	http.Server

	auth     *auth.Service
	expenses *services.ExpenseService
	budgets  *services.BudgetService
	ready    Pinger

	tracer       *trace.Middleware
	authLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// The caller sets timeouts and calls ListenAndServe.
func NewServer(addr string, authSvc *auth.Service, tokens *auth.TokenIssuer, expenses *services.ExpenseService, budgets *services.BudgetService, ready Pinger, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		auth:     authSvc,
		expenses: expenses,
		budgets:  budgets,
		ready:    ready,
		tracer:   trace.NewMiddleware(nil),
		authLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.AuthRateLimit,
		}),
	}

	// Credential endpoints are the brute-force surface, so only they sit
	// behind the rate limiter.
	limited := s.authLimiter.Middleware(trace.ExtractClientIP)
	mux.Handle("POST /auth/register", limited(http.HandlerFunc(s.handleRegister)))
	mux.Handle("POST /auth/login", limited(http.HandlerFunc(s.handleLogin)))

	protected := auth.Middleware(tokens)
	mux.Handle("GET /expenses", protected(http.HandlerFunc(s.handleListExpenses)))
	mux.Handle("POST /expenses", protected(http.HandlerFunc(s.handleCreateExpense)))
	mux.Handle("PUT /expenses/{id}", protected(http.HandlerFunc(s.handleUpdateExpense)))
	mux.Handle("DELETE /expenses/{id}", protected(http.HandlerFunc(s.handleDeleteExpense)))
	mux.Handle("GET /expenses/summary/category", protected(http.HandlerFunc(s.handleSummaryByCategory)))
	mux.Handle("GET /expenses/summary/month", protected(http.HandlerFunc(s.handleSummaryByMonth)))

	mux.Handle("GET /budgets", protected(http.HandlerFunc(s.handleListBudgets)))
	mux.Handle("GET /budgets/{month}", protected(http.HandlerFunc(s.handleGetBudget)))
	mux.Handle("POST /budgets", protected(http.HandlerFunc(s.handleUpsertBudget)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headersCfg := security.DefaultHeadersConfig()
	headersCfg.AllowedOrigin = opts.AllowedOrigin
	headers := security.NewHeadersMiddleware(headersCfg)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.tracer.Middleware(headers.Middleware(mux)),
	}
	return s
}

// Shutdown stops the HTTP server and the rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.authLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Metrics exposes the request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.Snapshot()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.ready.Ping(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

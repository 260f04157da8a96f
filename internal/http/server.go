// Package http exposes the ledger over a small JSON API and a server-rendered
// page. Handlers only translate between HTTP and ledger calls.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"weekbudget/internal/core"
	"weekbudget/internal/ledger"
	applog "weekbudget/internal/log"
	"weekbudget/internal/middleware/ratelimit"
	"weekbudget/internal/middleware/security"
	"weekbudget/internal/middleware/trace"
	appweb "weekbudget/web"
)

const staticMaxAge = 3600

type Server struct {
	http.Server

	ledger    *ledger.Ledger
	templates *template.Template
	logger    *applog.Logger
	events    *applog.StructuredLogger
	ready     func(context.Context) error

	rateConfig ratelimit.Config
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	tracer     *trace.Middleware

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithReadiness sets the check behind /readyz. Without it the server is
// always ready.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

func WithLogger(logger *applog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.rateConfig = cfg }
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, l *ledger.Ledger, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		ledger:     l,
		logger:     applog.Discard(),
		ready:      func(context.Context) error { return nil },
		rateConfig: ratelimit.DefaultConfig(),
		detector:   security.NewDetector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(applog.ComponentHTTP)
	s.events = applog.NewStructuredLogger(s.logger)
	s.limiter = ratelimit.NewLimiter(s.rateConfig)
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/allowance", s.handleSetAllowance)
	mux.HandleFunc("POST /api/expenses", s.handleAddExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("POST /api/weeks/advance", s.handleAdvanceWeek)
	mux.HandleFunc("POST /api/weeks/jump", s.handleJumpToWeek)
	mux.HandleFunc("POST /api/weeks/prev", s.handlePreviousWeek)
	mux.HandleFunc("POST /api/weeks/next", s.handleNextWeek)

	limited := s.limiter.Middleware(
		s.detector.ExtractClientIP,
		func(r *http.Request) bool { return ratelimit.IsMutating(r.Method) },
		func(w http.ResponseWriter, r *http.Request) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later", false)
		},
	)(mux)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.tracer.Middleware(headers.Middleware(s.detector.Middleware(s.logger)(limited)))

	return s
}

// Shutdown stops the rate limiter and then the HTTP server. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

var templateFuncs = template.FuncMap{
	"peso": core.FormatPeso,
	"pct": func(v float64) string {
		return fmt.Sprintf("%.0f%%", v)
	},
	// clamp bounds a percentage for <meter> elements.
	"clamp": func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 100 {
			return 100
		}
		return v
	},
	"categories": core.Categories,
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.ready(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

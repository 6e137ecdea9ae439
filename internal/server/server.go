package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/repo-trends/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// shutdownTimeout bounds how long in-flight requests may run after a stop signal.
const shutdownTimeout = 10 * time.Second

// quotaTimeout bounds the quota lookup so a slow GraphQL endpoint cannot hold up results.
const quotaTimeout = 2 * time.Second

// Runner runs one fetch-and-analyze pass.
type Runner interface {
	Run(ctx context.Context, query domain.SearchQuery) (*domain.Analysis, error)
	Quota(ctx context.Context) (domain.Quota, error)
}

// Server serves the web UI.
type Server struct {
	runner       Runner
	defaults     domain.SearchQuery
	logger       *log.Logger
	tmpl         *template.Template
	router       chi.Router
	quotaTimeout time.Duration
}

// New creates a Server. defaults pre-fills the search form.
func New(runner Runner, defaults domain.SearchQuery, logger *log.Logger) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"comma": func(n int) string { return humanize.Comma(int64(n)) },
		"date":  func(t time.Time) string { return t.UTC().Format("2006-01-02") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		runner:       runner,
		defaults:     defaults,
		logger:       logger,
		tmpl:         tmpl,
		quotaTimeout: quotaTimeout,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	for _, m := range []Middleware{
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
	} {
		r.Use(m)
	}

	r.Get("/", s.handleIndex)
	r.Get("/analyze", s.handleAnalyze)
	r.Get("/api/analyze", s.handleAPIAnalyze)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s.logger.Info("Listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// statusFor maps an error to the HTTP status the UI and API respond with.
func statusFor(err error) int {
	if _, ok := domain.AsQueryError(err); ok {
		return http.StatusBadRequest
	}
	if _, ok := domain.AsAnalysisError(err); ok {
		return http.StatusUnprocessableEntity
	}
	if fe, ok := domain.AsFetchError(err); ok {
		switch {
		case fe.IsRateLimit():
			return http.StatusTooManyRequests
		case fe.Hint == domain.HintInvalidToken || fe.Hint == domain.HintMissingToken:
			return http.StatusUnauthorized
		default:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// hintFor returns the short hint shown next to an error.
func hintFor(err error) string {
	if fe, ok := domain.AsFetchError(err); ok {
		return fe.Hint
	}
	if _, ok := domain.AsAnalysisError(err); ok {
		return "no repositories found"
	}
	if _, ok := domain.AsQueryError(err); ok {
		return "invalid input"
	}
	return "internal error"
}

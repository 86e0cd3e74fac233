package server

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jonnydevp/FitPose/internal/docs"
	"github.com/Jonnydevp/FitPose/internal/history"
	"github.com/Jonnydevp/FitPose/internal/ratelimit"
	"github.com/Jonnydevp/FitPose/internal/session"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HistoryLister interface {
	ListForSession(ctx context.Context, sessionID string, limit int) ([]history.Entry, error)
}

type Config struct {
	Sessions      *session.Manager
	History       HistoryLister
	Pinger        Pinger
	StaticFS      fs.FS
	BaseURL       string
	TrustProxy    bool
	UploadLimiter *ratelimit.Limiter
	APILimiter    *ratelimit.Limiter
}

type Server struct {
	router        chi.Router
	sessions      *session.Manager
	history       HistoryLister
	pinger        Pinger
	staticFS      fs.FS
	uploadLimiter *ratelimit.Limiter
	apiLimiter    *ratelimit.Limiter
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{BaseURL: cfg.BaseURL}))

	s := &Server{
		router:        r,
		sessions:      cfg.Sessions,
		history:       cfg.History,
		pinger:        cfg.Pinger,
		staticFS:      cfg.StaticFS,
		uploadLimiter: cfg.UploadLimiter,
		apiLimiter:    cfg.APILimiter,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Handle("/metrics", promhttp.Handler())

	if s.staticFS != nil {
		s.router.Handle("/static/*", http.StripPrefix("/static/", newStaticFileServer(s.staticFS)))
	}

	s.router.Get("/about", s.handleAbout)
	s.router.Get("/contact", s.handleContact)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/docs/openapi.yaml", docs.HandleSpec)

		r.Group(func(r chi.Router) {
			r.Use(limit(s.apiLimiter))
			r.Get("/exercises", s.handleExercises)
			r.Get("/limits", s.handleLimits)

			if s.sessions == nil {
				return
			}
			r.Group(func(r chi.Router) {
				r.Use(s.sessions.Middleware)
				r.Get("/analysis", s.handleSnapshot)
				r.Get("/analysis/events", s.handleEvents)
				r.Get("/history", s.handleHistory)
			})
		})
	})

	if s.sessions != nil {
		s.router.Group(func(r chi.Router) {
			r.Use(s.sessions.Middleware)
			r.Get("/", s.handleHome)
			r.Route("/analysis", func(r chi.Router) {
				r.Post("/exercise", s.handleSelectExercise)
				r.With(limit(s.uploadLimiter)).Post("/upload", s.handleUpload)
				r.Post("/reset", s.handleReset)
			})
		})
	}
}

func limit(l *ratelimit.Limiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Middleware
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

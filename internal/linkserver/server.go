// Package linkserver exposes the route table over HTTP: web links are
// redirected to their app form, and links can be resolved or generated
// for tooling.
package linkserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/route"
)

// Server serves link resolution endpoints.
type Server struct {
	resolver *route.Resolver
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer enables GET /metrics for the given gatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New builds the HTTP handler tree.
func New(resolver *route.Resolver, opts ...Option) *Server {
	s := &Server{
		resolver: resolver,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/resolve", s.handleResolve)
	r.Get("/links/{route}", s.handleGenerate)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/*", s.handleWebLink)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// handleResolve answers GET /resolve?url=... with the ParsedLink.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing url query parameter")
		return
	}
	link := s.resolver.Resolve(raw)
	status := http.StatusOK
	if !link.Valid {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, link)
}

type generated struct {
	Route string `json:"route"`
	URL   string `json:"url"`
	Web   string `json:"web,omitempty"`
}

// handleGenerate answers GET /links/{route}?k=v with the canonical and
// web links for a route.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "route")
	p := s.resolver.GenerationParams(name, params.SplitQuery(r.URL.RawQuery))

	link, err := s.resolver.Generate(name, p)
	if err != nil {
		status := http.StatusBadRequest
		if route.CodeOf(err) == route.ErrCodeRouteNotFound {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	out := generated{Route: name, URL: link}
	if web, err := s.resolver.GenerateWeb(name, p); err == nil {
		out.Web = web
	}
	writeJSON(w, http.StatusOK, out)
}

// handleWebLink redirects a shared web path to the app scheme when it
// resolves to a valid route.
func (s *Server) handleWebLink(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.EscapedPath(), "/")
	if r.URL.RawQuery != "" {
		rest += "?" + r.URL.RawQuery
	}
	target := s.resolver.Scheme() + rest

	link := s.resolver.Resolve(target)
	if !link.Valid {
		writeJSON(w, http.StatusNotFound, link)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

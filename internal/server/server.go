// Package server exposes the drafting agent over HTTP: feature
// processing, session management, document export, health, and metrics.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/specdraft/specdraft"
	"github.com/specdraft/specdraft/pkg/observability"
)

// Server routes HTTP requests to the drafting agent.
type Server struct {
	agent  *specdraft.Agent
	logger *zap.Logger
}

// New creates an HTTP server around the agent.
func New(agent *specdraft.Agent, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{agent: agent, logger: logger}
}

// Router builds the chi router with all routes and middleware mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.metricsMiddleware)

	r.Post("/process_feature", s.handleProcessFeature)
	r.Post("/export_feature", s.handleExportFeature)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Get("/{sessionID}", s.handleGetSession)
		r.Delete("/{sessionID}", s.handleDeleteSession)
	})

	r.Get("/health", observability.HealthHandler())
	r.Get("/health/live", observability.LivenessHandler())
	r.Get("/health/ready", observability.ReadinessHandler())
	r.Handle("/metrics", observability.MetricsHandler())

	return r
}

// metricsMiddleware records request counts and latencies per route
// pattern, so path parameters don't explode label cardinality.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = r.URL.Path
		}
		observability.RecordHTTPRequest(r.Method, pattern, strconv.Itoa(ww.Status()), time.Since(start))
	})
}

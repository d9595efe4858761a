// Package server exposes editor sessions over HTTP so a browser canvas, or
// any other surface, can drive the graph-editing core.
//
// Sessions live in memory only. Each request locks its session, so mutations
// of one workflow are applied one at a time in arrival order.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/graph"
	"github.com/smallnest/agentflow/layout"
	"github.com/smallnest/agentflow/log"
)

// Server is the HTTP API.
type Server struct {
	registry     *catalog.Registry
	sessions     *SessionStore
	metrics      *Metrics
	logger       log.Logger
	origins      []string
	layoutOpts   layout.Options
	workflowOpts []graph.Option
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithLayoutOptions sets the auto-layout options of new sessions.
func WithLayoutOptions(opts layout.Options) Option {
	return func(s *Server) { s.layoutOpts = opts }
}

// WithWorkflowOptions sets graph options applied to every new workflow.
func WithWorkflowOptions(opts ...graph.Option) Option {
	return func(s *Server) { s.workflowOpts = opts }
}

// WithMetrics replaces the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New creates a server over the given catalog. A nil registry means the default catalog.
func New(reg *catalog.Registry, opts ...Option) *Server {
	if reg == nil {
		reg = catalog.Default()
	}
	s := &Server{
		registry: reg,
		sessions: NewSessionStore(),
		logger:   log.GetDefaultLogger(),
		origins:  []string{"http://localhost:3000"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics("agentflow")
	}
	return s
}

// Sessions returns the session store.
func (s *Server) Sessions() *SessionStore { return s.sessions }

// Metrics returns the metrics collector.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler configures all routes and middleware.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))
	router.Use(s.metrics.Middleware)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", s.healthCheck)
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.getCatalog)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.createSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Delete("/", s.deleteSession)
				r.Get("/document", s.getDocument)
				r.Put("/document", s.putDocument)
				r.Get("/scene", s.getScene)
				r.Get("/scene.svg", s.getSceneSVG)
				r.Get("/export", s.export)
				r.Post("/viewport", s.updateViewport)
				r.Post("/layout", s.autoLayout)
				r.Post("/events", s.handleEvents)

				r.Route("/nodes", func(r chi.Router) {
					r.Post("/", s.placeNode)
					r.Delete("/{nodeID}", s.deleteNode)
					r.Put("/{nodeID}/position", s.moveNode)
					r.Patch("/{nodeID}/properties", s.updateProperties)
					r.Get("/{nodeID}/preview", s.previewNode)
				})

				r.Route("/connections", func(r chi.Router) {
					r.Post("/", s.connect)
					r.Patch("/{connectionID}", s.relabelConnection)
					r.Delete("/{connectionID}", s.deleteConnection)
				})
			})
		})
	})

	return router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.logger.Error("server failed: %v", err)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"sessions": s.sessions.Len(),
	})
}

// requestLogger logs every request at debug level.
func requestLogger(logger log.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("%s %s %d %dB %s [%s]",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
				time.Since(start), chimiddleware.GetReqID(r.Context()))
		})
	}
}

// Package server serves a built site for local preview and rebuilds it when
// the content changes.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/moosedocs/pkg/httputil"
	"github.com/platinummonkey/moosedocs/pkg/observability"
	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

// RebuildFunc rebuilds the site.
type RebuildFunc func(ctx context.Context) error

// Options configures a Server.
type Options struct {
	SiteDir string
	// Tree answers /api/syntax; it may be set later with SetTree.
	Tree *syntax.Tree
	// Registry and Metrics enable /metrics and request instrumentation.
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Health   *observability.HealthChecker
	Rebuild  RebuildFunc
}

// Server is the preview HTTP server.
type Server struct {
	router  *mux.Router
	siteDir string
	rebuild RebuildFunc
	health  *observability.HealthChecker
	metrics *observability.Metrics
	log     *logrus.Logger

	mu   sync.RWMutex
	tree *syntax.Tree
	// serializes rebuilds
	buildMu sync.Mutex
}

// New creates a Server. log may be nil.
func New(opts Options, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{
		router:  mux.NewRouter(),
		siteDir: opts.SiteDir,
		rebuild: opts.Rebuild,
		health:  opts.Health,
		metrics: opts.Metrics,
		log:     log,
		tree:    opts.Tree,
	}
	if s.health == nil {
		s.health = observability.NewHealthChecker(opts.SiteDir, nil, "")
	}
	s.setupRoutes(opts.Registry)
	return s
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes(registry *prometheus.Registry) {
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics, routeLabel))
	}

	s.router.HandleFunc("/healthz", s.health.Liveness).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz/ready", s.health.Readiness).Methods(http.MethodGet)
	if registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(registry)).Methods(http.MethodGet)
	}
	s.router.HandleFunc("/api/syntax", s.getSyntax).Methods(http.MethodGet)
	s.router.HandleFunc("/api/rebuild", s.postRebuild).Methods(http.MethodPost)

	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.siteDir))).Methods(http.MethodGet, http.MethodHead)
}

// routeLabel keeps the metrics path label bounded to route templates.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// Router returns the route table.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	h := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.log),
		httputil.RecoveryMiddleware(s.log),
	)(s.router)
	return otelhttp.NewHandler(h, "moosedocs.preview")
}

// SetTree swaps the schema served by /api/syntax.
func (s *Server) SetTree(tree *syntax.Tree) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree = tree
}

func (s *Server) currentTree() *syntax.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// Rebuild runs the rebuild function; concurrent calls are serialized.
func (s *Server) Rebuild(ctx context.Context) error {
	if s.rebuild == nil {
		return nil
	}
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	return s.rebuild(ctx)
}

// Package rest assembles the BQL HTTP surface: health checks plus the
// single query route. Grounded on the teacher's router.go Setup() shape
// (chi + chi/middleware + a custom access-log/CORS/request-id stack),
// narrowed from the teacher's many REST resources (nodes/edges/graphs/
// categories/search) down to the one route §6 needs — a query string in,
// a Result out.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bql/application/bql"
	"bql/interfaces/http/rest/handlers"
	"bql/interfaces/http/rest/middleware"
)

// Router builds the chi handler tree for the BQL HTTP service.
type Router struct {
	engine   *bql.Engine
	logger   *zap.Logger
	gatherer prometheus.Gatherer
}

// NewRouter builds a Router bound to engine.
func NewRouter(engine *bql.Engine, logger *zap.Logger) *Router {
	return &Router{engine: engine, logger: logger}
}

// WithMetrics exposes GET /metrics backed by gatherer, returning the same
// Router for chaining. Skip calling this when metrics are disabled — a nil
// gatherer leaves /metrics unregistered rather than panicking.
func (rt *Router) WithMetrics(gatherer prometheus.Gatherer) *Router {
	rt.gatherer = gatherer
	return rt
}

// Setup configures routes and middleware and returns the finished handler.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.CORS())

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))
	}

	router.Route("/v1", func(r chi.Router) {
		bqlHandler := handlers.NewBQLHandler(rt.engine, rt.logger)
		r.Post("/query", bqlHandler.Query)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Package server exposes the tracker's metrics over HTTP for the dashboard.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/xfey-rate-tracker/internal/history"
	"github.com/yourorg/xfey-rate-tracker/internal/metric"
	"github.com/yourorg/xfey-rate-tracker/internal/model"
)

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// Options holds the HTTP-level settings
type Options struct {
	// HTTP port to listen on
	Port string

	// Whether to serve Prometheus metrics on /metrics
	EnableMetrics bool

	// Requests per second allowed on /api routes; zero disables limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Prometheus registry for the server's collectors and the /metrics handler.
	// Nil uses the process-wide default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Metrics bundles one orchestrator per served metric
type Metrics struct {
	ConversionRate *metric.Orchestrator[model.ConversionRate]
	StakedSupply   *metric.Orchestrator[model.StakedSupply]
	MarketData     *metric.Orchestrator[model.MarketSnapshot]
	SpotPrice      *metric.Orchestrator[model.SpotPrice]
	Rewards        *metric.Orchestrator[model.RewardsTotal]
	Buyback        *metric.Orchestrator[model.BuybackTotal]
}

// Server represents the tracker's HTTP server instance
type Server struct {
	opts Options

	metrics  Metrics
	history  history.Store
	pipeline *metric.Metrics

	router    *mux.Router
	server    *http.Server
	http      *serverMetrics
	gatherer  prometheus.Gatherer
	rateLimit *rate.Limiter
}

// New creates a server and registers its routes. pipeline may be nil when metrics
// are disabled.
func New(opts Options, metrics Metrics, store history.Store, pipeline *metric.Metrics) *Server {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		opts:     opts,
		metrics:  metrics,
		history:  store,
		pipeline: pipeline,
		gatherer: opts.Gatherer,
	}

	if opts.EnableMetrics {
		s.http = registerServerMetrics(opts.Registerer)
	}

	if opts.RateLimitRPS > 0 {
		s.rateLimit = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst)
		logrus.Infof("Rate limiting initialized: %v req/s, burst: %d", opts.RateLimitRPS, opts.RateLimitBurst)
	}

	s.router = s.routes()

	logrus.WithFields(logrus.Fields{
		"port":       opts.Port,
		"metrics":    opts.EnableMetrics,
		"rate_limit": opts.RateLimitRPS,
	}).Info("Server initialized")

	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID, s.observe)
	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.limit)
	api.NotFoundHandler = r.NotFoundHandler
	api.MethodNotAllowedHandler = r.MethodNotAllowedHandler

	api.HandleFunc("/fetch-rate", serveMetric(s.metrics.ConversionRate, nil)).Methods(http.MethodGet)
	api.HandleFunc("/collect-data", s.handleCollect).Methods(http.MethodPost)
	api.HandleFunc("/staked-supply", serveMetric(s.metrics.StakedSupply, map[string]string{
		"Cache-Control": "public, s-maxage=300, stale-while-revalidate=600",
	})).Methods(http.MethodGet)
	api.HandleFunc("/gecko", serveMetric(s.metrics.MarketData, nil)).Methods(http.MethodGet)
	api.HandleFunc("/gecko-weth", serveMetric(s.metrics.SpotPrice, nil)).Methods(http.MethodGet)
	api.HandleFunc("/dune", serveMetric(s.metrics.Rewards, nil)).Methods(http.MethodGet)
	api.HandleFunc("/dune-buyback", serveMetric(s.metrics.Buyback, nil)).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins the HTTP server and blocks until SIGINT or SIGTERM, then shuts down
// gracefully
func (s *Server) Start() {
	s.server = &http.Server{
		Addr:         ":" + s.opts.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", s.opts.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server shutdown failed: %v", err)
		return
	}

	logrus.Info("Server stopped")
}

// handleMetrics exposes Prometheus metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !s.opts.EnableMetrics {
		writeError(w, http.StatusServiceUnavailable, "Metrics disabled")
		return
	}

	promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

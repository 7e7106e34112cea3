package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "The HTTP request latencies in seconds",
		},
		[]string{"method", "endpoint"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offline_cache_lookups_total",
			Help: "Intercepted requests by result (hit, miss, bypass, error)",
		},
		[]string{"result"},
	)

	cacheInstalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offline_cache_installs_total",
			Help: "Offline cache installs by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(cacheLookups)
	prometheus.MustRegister(cacheInstalls)
}

// GetRequestsTotal returns the requests total metric for middleware use
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// GetRequestDuration returns the request duration metric for middleware use
func GetRequestDuration() *prometheus.HistogramVec {
	return requestDuration
}

// GetCacheLookups returns the interception lookup counter
func GetCacheLookups() *prometheus.CounterVec {
	return cacheLookups
}

// LogMetricsInitialization logs that metrics have been initialized
func (s *Server) LogMetricsInitialization() {
	s.logger.Info("Prometheus metrics initialized and registered")
	s.logger.WithFields(map[string]interface{}{
		"http_requests_total":          "Counter for HTTP requests by method, endpoint, status",
		"http_request_duration":        "Histogram for HTTP request duration by method, endpoint",
		"offline_cache_lookups_total":  "Counter for intercepted requests by result",
		"offline_cache_installs_total": "Counter for installs by outcome",
		"metrics_endpoint":             "/metrics",
	}).Debug("Available Prometheus metrics")
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.Handler()
}

func (s *Server) metricsEndpoint(c echo.Context) error {
	s.logger.Debug("Serving Prometheus metrics")
	s.metricsHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}

package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/zhguchie-tours/frontend/internal/core/ports"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	Admin     *AdminMiddleware
	Logging   *LoggingMiddleware
	Metrics   *MetricsMiddleware
	Intercept *InterceptMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	offlineCache ports.OfflineCacheService,
	logger *logrus.Logger,
	adminJWTSecret string,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
	cacheLookups *prometheus.CounterVec,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		Admin:     NewAdminMiddleware(adminJWTSecret, logger),
		Logging:   NewLoggingMiddleware(logger),
		Metrics:   NewMetricsMiddleware(requestsTotal, requestDuration),
		Intercept: NewInterceptMiddleware(offlineCache, cacheLookups, logger),
	}
}

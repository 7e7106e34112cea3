package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
	"github.com/zhguchie-tours/frontend/internal/core/ports"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/httpserver/helpers"
)

// Lookup results recorded by the interception middleware.
const (
	LookupHit    = "hit"
	LookupMiss   = "miss"
	LookupBypass = "bypass"
	LookupError  = "error"
)

// InterceptMiddleware answers every request it is not told to skip from the
// offline cache or, failing that, from the network.
type InterceptMiddleware struct {
	offline ports.OfflineCacheService
	lookups *prometheus.CounterVec
	logger  *logrus.Logger
}

func NewInterceptMiddleware(offlineCache ports.OfflineCacheService, lookups *prometheus.CounterVec, logger *logrus.Logger) *InterceptMiddleware {
	return &InterceptMiddleware{offline: offlineCache, lookups: lookups, logger: logger}
}

// PrefixSkipper skips requests whose path equals or lies under one of prefixes.
func PrefixSkipper(prefixes ...string) echomw.Skipper {
	return func(c echo.Context) bool {
		p := c.Request().URL.Path
		for _, prefix := range prefixes {
			if p == prefix || strings.HasPrefix(p, strings.TrimSuffix(prefix, "/")+"/") {
				return true
			}
		}
		return false
	}
}

// Handler intercepts requests not matched by skipper. Skipped requests reach
// the routed handler.
func (m *InterceptMiddleware) Handler(skipper echomw.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echomw.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			req := c.Request()
			resp, source, err := m.offline.Intercept(req.Context(), req)
			if err != nil {
				m.observe(LookupError)
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"method": req.Method, "path": req.URL.Path}).WithError(err).Warn("network request failed")
				}
				return echo.NewHTTPError(http.StatusBadGateway, "upstream unavailable").SetInternal(err)
			}
			helpers.SetCacheSource(c, source)
			m.observe(lookupResult(req, source))
			return writeResponse(c, resp)
		}
	}
}

func (m *InterceptMiddleware) observe(result string) {
	if m.lookups != nil {
		m.lookups.WithLabelValues(result).Inc()
	}
}

func lookupResult(req *http.Request, source offline.Source) string {
	if source == offline.SourceStore {
		return LookupHit
	}
	if _, ok := offline.RequestKey(req); ok {
		return LookupMiss
	}
	return LookupBypass
}

func writeResponse(c echo.Context, resp *offline.Response) error {
	h := c.Response().Header()
	for k, vs := range resp.Header {
		h[k] = append([]string(nil), vs...)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	c.Response().WriteHeader(status)
	if c.Request().Method == http.MethodHead || status == http.StatusNoContent || status == http.StatusNotModified {
		return nil
	}
	_, err := c.Response().Write(resp.Body)
	return err
}

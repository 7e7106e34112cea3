package httpserver

import (
	"github.com/labstack/echo/v4/middleware"

	customMiddleware "github.com/zhguchie-tours/frontend/internal/infrastructure/httpserver/middleware"
)

// ownedPrefixes are served by this server's routes; every other path is intercepted.
var ownedPrefixes = []string{"/api", "/health", "/metrics", serviceWorkerPath}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Logger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: s.config.AllowedOrigins}))
	s.echo.Use(middleware.RequestID())

	s.echo.Use(s.middleware.Metrics.CollectHTTPMetrics())
	s.echo.Use(s.middleware.Logging.RequestLogging())
	s.echo.Use(s.middleware.Intercept.Handler(customMiddleware.PrefixSkipper(ownedPrefixes...)))
}

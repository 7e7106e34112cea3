package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/zhguchie-tours/frontend/internal/core/ports"
	customMiddleware "github.com/zhguchie-tours/frontend/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
	InstallTimeout time.Duration
	AdminJWTSecret string
}

type ServerDeps struct {
	OfflineCache   ports.OfflineCacheService
	Pages          ports.PageController
	Widget         ports.WidgetService
	HealthCheckers []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	offlineCache   ports.OfflineCacheService
	pages          ports.PageController
	widget         ports.WidgetService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true

	if logger == nil {
		logger = logrus.New()
	}

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		offlineCache:   deps.OfflineCache,
		pages:          deps.Pages,
		widget:         deps.Widget,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.OfflineCache,
			logger,
			serverConfig.AdminJWTSecret,
			GetRequestsTotal(),
			GetRequestDuration(),
			GetCacheLookups(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/zhguchie-tours/frontend/configs"
	"github.com/zhguchie-tours/frontend/internal/application/services"
	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
	widgetdomain "github.com/zhguchie-tours/frontend/internal/core/domain/widget"
	"github.com/zhguchie-tours/frontend/internal/core/ports"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/health"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/httpserver"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/network"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/storage"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/widget"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := config.NewLogger(&cfg.Log)
	logger.Info("Starting Zhguchie Tours front-end...")

	version, paths, err := cfg.Cache.ResolveManifest()
	if err != nil {
		logger.Fatal("Failed to load precache manifest:", err)
	}

	backend, err := storage.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open response store:", err)
	}
	defer backend.Close()

	origin, err := network.NewOriginFetcher(cfg.Origin.URL, cfg.Origin.Timeout, logger)
	if err != nil {
		logger.Fatal("Invalid origin:", err)
	}

	offlineCache := services.NewOfflineCacheService(backend.Store, origin, &services.OfflineCacheConfig{
		StorePrefix:      cfg.Cache.StorePrefix,
		Version:          version,
		Manifest:         offline.Manifest(paths),
		EntryTTL:         cfg.Cache.EntryTTL,
		CleanupOldStores: cfg.Cache.CleanupOldStores,
	}, logger)

	// The booking widget loads in the background; its readiness is awaited per request.
	readiness := widgetdomain.NewReadiness()
	loaderCtx, stopLoader := context.WithCancel(context.Background())
	defer stopLoader()
	go func() {
		_ = widget.NewLoader(cfg.Widget.ScriptURL, cfg.Widget.ProbeTimeout, cfg.Widget.RetryWindow, readiness, logger).Load(loaderCtx)
	}()
	widgetService := services.NewWidgetService(readiness, cfg.Widget.ScriptURL, cfg.Widget.ReadyTimeout, logger)

	pages := services.NewPageController(nil, logger)
	pages.SetVisitorTTL(cfg.Server.VisitorTTL)

	hcSlice := append([]ports.HealthChecker{}, backend.HealthCheckers...)
	hcSlice = append(hcSlice, health.NewOriginHealthChecker(origin))

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Environment:    cfg.Server.Environment,
		InstallTimeout: cfg.Cache.InstallTimeout,
		AdminJWTSecret: cfg.Admin.JWTSecret,
	}

	deps := httpserver.ServerDeps{
		OfflineCache:   offlineCache,
		Pages:          pages,
		Widget:         widgetService,
		HealthCheckers: hcSlice,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// A failed install leaves the cache redundant; requests still reach the network.
	if report, err := server.ActivateOfflineCache(context.Background()); err != nil {
		logger.WithError(err).Warn("Offline cache not activated; serving from network only")
	} else {
		logger.WithField("store", report.Store).Infof("Offline cache activated with %d entries", report.Entries)
	}

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/httpserver/helpers"
)

// ActivateOfflineCache runs the install step and records its outcome. It is
// called once at startup and again from the admin API.
func (s *Server) ActivateOfflineCache(ctx context.Context) (*offline.InstallReport, error) {
	if s.config.InstallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.InstallTimeout)
		defer cancel()
	}
	report, err := s.offlineCache.Install(ctx)
	if err != nil {
		cacheInstalls.WithLabelValues("failed").Inc()
		return nil, err
	}
	cacheInstalls.WithLabelValues("succeeded").Inc()
	return report, nil
}

func (s *Server) offlineStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.offlineCache.Status(c.Request().Context()))
}

func (s *Server) installOfflineCache(c echo.Context) error {
	subject, err := helpers.GetAdminSubjectFromContext(c)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"admin": subject}).Info("offline cache install requested")

	report, err := s.ActivateOfflineCache(c.Request().Context())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
		}
		if errors.Is(err, offline.ErrInvalidManifest) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":             report.ID,
		"store":          report.Store,
		"entries":        report.Entries,
		"unchanged":      report.Unchanged,
		"removed_stores": report.RemovedStore,
		"duration":       report.Duration.Round(time.Millisecond).String(),
	})
}

func (s *Server) listStoreKeys(c echo.Context) error {
	keys, err := s.offlineCache.Keys(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"store": s.offlineCache.Status(c.Request().Context()).Store,
		"keys":  keys,
		"total": len(keys),
	})
}

func (s *Server) listStores(c echo.Context) error {
	names, err := s.offlineCache.Stores(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"stores": names, "total": len(names)})
}

func (s *Server) deleteStore(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "store name is required")
	}
	subject, err := helpers.GetAdminSubjectFromContext(c)
	if err != nil {
		return err
	}
	if err := s.offlineCache.DeleteStore(c.Request().Context(), name); err != nil {
		if errors.Is(err, offline.ErrStoreNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	s.logger.WithFields(logrus.Fields{"admin": subject, "store": name}).Info("store deleted via admin API")
	return c.NoContent(http.StatusNoContent)
}

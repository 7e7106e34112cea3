package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zhguchie-tours/frontend/internal/core/domain/widget"
)

func (s *Server) widgetStatus(c echo.Context) error {
	status, err := s.widget.Await(c.Request().Context())
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, status)
	case errors.Is(err, widget.ErrTimeout):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, widget.ErrUnreachable):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
}

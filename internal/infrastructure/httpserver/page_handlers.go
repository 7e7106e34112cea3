package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/zhguchie-tours/frontend/internal/application/services"
	"github.com/zhguchie-tours/frontend/internal/core/domain/page"
)

// visitorCookie identifies a browser so each visitor keeps its own active page.
const visitorCookie = "zt_visitor"

func visitorID(c echo.Context) string {
	ck, err := c.Cookie(visitorCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(ck.Value); err != nil {
		return ""
	}
	return ck.Value
}

// ensureVisitor returns the visitor id, issuing a cookie when the request has none.
func (s *Server) ensureVisitor(c echo.Context) string {
	if id := visitorID(c); id != "" {
		return id
	}
	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) listPages(c echo.Context) error {
	return c.JSON(http.StatusOK, s.pages.Pages())
}

func (s *Server) currentPage(c echo.Context) error {
	return c.JSON(http.StatusOK, s.pages.Current(visitorID(c)))
}

func (s *Server) switchPage(c echo.Context) error {
	view, err := s.pages.SwitchPage(s.ensureVisitor(c), page.ID(c.Param("id")))
	if err != nil {
		if errors.Is(err, services.ErrPageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, view)
}

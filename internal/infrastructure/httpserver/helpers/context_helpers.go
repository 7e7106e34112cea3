package helpers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func GetJWTTokenFromContext(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}
	return token, nil
}

func GetAdminSubjectFromContext(c echo.Context) (string, error) {
	s, ok := GetAdminSubjectRaw(c)
	if !ok || s == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid admin context")
	}
	return s, nil
}

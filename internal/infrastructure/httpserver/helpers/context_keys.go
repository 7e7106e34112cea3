package helpers

import (
	"github.com/labstack/echo/v4"

	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
)

type ctxKey string

const (
	keyAdminSubject ctxKey = "admin_subject"
	keyCacheSource  ctxKey = "cache_source"
)

func SetAdminSubject(c echo.Context, sub string) { c.Set(string(keyAdminSubject), sub) }
func GetAdminSubjectRaw(c echo.Context) (string, bool) {
	v := c.Get(string(keyAdminSubject))
	s, ok := v.(string)
	return s, ok
}

func SetCacheSource(c echo.Context, src offline.Source) { c.Set(string(keyCacheSource), src) }
func GetCacheSourceRaw(c echo.Context) (offline.Source, bool) {
	v := c.Get(string(keyCacheSource))
	s, ok := v.(offline.Source)
	return s, ok
}

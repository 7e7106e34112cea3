package httpserver

import (
	"bytes"
	"embed"
	"encoding/json"
	"net/http"
	"text/template"

	"github.com/labstack/echo/v4"
)

const serviceWorkerPath = "/sw.js"

//go:embed templates/sw.js.tmpl
var templatesFS embed.FS

var serviceWorkerTmpl = template.Must(template.ParseFS(templatesFS, "templates/sw.js.tmpl"))

type serviceWorkerData struct {
	StoreName string
	Manifest  string
}

// renderServiceWorker produces the browser-side worker for the current store
// name and manifest. Values are JSON-encoded so they are valid JS literals.
func renderServiceWorker(store string, manifest []string) ([]byte, error) {
	name, err := json.Marshal(store)
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		manifest = []string{}
	}
	list, err := json.MarshalIndent(manifest, "", "    ")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := serviceWorkerTmpl.Execute(&buf, serviceWorkerData{StoreName: string(name), Manifest: string(list)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// serviceWorker serves the worker from the root path so its scope covers the whole site.
func (s *Server) serviceWorker(c echo.Context) error {
	st := s.offlineCache.Status(c.Request().Context())
	body, err := renderServiceWorker(st.Store, st.Manifest)
	if err != nil {
		s.logger.WithError(err).Error("failed to render service worker")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render service worker")
	}
	c.Response().Header().Set("Service-Worker-Allowed", "/")
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.Blob(http.StatusOK, "application/javascript; charset=utf-8", body)
}

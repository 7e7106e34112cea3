package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhguchie-tours/frontend/internal/application/services"
	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
	"github.com/zhguchie-tours/frontend/internal/core/domain/widget"
	"github.com/zhguchie-tours/frontend/internal/core/ports"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/httpserver"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/httpserver/middleware"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/network"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/repositories"
	tmocks "github.com/zhguchie-tours/frontend/internal/testutil/mocks"
)

const testSecret = "test-secret"

type fixture struct {
	server  *httpserver.Server
	store   *repositories.ResponseMemoryRepository
	network *tmocks.NetworkMock
	cache   *services.OfflineCacheService
}

func newFixture(t *testing.T, network *tmocks.NetworkMock, manifest offline.Manifest) *fixture {
	t.Helper()
	logger := logrus.New()
	store := repositories.NewResponseMemoryRepository()
	cache := services.NewOfflineCacheService(store, network, &services.OfflineCacheConfig{Manifest: manifest}, logger)
	srv := httpserver.NewServer(&httpserver.ServerConfig{AdminJWTSecret: testSecret, AllowedOrigins: []string{"*"}}, logger, httpserver.ServerDeps{
		OfflineCache: cache,
		Pages:        services.NewPageController(nil, logger),
		Widget:       &tmocks.WidgetServiceMock{},
	})
	return &fixture{server: srv, store: store, network: network, cache: cache}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Echo().ServeHTTP(rec, req)
	return rec
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	claims := middleware.AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestIntercept_ServesInstalledAssetFromStore(t *testing.T) {
	network := tmocks.StaticNetwork(map[string]string{"/css/style.css": "body{}"})
	f := newFixture(t, network, offline.Manifest{"/css/style.css"})
	_, err := f.server.ActivateOfflineCache(context.Background())
	require.NoError(t, err)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/css/style.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, 1, network.Calls("/css/style.css"))
}

func TestIntercept_MissIsForwardedUnmodified(t *testing.T) {
	network := &tmocks.NetworkMock{FetchFn: func(ctx context.Context, req *http.Request) (*offline.Response, error) {
		return &offline.Response{Status: http.StatusNotFound, Header: http.Header{"X-Origin": {"yes"}}, Body: []byte("nope")}, nil
	}}
	f := newFixture(t, network, offline.Manifest{"/"})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/images/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "yes", rec.Header().Get("X-Origin"))
	assert.Equal(t, "nope", rec.Body.String())
	assert.Equal(t, 1, network.Calls("/images/missing.png"))
}

func TestIntercept_NetworkFailureIsBadGateway(t *testing.T) {
	network := &tmocks.NetworkMock{FetchFn: func(ctx context.Context, req *http.Request) (*offline.Response, error) {
		return nil, errors.New("connection refused")
	}}
	f := newFixture(t, network, offline.Manifest{"/"})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/js/app.js", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestIntercept_HeadHasNoBody(t *testing.T) {
	network := tmocks.StaticNetwork(map[string]string{"/": "index"})
	f := newFixture(t, network, offline.Manifest{"/"})
	rec := f.do(httptest.NewRequest(http.MethodHead, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestOwnedRoutesAreNotIntercepted(t *testing.T) {
	network := tmocks.StaticNetwork(nil)
	f := newFixture(t, network, offline.Manifest{"/"})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/pages/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(httptest.NewRequest(http.MethodGet, "/sw.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, network.TotalCalls())
}

func TestServiceWorkerScript(t *testing.T) {
	f := newFixture(t, tmocks.StaticNetwork(nil), offline.Manifest{"/", "/css/style.css"})
	rec := f.do(httptest.NewRequest(http.MethodGet, "/sw.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Service-Worker-Allowed"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/javascript"))
	body := rec.Body.String()
	assert.Contains(t, body, `const CACHE_NAME = "zhguchie-tours-v1";`)
	assert.Contains(t, body, `"/css/style.css"`)
	assert.Contains(t, body, "cache.addAll(urlsToCache)")
}

type viewState struct {
	Active string `json:"active"`
	Title  string `json:"title"`
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewState {
	t.Helper()
	var view viewState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestPagesAPI(t *testing.T) {
	f := newFixture(t, tmocks.StaticNetwork(nil), offline.Manifest{"/"})

	rec := f.do(httptest.NewRequest(http.MethodPut, "/api/v1/pages/current/special", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, "special", view.Active)
	assert.Equal(t, "Спецпредложения - Жгучие туры", view.Title)

	rec = f.do(httptest.NewRequest(http.MethodPut, "/api/v1/pages/current/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPagesAPI_EachVisitorHasOwnPage(t *testing.T) {
	f := newFixture(t, tmocks.StaticNetwork(nil), offline.Manifest{"/"})

	rec := f.do(httptest.NewRequest(http.MethodPut, "/api/v1/pages/current/profile", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	visitorA := cookies[0]
	assert.True(t, visitorA.HttpOnly)

	reqA := httptest.NewRequest(http.MethodGet, "/api/v1/pages/current", nil)
	reqA.AddCookie(visitorA)
	rec = f.do(reqA)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "profile", decodeView(t, rec).Active)

	// A second visitor without the cookie still sees the default page.
	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/pages/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hot-tours", decodeView(t, rec).Active)

	rec = f.do(httptest.NewRequest(http.MethodPut, "/api/v1/pages/current/search", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	visitorB := rec.Result().Cookies()[0]
	assert.NotEqual(t, visitorA.Value, visitorB.Value)

	reqA = httptest.NewRequest(http.MethodGet, "/api/v1/pages/current", nil)
	reqA.AddCookie(visitorA)
	rec = f.do(reqA)
	assert.Equal(t, "profile", decodeView(t, rec).Active)

	// A returning visitor is not issued a new cookie.
	reqB := httptest.NewRequest(http.MethodPut, "/api/v1/pages/current/special", nil)
	reqB.AddCookie(visitorB)
	rec = f.do(reqB)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestWidgetAPI_MapsErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, http.StatusOK},
		{widget.ErrTimeout, http.StatusGatewayTimeout},
		{widget.ErrUnreachable, http.StatusBadGateway},
	}
	for _, tc := range cases {
		logger := logrus.New()
		cache := services.NewOfflineCacheService(repositories.NewResponseMemoryRepository(), tmocks.StaticNetwork(nil), nil, logger)
		srv := httpserver.NewServer(&httpserver.ServerConfig{}, logger, httpserver.ServerDeps{
			OfflineCache: cache,
			Pages:        services.NewPageController(nil, logger),
			Widget: &tmocks.WidgetServiceMock{AwaitFn: func(ctx context.Context) (ports.WidgetStatus, error) {
				return ports.WidgetStatus{Ready: tc.err == nil}, tc.err
			}},
		})
		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/widget", nil))
		assert.Equal(t, tc.code, rec.Code)
	}
}

func TestAdminAPI_RequiresAdminToken(t *testing.T) {
	f := newFixture(t, tmocks.StaticNetwork(map[string]string{"/": "index"}), offline.Manifest{"/"})

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/offline/install", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/offline/install", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "viewer"))
	rec = f.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/offline/install", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAPI_InstallAndInspect(t *testing.T) {
	f := newFixture(t, tmocks.StaticNetwork(map[string]string{"/": "index", "/js/app.js": "app"}), offline.Manifest{"/", "/js/app.js"})
	token := adminToken(t, middleware.AdminRole)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/offline/install", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, offline.PhaseActivated, f.cache.Phase())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/offline/keys", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	var keys struct {
		Store string   `json:"store"`
		Keys  []string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &keys))
	assert.Equal(t, "zhguchie-tours-v1", keys.Store)
	assert.Equal(t, []string{"/", "/js/app.js"}, keys.Keys)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/offline/stores/zhguchie-tours-v1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = f.do(req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	names, err := f.store.Stores(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestAdminAPI_InstallFailureIsBadGateway(t *testing.T) {
	f := newFixture(t, tmocks.StaticNetwork(nil), offline.Manifest{"/"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/offline/install", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, middleware.AdminRole))
	rec := f.do(req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, offline.PhaseRedundant, f.cache.Phase())
}

func TestHealth_ReportsDependencies(t *testing.T) {
	logger := logrus.New()
	cache := services.NewOfflineCacheService(repositories.NewResponseMemoryRepository(), tmocks.StaticNetwork(nil), nil, logger)
	srv := httpserver.NewServer(&httpserver.ServerConfig{}, logger, httpserver.ServerDeps{
		OfflineCache: cache,
		Pages:        services.NewPageController(nil, logger),
		Widget:       &tmocks.WidgetServiceMock{},
		HealthCheckers: []ports.HealthChecker{
			&tmocks.HealthCheckerMock{NameValue: "origin", CheckFn: func(ctx context.Context) error { return errors.New("down") }},
		},
	})
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"origin":"unhealthy"`)
}

func TestAdminAPI_DeleteUnknownStoreIsNotFound(t *testing.T) {
	f := newFixture(t, tmocks.StaticNetwork(nil), offline.Manifest{"/"})
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/offline/stores/zhguchie-tours-v0", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, middleware.AdminRole))
	rec := f.do(req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIntercept_OriginRedirectIsPassedThrough(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/new", http.StatusFound)
		default:
			_, _ = w.Write([]byte("new page"))
		}
	}))
	defer origin.Close()

	logger := logrus.New()
	fetcher, err := network.NewOriginFetcher(origin.URL, time.Second, logger)
	require.NoError(t, err)
	cache := services.NewOfflineCacheService(repositories.NewResponseMemoryRepository(), fetcher, &services.OfflineCacheConfig{Manifest: offline.Manifest{"/"}}, logger)
	srv := httpserver.NewServer(&httpserver.ServerConfig{}, logger, httpserver.ServerDeps{
		OfflineCache: cache,
		Pages:        services.NewPageController(nil, logger),
		Widget:       &tmocks.WidgetServiceMock{},
	})
	_, err = srv.ActivateOfflineCache(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/old", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/new", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "new page")
}

func TestAdminAPI_InvalidManifestIsServerError(t *testing.T) {
	f := newFixture(t, tmocks.StaticNetwork(map[string]string{"/": "index"}), offline.Manifest{"css/style.css"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/offline/install", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, middleware.AdminRole))
	rec := f.do(req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, f.network.TotalCalls())
}

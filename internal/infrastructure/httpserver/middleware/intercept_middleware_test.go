package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/httpserver/helpers"
	tmocks "github.com/zhguchie-tours/frontend/internal/testutil/mocks"
)

func newLookups() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_lookups_total"}, []string{"result"})
}

func TestPrefixSkipper(t *testing.T) {
	skip := PrefixSkipper("/api", "/sw.js", "/health/")
	e := echo.New()
	cases := map[string]bool{
		"/api":           true,
		"/api/v1/pages":  true,
		"/apidocs":       false,
		"/sw.js":         true,
		"/health":        false,
		"/health/live":   true,
		"/css/style.css": false,
		"/":              false,
	}
	for path, want := range cases {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
		assert.Equal(t, want, skip(c), path)
	}
}

func TestIntercept_StoreHit(t *testing.T) {
	svc := &tmocks.OfflineCacheServiceMock{InterceptFn: func(ctx context.Context, req *http.Request) (*offline.Response, offline.Source, error) {
		return &offline.Response{Status: http.StatusOK, Header: http.Header{"Content-Type": {"text/css"}}, Body: []byte("body{}")}, offline.SourceStore, nil
	}}
	lookups := newLookups()
	m := NewInterceptMiddleware(svc, lookups, nil)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/css/style.css", nil), rec)
	nextCalled := false
	err := m.Handler(nil)(func(c echo.Context) error { nextCalled = true; return nil })(c)

	require.NoError(t, err)
	assert.False(t, nextCalled)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Equal(t, "text/css", rec.Header().Get("Content-Type"))
	src, ok := helpers.GetCacheSourceRaw(c)
	require.True(t, ok)
	assert.Equal(t, offline.SourceStore, src)
	assert.Equal(t, 1.0, testutil.ToFloat64(lookups.WithLabelValues(LookupHit)))
}

func TestIntercept_ResultLabels(t *testing.T) {
	svc := &tmocks.OfflineCacheServiceMock{InterceptFn: func(ctx context.Context, req *http.Request) (*offline.Response, offline.Source, error) {
		return &offline.Response{Status: http.StatusOK}, offline.SourceNetwork, nil
	}}
	lookups := newLookups()
	m := NewInterceptMiddleware(svc, lookups, nil)
	e := echo.New()

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		c := e.NewContext(httptest.NewRequest(method, "/search", nil), httptest.NewRecorder())
		require.NoError(t, m.Handler(nil)(func(echo.Context) error { return nil })(c))
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(lookups.WithLabelValues(LookupMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(lookups.WithLabelValues(LookupBypass)))
}

func TestIntercept_NetworkErrorBecomesBadGateway(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	svc := &tmocks.OfflineCacheServiceMock{InterceptFn: func(ctx context.Context, req *http.Request) (*offline.Response, offline.Source, error) {
		return nil, offline.SourceNetwork, cause
	}}
	lookups := newLookups()
	m := NewInterceptMiddleware(svc, lookups, nil)

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/js/app.js", nil), httptest.NewRecorder())
	err := m.Handler(nil)(func(echo.Context) error { return nil })(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadGateway, he.Code)
	assert.ErrorIs(t, he.Internal, cause)
	assert.Equal(t, 1.0, testutil.ToFloat64(lookups.WithLabelValues(LookupError)))
}

func TestIntercept_SkippedRequestReachesHandler(t *testing.T) {
	svc := &tmocks.OfflineCacheServiceMock{}
	m := NewInterceptMiddleware(svc, nil, nil)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/widget", nil), httptest.NewRecorder())

	nextCalled := false
	err := m.Handler(PrefixSkipper("/api"))(func(echo.Context) error { nextCalled = true; return nil })(c)
	require.NoError(t, err)
	assert.True(t, nextCalled)
}

func TestWriteResponse(t *testing.T) {
	e := echo.New()
	resp := &offline.Response{Status: http.StatusOK, Header: http.Header{"Etag": {`"abc"`}}, Body: []byte("payload")}

	rec := httptest.NewRecorder()
	require.NoError(t, writeResponse(e.NewContext(httptest.NewRequest(http.MethodHead, "/", nil), rec), resp))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"abc"`, rec.Header().Get("Etag"))
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, writeResponse(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), &offline.Response{Status: http.StatusNotModified, Body: []byte("x")}))
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, writeResponse(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), &offline.Response{Body: []byte("x")}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "x", rec.Body.String())
}

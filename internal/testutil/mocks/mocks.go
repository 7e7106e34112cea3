package mocks

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
	"github.com/zhguchie-tours/frontend/internal/core/ports"
)

// NetworkMock is a lightweight mock for ports.Network that counts calls per key.
type NetworkMock struct {
	FetchFn func(ctx context.Context, req *http.Request) (*offline.Response, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *NetworkMock) Fetch(ctx context.Context, req *http.Request) (*offline.Response, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[offline.PathKey(req.URL.Path, req.URL.RawQuery)]++
	m.mu.Unlock()
	if m.FetchFn != nil {
		return m.FetchFn(ctx, req)
	}
	return nil, fmt.Errorf("no response for %s", req.URL.Path)
}

// Calls returns how many times key was fetched.
func (m *NetworkMock) Calls(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

// TotalCalls returns the number of fetches across all keys.
func (m *NetworkMock) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// StaticNetwork returns a NetworkMock serving body for each known path and 404 otherwise.
func StaticNetwork(files map[string]string) *NetworkMock {
	return &NetworkMock{FetchFn: func(ctx context.Context, req *http.Request) (*offline.Response, error) {
		body, ok := files[offline.PathKey(req.URL.Path, req.URL.RawQuery)]
		if !ok {
			return &offline.Response{Status: http.StatusNotFound, Header: http.Header{}, Body: []byte("not found")}, nil
		}
		return &offline.Response{
			Status: http.StatusOK,
			Header: http.Header{"Content-Type": []string{"text/plain"}},
			Body:   []byte(body),
		}, nil
	}}
}

// ResponseStoreMock wraps function fields for ports.ResponseStore.
type ResponseStoreMock struct {
	MatchFn       func(ctx context.Context, store, key string) (*offline.Response, bool, error)
	PutFn         func(ctx context.Context, store, key string, resp *offline.Response) error
	PutAllFn      func(ctx context.Context, store string, entries []offline.Entry) error
	KeysFn        func(ctx context.Context, store string) ([]string, error)
	StoresFn      func(ctx context.Context) ([]string, error)
	DeleteStoreFn func(ctx context.Context, store string) error
}

func (m *ResponseStoreMock) Match(ctx context.Context, store, key string) (*offline.Response, bool, error) {
	if m.MatchFn != nil {
		return m.MatchFn(ctx, store, key)
	}
	return nil, false, nil
}
func (m *ResponseStoreMock) Put(ctx context.Context, store, key string, resp *offline.Response) error {
	if m.PutFn != nil {
		return m.PutFn(ctx, store, key, resp)
	}
	return nil
}
func (m *ResponseStoreMock) PutAll(ctx context.Context, store string, entries []offline.Entry) error {
	if m.PutAllFn != nil {
		return m.PutAllFn(ctx, store, entries)
	}
	return nil
}
func (m *ResponseStoreMock) Keys(ctx context.Context, store string) ([]string, error) {
	if m.KeysFn != nil {
		return m.KeysFn(ctx, store)
	}
	return nil, nil
}
func (m *ResponseStoreMock) Stores(ctx context.Context) ([]string, error) {
	if m.StoresFn != nil {
		return m.StoresFn(ctx)
	}
	return nil, nil
}
func (m *ResponseStoreMock) DeleteStore(ctx context.Context, store string) error {
	if m.DeleteStoreFn != nil {
		return m.DeleteStoreFn(ctx, store)
	}
	return nil
}

// WidgetServiceMock is a lightweight mock for ports.WidgetService.
type WidgetServiceMock struct {
	AwaitFn func(ctx context.Context) (ports.WidgetStatus, error)
}

func (m *WidgetServiceMock) Await(ctx context.Context) (ports.WidgetStatus, error) {
	if m.AwaitFn != nil {
		return m.AwaitFn(ctx)
	}
	return ports.WidgetStatus{Ready: true}, nil
}

// HealthCheckerMock is a lightweight mock for ports.HealthChecker.
type HealthCheckerMock struct {
	NameValue string
	CheckFn   func(ctx context.Context) error
}

func (m *HealthCheckerMock) Name() string { return m.NameValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}

// OfflineCacheServiceMock is a lightweight mock for ports.OfflineCacheService.
type OfflineCacheServiceMock struct {
	InstallFn     func(ctx context.Context) (*offline.InstallReport, error)
	InterceptFn   func(ctx context.Context, req *http.Request) (*offline.Response, offline.Source, error)
	StatusValue   offline.Status
	KeysFn        func(ctx context.Context) ([]string, error)
	StoresFn      func(ctx context.Context) ([]string, error)
	DeleteStoreFn func(ctx context.Context, name string) error
}

func (m *OfflineCacheServiceMock) Install(ctx context.Context) (*offline.InstallReport, error) {
	if m.InstallFn != nil {
		return m.InstallFn(ctx)
	}
	return &offline.InstallReport{Store: m.StatusValue.Store}, nil
}
func (m *OfflineCacheServiceMock) Intercept(ctx context.Context, req *http.Request) (*offline.Response, offline.Source, error) {
	if m.InterceptFn != nil {
		return m.InterceptFn(ctx, req)
	}
	return nil, offline.SourceNetwork, fmt.Errorf("no response for %s", req.URL.Path)
}
func (m *OfflineCacheServiceMock) Status(ctx context.Context) offline.Status { return m.StatusValue }
func (m *OfflineCacheServiceMock) Keys(ctx context.Context) ([]string, error) {
	if m.KeysFn != nil {
		return m.KeysFn(ctx)
	}
	return nil, nil
}
func (m *OfflineCacheServiceMock) Stores(ctx context.Context) ([]string, error) {
	if m.StoresFn != nil {
		return m.StoresFn(ctx)
	}
	return nil, nil
}
func (m *OfflineCacheServiceMock) DeleteStore(ctx context.Context, name string) error {
	if m.DeleteStoreFn != nil {
		return m.DeleteStoreFn(ctx, name)
	}
	return nil
}

var (
	_ ports.Network             = (*NetworkMock)(nil)
	_ ports.ResponseStore       = (*ResponseStoreMock)(nil)
	_ ports.WidgetService       = (*WidgetServiceMock)(nil)
	_ ports.HealthChecker       = (*HealthCheckerMock)(nil)
	_ ports.OfflineCacheService = (*OfflineCacheServiceMock)(nil)
)

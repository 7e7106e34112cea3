package ports

import (
	"context"
	"net/http"

	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
)

// ResponseStore persists responses in named stores.
// Implementations must make Match and Put atomic per key and PutAll atomic per call.
type ResponseStore interface {
	// Match returns the response stored under key in store. ok=false if absent.
	Match(ctx context.Context, store, key string) (resp *offline.Response, ok bool, err error)
	// Put stores one response, overwriting any previous value.
	Put(ctx context.Context, store, key string, resp *offline.Response) error
	// PutAll stores every entry or none of them.
	PutAll(ctx context.Context, store string, entries []offline.Entry) error
	// Keys lists the keys held by store, sorted. An absent store has no keys.
	Keys(ctx context.Context, store string) ([]string, error)
	// Stores lists the names of all stores, sorted.
	Stores(ctx context.Context) ([]string, error)
	// DeleteStore removes a store and everything in it; absence is not an error.
	DeleteStore(ctx context.Context, store string) error
}

// Network performs the real request when the store cannot answer it.
type Network interface {
	// Fetch sends req and returns the full response. Transport failures are errors;
	// non-2xx statuses are not.
	Fetch(ctx context.Context, req *http.Request) (*offline.Response, error)
}

// OfflineCacheService installs the manifest and answers intercepted requests.
type OfflineCacheService interface {
	Install(ctx context.Context) (*offline.InstallReport, error)
	Intercept(ctx context.Context, req *http.Request) (*offline.Response, offline.Source, error)
	Status(ctx context.Context) offline.Status
	Keys(ctx context.Context) ([]string, error)
	Stores(ctx context.Context) ([]string, error)
	DeleteStore(ctx context.Context, name string) error
}

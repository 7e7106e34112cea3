package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
)

// ResponseMemoryRepository keeps named stores in process memory. Contents are
// lost on restart; it backs STORE_BACKEND=memory and the tests.
type ResponseMemoryRepository struct {
	mu     sync.RWMutex
	stores map[string]map[string]*offline.Response
}

func NewResponseMemoryRepository() *ResponseMemoryRepository {
	return &ResponseMemoryRepository{stores: make(map[string]map[string]*offline.Response)}
}

func (r *ResponseMemoryRepository) Match(ctx context.Context, store, key string) (*offline.Response, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resp, ok := r.stores[store][key]
	if !ok {
		return nil, false, nil
	}
	return resp.Clone(), true, nil
}

func (r *ResponseMemoryRepository) Put(ctx context.Context, store, key string, resp *offline.Response) error {
	return r.PutAll(ctx, store, []offline.Entry{{Key: key, Response: resp}})
}

func (r *ResponseMemoryRepository) PutAll(ctx context.Context, store string, entries []offline.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[store]
	if !ok {
		s = make(map[string]*offline.Response, len(entries))
		r.stores[store] = s
	}
	for _, e := range entries {
		s[e.Key] = e.Response.Clone()
	}
	return nil
}

func (r *ResponseMemoryRepository) Keys(ctx context.Context, store string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.stores[store]))
	for k := range r.stores[store] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *ResponseMemoryRepository) Stores(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for n := range r.stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (r *ResponseMemoryRepository) DeleteStore(ctx context.Context, store string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, store)
	return nil
}

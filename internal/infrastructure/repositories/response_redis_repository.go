package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
)

// ResponseRedisRepository keeps each named store in one Redis hash whose
// fields are request keys and whose values are JSON-encoded responses.
// A set lists the known store names.
type ResponseRedisRepository struct {
	r      redis.Cmdable
	prefix string
	logger *logrus.Logger
}

func NewResponseRedisRepository(r redis.Cmdable, prefix string, logger *logrus.Logger) *ResponseRedisRepository {
	if prefix == "" {
		prefix = "offline"
	}
	return &ResponseRedisRepository{r: r, prefix: prefix, logger: logger}
}

func (repo *ResponseRedisRepository) storeKey(store string) string {
	return repo.prefix + ":store:" + store
}

func (repo *ResponseRedisRepository) indexKey() string {
	return repo.prefix + ":stores"
}

func (repo *ResponseRedisRepository) Match(ctx context.Context, store, key string) (*offline.Response, bool, error) {
	raw, err := repo.r.HGet(ctx, repo.storeKey(store), key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached response: %w", err)
	}
	var resp offline.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		if repo.logger != nil {
			repo.logger.WithFields(logrus.Fields{"store": store, "key": key}).WithError(err).Warn("discarding undecodable cached response")
		}
		return nil, false, nil
	}
	return &resp, true, nil
}

func (repo *ResponseRedisRepository) Put(ctx context.Context, store, key string, resp *offline.Response) error {
	return repo.PutAll(ctx, store, []offline.Entry{{Key: key, Response: resp}})
}

// PutAll writes all entries in one MULTI/EXEC transaction.
func (repo *ResponseRedisRepository) PutAll(ctx context.Context, store string, entries []offline.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(entries)*2)
	for _, e := range entries {
		b, err := json.Marshal(e.Response)
		if err != nil {
			return fmt.Errorf("failed to encode response for %s: %w", e.Key, err)
		}
		values = append(values, e.Key, b)
	}
	pipe := repo.r.TxPipeline()
	pipe.HSet(ctx, repo.storeKey(store), values...)
	pipe.SAdd(ctx, repo.indexKey(), store)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store responses: %w", err)
	}
	return nil
}

func (repo *ResponseRedisRepository) Keys(ctx context.Context, store string) ([]string, error) {
	keys, err := repo.r.HKeys(ctx, repo.storeKey(store)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list store keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (repo *ResponseRedisRepository) Stores(ctx context.Context) ([]string, error) {
	names, err := repo.r.SMembers(ctx, repo.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (repo *ResponseRedisRepository) DeleteStore(ctx context.Context, store string) error {
	if strings.TrimSpace(store) == "" {
		return fmt.Errorf("store name is required")
	}
	pipe := repo.r.TxPipeline()
	pipe.Del(ctx, repo.storeKey(store))
	pipe.SRem(ctx, repo.indexKey(), store)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	return nil
}

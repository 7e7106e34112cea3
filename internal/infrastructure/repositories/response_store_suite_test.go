package repositories

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/zhguchie-tours/frontend/configs"
	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
	"github.com/zhguchie-tours/frontend/internal/core/ports"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/db"
)

// ResponseStoreSuite runs the same behaviour checks against every store backend.
// Redis and Postgres run only when TEST_REDIS_ADDR or TEST_DATABASE_DSN is set.
type ResponseStoreSuite struct {
	suite.Suite
	newStore func() ports.ResponseStore
	store    ports.ResponseStore
	names    []string
}

func (s *ResponseStoreSuite) SetupTest() {
	s.store = s.newStore()
	id := uuid.NewString()[:8]
	s.names = []string{"test-" + id + "-v1", "test-" + id + "-v2"}
}

func (s *ResponseStoreSuite) TearDownTest() {
	for _, n := range s.names {
		_ = s.store.DeleteStore(context.Background(), n)
	}
}

func (s *ResponseStoreSuite) response(body string) *offline.Response {
	return &offline.Response{
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": {"text/css"}},
		Body:     []byte(body),
		StoredAt: time.Now().UTC().Truncate(time.Millisecond),
		Digest:   offline.Digest([]byte(body)),
	}
}

func (s *ResponseStoreSuite) TestPutAllThenMatch() {
	ctx := context.Background()
	v1 := s.names[0]
	s.Require().NoError(s.store.PutAll(ctx, v1, []offline.Entry{
		{Key: "/css/style.css", Response: s.response("body{}")},
		{Key: "/", Response: s.response("index")},
	}))

	got, ok, err := s.store.Match(ctx, v1, "/css/style.css")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(http.StatusOK, got.Status)
	s.Equal("text/css", got.Header.Get("Content-Type"))
	s.Equal([]byte("body{}"), got.Body)
	s.Equal(offline.Digest([]byte("body{}")), got.Digest)

	keys, err := s.store.Keys(ctx, v1)
	s.Require().NoError(err)
	s.Equal([]string{"/", "/css/style.css"}, keys)
}

func (s *ResponseStoreSuite) TestMissAndAbsentStore() {
	ctx := context.Background()
	_, ok, err := s.store.Match(ctx, s.names[0], "/nothing")
	s.Require().NoError(err)
	s.False(ok)

	keys, err := s.store.Keys(ctx, s.names[0])
	s.Require().NoError(err)
	s.Empty(keys)
}

func (s *ResponseStoreSuite) TestPutOverwrites() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, s.names[0], "/", s.response("old")))
	s.Require().NoError(s.store.Put(ctx, s.names[0], "/", s.response("new")))

	got, ok, err := s.store.Match(ctx, s.names[0], "/")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal([]byte("new"), got.Body)
}

func (s *ResponseStoreSuite) TestStoresAreIsolatedAndDeletable() {
	ctx := context.Background()
	v1, v2 := s.names[0], s.names[1]
	s.Require().NoError(s.store.Put(ctx, v1, "/", s.response("one")))
	s.Require().NoError(s.store.Put(ctx, v2, "/", s.response("two")))

	names, err := s.store.Stores(ctx)
	s.Require().NoError(err)
	s.Subset(names, []string{v1, v2})

	s.Require().NoError(s.store.DeleteStore(ctx, v1))
	_, ok, err := s.store.Match(ctx, v1, "/")
	s.Require().NoError(err)
	s.False(ok)

	got, ok, err := s.store.Match(ctx, v2, "/")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal([]byte("two"), got.Body)

	names, err = s.store.Stores(ctx)
	s.Require().NoError(err)
	s.NotContains(names, v1)

	// Deleting again is not an error.
	s.NoError(s.store.DeleteStore(ctx, v1))
}

func TestResponseStoreSuite_Memory(t *testing.T) {
	suite.Run(t, &ResponseStoreSuite{newStore: func() ports.ResponseStore { return NewResponseMemoryRepository() }})
}

func TestResponseStoreSuite_Redis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	prefix := "offline-test-" + uuid.NewString()[:8]
	t.Cleanup(func() { _ = client.Del(context.Background(), prefix+":stores").Err() })

	suite.Run(t, &ResponseStoreSuite{newStore: func() ports.ResponseStore {
		return NewResponseRedisRepository(client, prefix, logrus.New())
	}})
}

func TestResponseStoreSuite_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	database, err := db.Open(&configs.DatabaseConfig{DSN: dsn, MigrationsPath: "../../../migrations"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := database.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	suite.Run(t, &ResponseStoreSuite{newStore: func() ports.ResponseStore {
		return NewResponseDBRepository(database, logrus.New())
	}})
}

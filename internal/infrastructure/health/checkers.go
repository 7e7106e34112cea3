package health

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/zhguchie-tours/frontend/internal/core/ports"
)

// pinger is anything with a Ping(ctx) error probe, e.g. *db.Database or *network.OriginFetcher.
type pinger interface {
	Ping(ctx context.Context) error
}

type pingChecker struct {
	name string
	p    pinger
}

func (c *pingChecker) Name() string                    { return c.name }
func (c *pingChecker) Check(ctx context.Context) error { return c.p.Ping(ctx) }

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client redis.Cmdable }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// NewDBHealthChecker creates a health checker for the Postgres store backend.
func NewDBHealthChecker(db pinger) ports.HealthChecker { return &pingChecker{name: "database", p: db} }

// NewOriginHealthChecker creates a health checker for the asset origin.
func NewOriginHealthChecker(origin pinger) ports.HealthChecker {
	return &pingChecker{name: "origin", p: origin}
}

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client redis.Cmdable) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

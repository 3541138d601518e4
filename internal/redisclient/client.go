package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client wraps a Redis client with OpenTelemetry tracing
type Client struct {
	cmdable redis.Cmdable
}

// NewClient creates a new traced Redis client for single Redis instance
func NewClient(client *redis.Client) *Client {
	return &Client{cmdable: client}
}

// NewClusterClient creates a new traced Redis client for Redis cluster
func NewClusterClient(client *redis.ClusterClient) *Client {
	return &Client{cmdable: client}
}

// startSpan opens a redis span and returns a finisher that records the
// command outcome. redis.Nil is a cache miss, not an error.
func startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs,
		attribute.String("redis.operation", operation),
		attribute.String("redis.client", "app-leads"),
	)
	ctx, span := otel.Tracer("redis").Start(ctx, "redis."+operation, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		if err != nil && !errors.Is(err, redis.Nil) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "success")
		}
		span.SetAttributes(attribute.Int64("redis.duration_ms", time.Since(start).Milliseconds()))
		span.End()
	}
}

// Get wraps Redis Get with tracing
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	ctx, finish := startSpan(ctx, "get", attribute.String("redis.key", key))
	cmd := c.cmdable.Get(ctx, key)
	finish(cmd.Err())
	return cmd
}

// Set wraps Redis Set with tracing
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	ctx, finish := startSpan(ctx, "set",
		attribute.String("redis.key", key),
		attribute.String("redis.expiration", expiration.String()),
	)
	cmd := c.cmdable.Set(ctx, key, value, expiration)
	finish(cmd.Err())
	return cmd
}

// Del wraps Redis Del with tracing
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	ctx, finish := startSpan(ctx, "del",
		attribute.StringSlice("redis.keys", keys),
		attribute.Int("redis.key_count", len(keys)),
	)
	cmd := c.cmdable.Del(ctx, keys...)
	finish(cmd.Err())
	return cmd
}

// Ping wraps Redis Ping with tracing
func (c *Client) Ping(ctx context.Context) *redis.StatusCmd {
	ctx, finish := startSpan(ctx, "ping")
	cmd := c.cmdable.Ping(ctx)
	finish(cmd.Err())
	return cmd
}

// HGetAll wraps Redis HGetAll with tracing
func (c *Client) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	ctx, finish := startSpan(ctx, "hgetall", attribute.String("redis.key", key))
	cmd := c.cmdable.HGetAll(ctx, key)
	finish(cmd.Err())
	return cmd
}

// RunScript runs a Lua script (EVALSHA with EVAL fallback) with tracing.
// Scripts give the callers atomic multi-step operations on a key.
func (c *Client) RunScript(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) *redis.Cmd {
	ctx, finish := startSpan(ctx, "eval",
		attribute.StringSlice("redis.keys", keys),
		attribute.String("redis.script", script.Hash()),
	)
	cmd := script.Run(ctx, c.cmdable, keys, args...)
	finish(cmd.Err())
	return cmd
}

// PoolStats returns connection pool statistics
func (c *Client) PoolStats() *redis.PoolStats {
	if singleClient, ok := c.cmdable.(*redis.Client); ok {
		return singleClient.PoolStats()
	}
	if clusterClient, ok := c.cmdable.(*redis.ClusterClient); ok {
		return clusterClient.PoolStats()
	}
	return &redis.PoolStats{}
}

// Close releases the underlying connections
func (c *Client) Close() error {
	if closer, ok := c.cmdable.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

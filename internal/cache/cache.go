// Package cache keeps the system prompt in Redis so the chat path avoids a
// store round trip on every request. The cache is optional: Redis errors are
// logged and treated as misses, and a nil *PromptCache is a valid no-op.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// PromptKey is the Redis key holding the cached system prompt.
const PromptKey = "ragchat:system_prompt"

// DefaultTTL applies when New is given a non-positive ttl.
const DefaultTTL = 5 * time.Minute

// PromptCache caches the system prompt text.
type PromptCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Open parses a redis:// URL, verifies the server responds and returns a cache.
func Open(ctx context.Context, url string, ttl time.Duration) (*PromptCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	opts.ContextTimeoutEnabled = true
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(client, ttl), nil
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration) *PromptCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PromptCache{client: client, ttl: ttl}
}

// Get returns the cached prompt. ok is false on a miss or any Redis error.
func (c *PromptCache) Get(ctx context.Context) (prompt string, ok bool) {
	if c == nil {
		return "", false
	}
	v, err := c.client.Get(ctx, PromptKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("prompt cache get failed")
		}
		return "", false
	}
	return v, true
}

// Set stores the prompt for the configured TTL.
func (c *PromptCache) Set(ctx context.Context, prompt string) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, PromptKey, prompt, c.ttl).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("prompt cache set failed")
	}
}

// Invalidate drops the cached prompt.
func (c *PromptCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, PromptKey).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("prompt cache invalidate failed")
	}
}

// Ping reports whether Redis is reachable.
func (c *PromptCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *PromptCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

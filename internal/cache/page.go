// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for rendered document pages.
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache keeps the rendered HTML of public document pages, keyed by
// slug, so repeat requests skip the database and the Markdown renderer.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves the cached page for slug.
func (pc *PageCache) Get(ctx context.Context, slug string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+slug).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "slug", slug, "error", err)
		return nil, false
	}
	return val, true
}

// Set stores a rendered page with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, slug string, html []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+slug, html, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "slug", slug, "error", err)
	}
}

// Invalidate removes the cached page for slug. Called whenever the
// document body changes or the document is deleted.
func (pc *PageCache) Invalidate(ctx context.Context, slug string) {
	if err := pc.client.Del(ctx, pageKeyPrefix+slug).Err(); err != nil {
		slog.Warn("page cache invalidate error", "slug", slug, "error", err)
		return
	}
	slog.Debug("page cache invalidated", "slug", slug)
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"inkwell/internal/richtext"
)

const (
	// convertKeyPrefix is the Valkey key prefix for cached conversions.
	convertKeyPrefix = "convert:"

	// DefaultConvertTTL is how long a conversion result stays cached.
	DefaultConvertTTL = 10 * time.Minute
)

// ConversionCache memoizes conversion results in Valkey, keyed by the
// conversion direction, the converter options and a hash of the input.
// Conversions are pure, so a hit is valid as long as the options match.
type ConversionCache struct {
	client *redis.Client
	ttl    time.Duration
	tag    string
}

// NewConversionCache creates a conversion cache backed by the given client
// for results produced with opts.
func NewConversionCache(client *redis.Client, ttl time.Duration, opts richtext.Options) *ConversionCache {
	if ttl == 0 {
		ttl = DefaultConvertTTL
	}
	return &ConversionCache{client: client, ttl: ttl, tag: OptionsTag(opts)}
}

// OptionsTag names a set of converter options inside a cache key,
// e.g. "escape" or "passthrough+aligned".
func OptionsTag(opts richtext.Options) string {
	tag := opts.RawHTML.String()
	if opts.AlignTables {
		tag += "+aligned"
	}
	return tag
}

// ConvertKey returns the cache key for converting input in direction with
// the options named by tag, e.g. "convert:markdown:escape:9f86d081884c7d65".
func ConvertKey(direction, tag, input string) string {
	return convertKeyPrefix + direction + ":" + tag + ":" + strconv.FormatUint(xxhash.Sum64String(input), 16)
}

// Get returns the cached result. Errors are logged and reported as a miss.
func (cc *ConversionCache) Get(ctx context.Context, direction, input string) (string, bool) {
	key := ConvertKey(direction, cc.tag, input)
	val, err := cc.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		slog.Warn("convert cache get error", "key", key, "error", err)
		return "", false
	}
	slog.Debug("convert cache hit", "key", key)
	return val, true
}

// Set stores a conversion result with the configured TTL.
func (cc *ConversionCache) Set(ctx context.Context, direction, input, output string) {
	key := ConvertKey(direction, cc.tag, input)
	if err := cc.client.Set(ctx, key, output, cc.ttl).Err(); err != nil {
		slog.Warn("convert cache set error", "key", key, "error", err)
	}
}

// Convert returns the cached result for input or computes it with fn and
// stores it.
func (cc *ConversionCache) Convert(ctx context.Context, direction, input string, fn func(string) string) string {
	if out, ok := cc.Get(ctx, direction, input); ok {
		return out
	}
	out := fn(input)
	cc.Set(ctx, direction, input, out)
	return out
}

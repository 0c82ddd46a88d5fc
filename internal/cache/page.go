// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go caches fully rendered invitation pages in Valkey. Keys are
// scoped by route kind and tenant so that saving one invoice only drops
// that invoice's pages, while a template save can drop everything.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute

	// scanBatch is the COUNT hint passed to SCAN during invalidation.
	scanBatch = 100
)

// Scope names the kind of route a cached page was rendered for.
type Scope string

const (
	ScopeInvitation Scope = "s"
	ScopePreview    Scope = "preview"
)

// PageKey builds the cache key for a tenant page rendered for one guest.
// The guest name is escaped so arbitrary input cannot spill into another
// tenant's key space.
func PageKey(scope Scope, tenant, guest string) string {
	return string(scope) + ":" + tenant + ":" + url.QueryEscape(strings.TrimSpace(guest))
}

// PageCache stores rendered invitation HTML in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache returns a cache using client. A non-positive ttl selects
// DefaultPageTTL.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get returns the cached HTML for key. Valkey errors count as a miss.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		slog.Warn("page cache read failed", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

// Set stores rendered HTML under key for the cache TTL.
func (pc *PageCache) Set(ctx context.Context, key string, html []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+key, html, pc.ttl).Err(); err != nil {
		slog.Warn("page cache write failed", "key", key, "error", err)
	}
}

// InvalidateTenant drops every guest variant of one tenant's page.
func (pc *PageCache) InvalidateTenant(ctx context.Context, scope Scope, tenant string) int {
	n := pc.unlinkMatching(ctx, pageKeyPrefix+string(scope)+":"+escapeGlob(tenant)+":*")
	slog.Debug("page cache tenant invalidated", "scope", scope, "tenant", tenant, "deleted", n)
	return n
}

// InvalidateAll drops every cached page.
func (pc *PageCache) InvalidateAll(ctx context.Context) int {
	n := pc.unlinkMatching(ctx, pageKeyPrefix+"*")
	slog.Info("page cache cleared", "deleted", n)
	return n
}

// unlinkMatching walks the keyspace with SCAN and unlinks matches in
// batches. It returns how many keys were removed before any error.
func (pc *PageCache) unlinkMatching(ctx context.Context, pattern string) int {
	var (
		deleted int
		batch   = make([]string, 0, scanBatch)
	)
	flush := func() bool {
		if len(batch) == 0 {
			return true
		}
		n, err := pc.client.Unlink(ctx, batch...).Result()
		deleted += int(n)
		batch = batch[:0]
		if err != nil {
			slog.Warn("page cache unlink failed", "pattern", pattern, "error", err)
			return false
		}
		return true
	}

	iter := pc.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		if batch = append(batch, iter.Val()); len(batch) == scanBatch && !flush() {
			return deleted
		}
	}
	if err := iter.Err(); err != nil {
		slog.Warn("page cache scan failed", "pattern", pattern, "error", err)
	}
	flush()
	return deleted
}

// escapeGlob quotes the characters SCAN MATCH treats as wildcards.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

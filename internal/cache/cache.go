// Package cache implements the short-lived per-user view cache on Redis.
// Entries are keyed by (user identity, view kind) and expire passively via
// TTL. A store outage degrades to "always miss"; it never fails a request.
package cache

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/codyssey/codyssey/internal/setup/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// ViewKind identifies one of the cached unified views.
type ViewKind int

const (
	KindStats ViewKind = iota
	KindProblems
	KindActivity
)

// ProblemTotalsKey is the shared cache entry for the global LeetCode problem
// totals. It is not scoped per user since the listing is identical for
// everyone.
const ProblemTotalsKey = "leetcode:problemTotals"

// Default TTLs in seconds, matching the view staleness bounds.
const (
	defaultStatsTTL         = 300
	defaultProblemsTTL      = 300
	defaultActivityTTL      = 600
	defaultProblemTotalsTTL = 3600
)

// Key prefixes per view kind.
var kindPrefixes = map[ViewKind]string{
	KindStats:    "userStats:",
	KindProblems: "practiceProblems:",
	KindActivity: "activityData:",
}

// ViewCache serves and populates serialized unified views.
type ViewCache struct {
	client rueidis.Client
	config *config.Cache
	logger *zap.Logger
}

// NewViewCache creates a view cache backed by the provided Redis client.
func NewViewCache(client rueidis.Client, config *config.Cache, logger *zap.Logger) *ViewCache {
	return &ViewCache{
		client: client,
		config: config,
		logger: logger.Named("view_cache"),
	}
}

// Get loads the cached view for the identity into out. Returns false on a
// miss; an expired entry, a store error or a corrupt payload all count as
// misses.
func (c *ViewCache) Get(ctx context.Context, kind ViewKind, identity string, out any) bool {
	return c.getKey(ctx, kindPrefixes[kind]+identity, out)
}

// Set stores the view for the identity with the kind's TTL. Store errors are
// logged and swallowed; the freshly computed view is still returned upstream.
func (c *ViewCache) Set(ctx context.Context, kind ViewKind, identity string, view any) {
	c.setKey(ctx, kindPrefixes[kind]+identity, view, c.ttl(kind))
}

// GetShared loads a non-user-scoped entry such as the problem totals.
func (c *ViewCache) GetShared(ctx context.Context, key string, out any) bool {
	return c.getKey(ctx, key, out)
}

// SetShared stores a non-user-scoped entry with an explicit TTL.
func (c *ViewCache) SetShared(ctx context.Context, key string, value any, ttl time.Duration) {
	c.setKey(ctx, key, value, ttl)
}

// InvalidateUser deletes all view kinds for the identity. The deletes are
// independent: one failure never blocks the others.
func (c *ViewCache) InvalidateUser(ctx context.Context, identity string) {
	for kind, prefix := range kindPrefixes {
		key := prefix + identity

		err := c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
		if err != nil {
			c.logger.Warn("Failed to invalidate cache entry",
				zap.String("key", key),
				zap.Int("kind", int(kind)),
				zap.Error(err))
			continue
		}

		c.logger.Debug("Invalidated cache entry", zap.String("key", key))
	}
}

func (c *ViewCache) getKey(ctx context.Context, key string, out any) bool {
	payload, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			c.logger.Warn("Cache read failed, treating as miss",
				zap.String("key", key),
				zap.Error(err))
		}

		return false
	}

	if err := sonic.Unmarshal(payload, out); err != nil {
		c.logger.Warn("Corrupt cache entry, treating as miss",
			zap.String("key", key),
			zap.Error(err))
		return false
	}

	return true
}

func (c *ViewCache) setKey(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := sonic.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to serialize view for caching",
			zap.String("key", key),
			zap.Error(err))
		return
	}

	cmd := c.client.B().Set().Key(key).Value(rueidis.BinaryString(payload)).
		ExSeconds(int64(ttl.Seconds())).Build()

	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Warn("Cache write failed, serving uncached view",
			zap.String("key", key),
			zap.Error(err))
	}
}

func (c *ViewCache) ttl(kind ViewKind) time.Duration {
	seconds := 0

	switch kind {
	case KindStats:
		seconds = c.config.StatsTTL
		if seconds <= 0 {
			seconds = defaultStatsTTL
		}
	case KindProblems:
		seconds = c.config.ProblemsTTL
		if seconds <= 0 {
			seconds = defaultProblemsTTL
		}
	case KindActivity:
		seconds = c.config.ActivityTTL
		if seconds <= 0 {
			seconds = defaultActivityTTL
		}
	}

	return time.Duration(seconds) * time.Second
}

// ProblemTotalsTTL resolves the configured TTL for the shared totals entry.
func (c *ViewCache) ProblemTotalsTTL() time.Duration {
	seconds := c.config.ProblemTotalsTTL
	if seconds <= 0 {
		seconds = defaultProblemTotalsTTL
	}

	return time.Duration(seconds) * time.Second
}

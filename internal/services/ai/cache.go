package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ganderhq/gander/internal/models"
)

const (
	// DefaultCacheTTL bounds how long a cached draft stays valid. The
	// prompt embeds the current date, so entries key on the date too
	// and a long TTL would only serve dead keys.
	DefaultCacheTTL = 24 * time.Hour

	draftCacheKeyPrefix = "gander:draft:"
)

// CachedProvider wraps a DraftProvider with a Redis response cache.
// Identical utterances asked on the same date in the same zone reuse
// the earlier draft instead of spending another model call.
type CachedProvider struct {
	inner  DraftProvider
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider wraps a provider with a cache. A zero ttl uses
// DefaultCacheTTL.
func NewCachedProvider(inner DraftProvider, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{inner: inner, client: client, ttl: ttl, logger: logger}
}

// DraftUtterance serves from cache when possible. Cache failures are
// logged and treated as misses; the model call is the fallback path.
func (c *CachedProvider) DraftUtterance(ctx context.Context, utterance string, now time.Time, zone string) (*models.DraftCommand, error) {
	key := draftCacheKey(utterance, now, zone)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var draft models.DraftCommand
		if jerr := json.Unmarshal(data, &draft); jerr == nil {
			if c.logger != nil {
				c.logger.Debug("draft_cache_hit", zap.String("key", key))
			}
			return &draft, nil
		}
		// A corrupt entry is dropped so the next call can repopulate.
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) && c.logger != nil {
		c.logger.Warn("draft_cache_read_failed", zap.String("key", key), zap.Error(err))
	}

	draft, err := c.inner.DraftUtterance(ctx, utterance, now, zone)
	if err != nil {
		return nil, err
	}

	if data, jerr := json.Marshal(draft); jerr == nil {
		if serr := c.client.Set(ctx, key, data, c.ttl).Err(); serr != nil && c.logger != nil {
			c.logger.Warn("draft_cache_write_failed", zap.String("key", key), zap.Error(serr))
		}
	}
	return draft, nil
}

// draftCacheKey hashes the utterance with the calendar date and zone.
// The date matters because relative phrases ("tomorrow") change
// meaning at midnight; the clock time within the day does not.
func draftCacheKey(utterance string, now time.Time, zone string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s", utterance, now.Format("2006-01-02"), zone))
	return draftCacheKeyPrefix + hex.EncodeToString(sum[:])
}

package characters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

const cacheKeyPrefix = "guild:character:"

// Cached wraps a Lookup with a Redis read-through cache. Cache failures are
// logged and fall through to the wrapped lookup; not-found results are not
// cached.
type Cached struct {
	next   Lookup
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(next Lookup, rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *Cached) Lookup(ctx context.Context, name, realm string) (*models.CharacterProfile, error) {
	key := cacheKey(name, realm)

	payload, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var profile models.CharacterProfile
		if err := json.Unmarshal(payload, &profile); err == nil {
			return &profile, nil
		}
		c.logger.Warn("discarding malformed cached profile", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("character cache read failed", zap.String("key", key), zap.Error(err))
	}

	profile, err := c.next.Lookup(ctx, name, realm)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("characters: encode profile: %w", err)
	}
	if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.logger.Warn("character cache write failed", zap.String("key", key), zap.Error(err))
	}

	return profile, nil
}

func cacheKey(name, realm string) string {
	return cacheKeyPrefix + slug(realm) + ":" + slug(name)
}

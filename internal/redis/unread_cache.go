package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"famshare/internal/services"
)

const (
	unreadKeyPrefix = "unread:"
	unreadTTL       = 10 * time.Minute
)

// redisUnreadCache is the Redis implementation of services.UnreadCache.
// Entries carry a TTL so a lost invalidation heals on its own; the periodic
// reconcile loop rewrites counts from the store anyway.
type redisUnreadCache struct {
	client *redis.Client
}

// NewRedisUnreadCache creates a new Redis-backed unread-count cache.
func NewRedisUnreadCache(client *redis.Client) services.UnreadCache {
	return &redisUnreadCache{client: client}
}

func unreadKey(conversationID, viewerID uuid.UUID) string {
	return unreadKeyPrefix + conversationID.String() + ":" + viewerID.String()
}

func (c *redisUnreadCache) Get(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, bool, error) {
	count, err := c.client.Get(ctx, unreadKey(conversationID, viewerID)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading unread count: %w", err)
	}
	return count, true, nil
}

func (c *redisUnreadCache) Set(ctx context.Context, conversationID, viewerID uuid.UUID, count int64) error {
	return c.client.Set(ctx, unreadKey(conversationID, viewerID), count, unreadTTL).Err()
}

func (c *redisUnreadCache) Incr(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	key := unreadKey(conversationID, viewerID)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, unreadTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisUnreadCache) Zero(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	return c.client.Set(ctx, unreadKey(conversationID, viewerID), 0, unreadTTL).Err()
}

func (c *redisUnreadCache) Invalidate(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	return c.client.Del(ctx, unreadKey(conversationID, viewerID)).Err()
}

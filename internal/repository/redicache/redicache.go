// Package redicache caches auth sessions in Redis. The cache is best
// effort: when Redis is unreachable the service keeps working and every
// lookup reports a miss.
package redicache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const sessionPrefix = "session:"

// Cache wraps a Redis client. A nil Cache or a Cache whose connection
// failed at startup is safe to use.
type Cache struct {
	client  *redis.Client
	enabled bool
}

// New connects to Redis. Connection failure is not fatal, the returned
// cache simply stays disabled.
func New(addr, password string) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, session cache disabled")
		return &Cache{client: client, enabled: false}
	}

	log.Info().Str("addr", addr).Msg("redis connected")
	return &Cache{client: client, enabled: true}
}

// Enabled reports whether the startup ping succeeded.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// SetSession stores sessionID -> userID with a TTL. Replacing a user's
// session elsewhere is the caller's job.
func (c *Cache) SetSession(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	key := sessionPrefix + sessionID
	if err := c.client.Set(ctx, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}
	return nil
}

// GetSession returns the user id for a session. The second return is
// false on a miss or when the cache is disabled.
func (c *Cache) GetSession(ctx context.Context, sessionID string) (int64, bool) {
	if !c.Enabled() {
		return 0, false
	}
	val, err := c.client.Get(ctx, sessionPrefix+sessionID).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		log.Warn().Err(err).Msg("session cache lookup failed")
		return 0, false
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return userID, true
}

// DeleteSession drops a session, used on logout.
func (c *Cache) DeleteSession(ctx context.Context, sessionID string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Del(ctx, sessionPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close shuts down the underlying client.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/roadready/roadready-backend/internal/config"
)

// SessionCache tracks each user's in-progress session id in Redis so the
// resume lookup normally skips a table scan. PostgreSQL stays the source of
// truth; every cache read is verified and misses self-heal.
type SessionCache struct {
	rdb *redis.Client
}

// NewSessionCache creates a new SessionCache. A nil client disables the
// cache entirely, which keeps the session service testable without Redis.
func NewSessionCache(rdb *redis.Client) *SessionCache {
	return &SessionCache{rdb: rdb}
}

// SetActive records sessionID as the user's active session.
func (c *SessionCache) SetActive(ctx context.Context, userID, sessionID uuid.UUID) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Set(ctx, config.CacheKey.UserActiveSessionKey(userID.String()), sessionID.String(), 0).Err()
}

// GetActive returns the cached active session id, or uuid.Nil on a miss.
func (c *SessionCache) GetActive(ctx context.Context, userID uuid.UUID) uuid.UUID {
	if c.rdb == nil {
		return uuid.Nil
	}
	val, err := c.rdb.Get(ctx, config.CacheKey.UserActiveSessionKey(userID.String())).Result()
	if err != nil {
		// redis.Nil is an ordinary miss; anything else degrades to the
		// database path as well.
		return uuid.Nil
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// ClearActive drops the cached active session for a user.
func (c *SessionCache) ClearActive(ctx context.Context, userID uuid.UUID) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, config.CacheKey.UserActiveSessionKey(userID.String())).Err()
}

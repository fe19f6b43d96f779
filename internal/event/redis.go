package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/roadready/roadready-backend/internal/config"
)

// RedisPublisher pushes events onto the domain-events Redis list, where the
// event worker drains them in batches.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Publish serializes the event and enqueues it.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.rdb.RPush(ctx, config.WorkerKey.DomainEventsQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clubevents/internal/model"
)

const (
	publicEventsKey = "events:public"
	defaultTTL      = 5 * time.Minute
)

// EventCache keeps the public event listing in Redis.
type EventCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewEventCache(rdb *redis.Client, ttl time.Duration) *EventCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &EventCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient connects to addr and pings it once.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// GetPublicEvents reports ok=false on a cache miss.
func (c *EventCache) GetPublicEvents(ctx context.Context) ([]model.EventDetails, bool, error) {
	raw, err := c.rdb.Get(ctx, publicEventsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read events cache: %w", err)
	}

	var events []model.EventDetails
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, false, fmt.Errorf("failed to decode events cache: %w", err)
	}
	return events, true, nil
}

func (c *EventCache) SetPublicEvents(ctx context.Context, events []model.EventDetails) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to encode events cache: %w", err)
	}
	if err := c.rdb.Set(ctx, publicEventsKey, string(payload), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write events cache: %w", err)
	}
	return nil
}

func (c *EventCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, publicEventsKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate events cache: %w", err)
	}
	return nil
}

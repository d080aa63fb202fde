// Package cache keeps short-lived availability snapshots in Redis so display
// pages do not re-aggregate bookings on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shivanand-hulikatti/workshop-booking/internal/model"
)

// AvailabilityCache stores per-event remaining counts under
// availability:<event id>.
type AvailabilityCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewAvailabilityCache constructs an AvailabilityCache. Entries expire after
// ttl even if no booking invalidates them.
func NewAvailabilityCache(rdb redis.Cmdable, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

// Key returns the Redis key for an event's snapshot.
func Key(eventID string) string {
	return "availability:" + eventID
}

// Get returns the cached snapshot and whether one was present.
func (c *AvailabilityCache) Get(ctx context.Context, eventID string) (model.Availability, bool, error) {
	raw, err := c.rdb.Get(ctx, Key(eventID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get availability: %w", err)
	}

	var a model.Availability
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, false, fmt.Errorf("decode availability: %w", err)
	}
	return a, true, nil
}

// Set stores a snapshot.
func (c *AvailabilityCache) Set(ctx context.Context, eventID string, a model.Availability) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(eventID), string(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot of an event.
func (c *AvailabilityCache) Invalidate(ctx context.Context, eventID string) error {
	if err := c.rdb.Del(ctx, Key(eventID)).Err(); err != nil {
		return fmt.Errorf("invalidate availability: %w", err)
	}
	return nil
}

package redisx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"orderdesk/internal/deadline"
	"orderdesk/internal/orders"
)

func statusKey(orderID string) string { return fmt.Sprintf(KeyOrderStatus, orderID) }

func dedupKey(service, id string) string { return fmt.Sprintf(KeyDedup, service, id) }

// CachedStatus is the slim order view other dashboard surfaces poll.
type CachedStatus struct {
	Status             orders.Status     `json:"status"`
	IsLocked           bool              `json:"is_locked"`
	Deadline           deadline.Captured `json:"deadline"`
	AccumulatedSeconds int64             `json:"accumulated_seconds"`
}

// StatusCache mirrors confirmed order state into Redis with a TTL, so reads
// do not have to hit the record backend or a live session.
type StatusCache struct {
	R *redis.Client
}

func (c *StatusCache) Put(ctx context.Context, o orders.Order) error {
	b, err := json.Marshal(CachedStatus{
		Status:             o.Status,
		IsLocked:           o.IsLocked,
		Deadline:           o.Deadline,
		AccumulatedSeconds: o.AccumulatedSeconds,
	})
	if err != nil {
		return err
	}
	return c.R.Set(ctx, statusKey(o.ID), b, TTLStatusCache).Err()
}

// Get returns the cached view, or ok=false on a miss.
func (c *StatusCache) Get(ctx context.Context, orderID string) (CachedStatus, bool, error) {
	s, err := c.R.Get(ctx, statusKey(orderID)).Result()
	if err == redis.Nil {
		return CachedStatus{}, false, nil
	}
	if err != nil {
		return CachedStatus{}, false, err
	}
	var out CachedStatus
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return CachedStatus{}, false, err
	}
	return out, true, nil
}

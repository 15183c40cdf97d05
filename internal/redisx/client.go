package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	_ = r.WithTimeout(2 * time.Second)
	return r
}

// MarkSeen records an id for dedup purposes. It returns true when the id was
// already present.
func MarkSeen(ctx context.Context, rdb *redis.Client, service, id string) (bool, error) {
	key := dedupKey(service, id)
	ok, err := rdb.SetNX(ctx, key, "1", TTLDedup).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

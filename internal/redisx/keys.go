package redisx

import "time"

const (
	// Confirmed order state mirror: order_status:{order_id} ->
	// {"status": "...", "is_locked": ..., "deadline": ..., "accumulated_seconds": ...}
	KeyOrderStatus = "order_status:%s"

	// Event dedup for consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

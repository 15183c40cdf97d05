package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventStatusChanged    = "OrderStatusChanged"
	EventDeadlineExtended = "OrderDeadlineExtended"
)

// Envelope wraps every lifecycle event published by the gateway.
type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g. "order-gateway"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID    string `json:"order_id"`
	ClientID   string `json:"client_id"`
	Quantity   int    `json:"quantity"`
	TotalPrice string `json:"total_price"`
	Deadline   string `json:"deadline"` // UTC instant, RFC3339
}

type StatusChangedPayload struct {
	OrderID            string `json:"order_id"`
	Action             Action `json:"action"`
	From               Status `json:"from"`
	To                 Status `json:"to"`
	AccumulatedSeconds int64  `json:"accumulated_seconds"`
}

type DeadlineExtendedPayload struct {
	OrderID     string `json:"order_id"`
	OldDeadline string `json:"old_deadline"` // UTC instant, RFC3339
	NewDeadline string `json:"new_deadline"`
}

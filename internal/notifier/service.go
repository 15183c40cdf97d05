// Package notifier turns lifecycle events into user-facing notifications.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "orderdesk/internal/kafka"
	"orderdesk/internal/orders"
	"orderdesk/internal/redisx"
	"orderdesk/internal/tracker"
)

type Service struct {
	Redis       *redis.Client
	Logger      *zap.SugaredLogger
	ServiceName string
}

// HandleEvent is the consumer handler for the lifecycle topic. Events are
// deduped by event id so a redelivered message never produces a second toast.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	seen, err := redisx.MarkSeen(ctx, s.Redis, s.ServiceName, env.EventID)
	if err != nil {
		s.Logger.Warnw("dedup check failed", "event_id", env.EventID, "error", err)
	}
	if seen {
		return nil
	}

	switch env.EventType {
	case orders.EventStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.Logger.Infow("notification",
			"order_id", p.OrderID,
			"message", fmt.Sprintf("order moved from %q to %q (time spent %s)",
				p.From, p.To, tracker.Format(p.AccumulatedSeconds)),
		)
	case orders.EventDeadlineExtended:
		p, err := kafkax.UnwrapPayload[orders.DeadlineExtendedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.Logger.Infow("notification",
			"order_id", p.OrderID,
			"message", fmt.Sprintf("deadline extended to %s", p.NewDeadline),
		)
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.Logger.Infow("notification",
			"order_id", p.OrderID,
			"message", fmt.Sprintf("new order for client %s, due %s", p.ClientID, p.Deadline),
		)
	}
	return nil
}

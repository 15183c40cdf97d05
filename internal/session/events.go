package session

import (
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"orderdesk/internal/kafka"
	"orderdesk/internal/orders"
)

// publishStatusChanged emits the lifecycle event for a confirmed transition.
// Callers hold s.mu.
func (s *Session) publishStatusChanged(action orders.Action, from, to orders.Status) {
	if s.pub == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.producer,
		CorrelationID: s.order.ID,
		Payload: kafka.MustMarshal(orders.StatusChangedPayload{
			OrderID:            s.order.ID,
			Action:             action,
			From:               from,
			To:                 to,
			AccumulatedSeconds: s.order.AccumulatedSeconds,
		}),
	}
	s.pub.Publish(orders.PartitionKey(s.order.ID), kafka.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// publishDeadlineExtended emits the lifecycle event for a confirmed deadline
// extension. Callers hold s.mu.
func (s *Session) publishDeadlineExtended(oldInstant, newInstant string) {
	if s.pub == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventDeadlineExtended,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.producer,
		CorrelationID: s.order.ID,
		Payload: kafka.MustMarshal(orders.DeadlineExtendedPayload{
			OrderID:     s.order.ID,
			OldDeadline: oldInstant,
			NewDeadline: newInstant,
		}),
	}
	s.pub.Publish(orders.PartitionKey(s.order.ID), kafka.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventDeadlineExtended)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

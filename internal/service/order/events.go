package order

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/messaging"
)

// Event types published on the orders topic.
const (
	EventCreated       = "service_order.created"
	EventUpdated       = "service_order.updated"
	EventStatusChanged = "service_order.status_changed"
)

// Event is the payload published for every order lifecycle change.
type Event struct {
	Type           string             `json:"type"`
	OrderID        string             `json:"orderId"`
	Number         int                `json:"numero"`
	Year           int                `json:"ano"`
	Status         entity.OrderStatus `json:"status"`
	PreviousStatus entity.OrderStatus `json:"statusAnterior,omitempty"`
	Total          string             `json:"valorTotal"`
	OccurredAt     time.Time          `json:"occurredAt"`
}

func newEvent(kind string, order *entity.Order, at time.Time) Event {
	return Event{
		Type:       kind,
		OrderID:    order.ID,
		Number:     order.Number,
		Year:       order.Year,
		Status:     order.Status,
		Total:      order.Total.StringFixed(2),
		OccurredAt: at,
	}
}

// publish is best effort; a failed publish never fails the write that caused it.
func (s *Service) publish(ctx context.Context, event Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	msg := messaging.Message{
		Key:     []byte(event.OrderID),
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEventType: event.Type},
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("publish order event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.String("topic", s.messaging.topic),
			zap.Error(err),
		)
	}
}

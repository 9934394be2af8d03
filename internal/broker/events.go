package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"

	"restaurant-service/internal/models"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func tableKey(tableID string) string {
	return fmt.Sprintf("table-%s", tableID)
}

// PublishTableStatusChanged publishes TableStatusChanged event
func (ep *EventPublisher) PublishTableStatusChanged(ctx context.Context, event *models.TableStatusChangedEvent) error {
	return ep.producer.PublishEvent(ctx, tableKey(event.TableID), event)
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, tableKey(event.TableID), event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return ep.producer.PublishEvent(ctx, tableKey(event.TableID), event)
}

// PublishReservationCreated publishes ReservationCreated event
func (ep *EventPublisher) PublishReservationCreated(ctx context.Context, event *models.ReservationCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, tableKey(event.TableID), event)
}

// PublishReservationDeleted publishes ReservationDeleted event
func (ep *EventPublisher) PublishReservationDeleted(ctx context.Context, event *models.ReservationDeletedEvent) error {
	return ep.producer.PublishEvent(ctx, tableKey(event.TableID), event)
}

// PublishBillSettled publishes BillSettled event
func (ep *EventPublisher) PublishBillSettled(ctx context.Context, event *models.BillSettledEvent) error {
	return ep.producer.PublishEvent(ctx, tableKey(event.TableID), event)
}

// EventHandler routes incoming events to registered callbacks.
type EventHandler struct {
	onAnyEvent func(context.Context, *models.BaseEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnAnyEvent registers a handler invoked for every recognized event.
func (eh *EventHandler) OnAnyEvent(handler func(context.Context, *models.BaseEvent) error) {
	eh.onAnyEvent = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeTableStatusChanged,
		models.EventTypeOrderCreated,
		models.EventTypeOrderStatusChanged,
		models.EventTypeReservationCreated,
		models.EventTypeReservationDeleted,
		models.EventTypeBillSettled:
		if eh.onAnyEvent != nil {
			return eh.onAnyEvent(ctx, &baseEvent)
		}
	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}

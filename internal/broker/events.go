package broker

import (
	"context"
	"fmt"

	"happy-store/internal/models"
)

// EventPublisher handles publishing domain events. A nil publisher is valid
// and drops everything, so event publishing stays optional.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderEvent publishes order lifecycle events
func (ep *EventPublisher) PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	if ep == nil {
		return nil
	}
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishTransactionEvent publishes treasury transaction events
func (ep *EventPublisher) PublishTransactionEvent(ctx context.Context, event *models.TransactionEvent) error {
	if ep == nil {
		return nil
	}
	return ep.producer.PublishEvent(ctx, event.TransactionID, event)
}

// PublishFactoryOrderEvent publishes factory order events
func (ep *EventPublisher) PublishFactoryOrderEvent(ctx context.Context, event *models.FactoryOrderEvent) error {
	if ep == nil {
		return nil
	}
	return ep.producer.PublishEvent(ctx, event.FactoryOrderID, event)
}

// PublishSyncStateEvent publishes connection status transitions
func (ep *EventPublisher) PublishSyncStateEvent(ctx context.Context, event *models.SyncStateEvent) error {
	if ep == nil {
		return nil
	}
	return ep.producer.PublishEvent(ctx, "sync-state", event)
}

// PublishImportEvent publishes backup import notifications
func (ep *EventPublisher) PublishImportEvent(ctx context.Context, event *models.ImportEvent) error {
	if ep == nil {
		return nil
	}
	return ep.producer.PublishEvent(ctx, "import", event)
}

// PublishBase publishes an event carrying only the base fields
func (ep *EventPublisher) PublishBase(ctx context.Context, key string, event *models.BaseEvent) error {
	if ep == nil {
		return nil
	}
	return ep.producer.PublishEvent(ctx, key, event)
}

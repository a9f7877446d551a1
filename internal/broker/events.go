package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"reservation-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishNotificationRequested publishes a NotificationRequested event,
// keyed by recipient so one user's mailbox writes stay ordered
func (ep *EventPublisher) PublishNotificationRequested(ctx context.Context, event *models.NotificationRequestedEvent) error {
	key := fmt.Sprintf("user-%d", event.UserID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onNotificationRequested func(context.Context, *models.NotificationRequestedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnNotificationRequested registers a handler for NotificationRequested events
func (eh *EventHandler) OnNotificationRequested(handler func(context.Context, *models.NotificationRequestedEvent) error) {
	eh.onNotificationRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeNotificationRequested:
		if eh.onNotificationRequested != nil {
			var event models.NotificationRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal NotificationRequested event: %w", err)
			}
			return eh.onNotificationRequested(ctx, &event)
		}
	}

	return nil
}

package worker

import (
	"context"
	"log"

	"reservation-service/internal/broker"
	"reservation-service/internal/models"
	"reservation-service/internal/util"

	"go.uber.org/zap"
)

// MailboxStore is the persistence surface the worker needs
type MailboxStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// NotificationWorker consumes NotificationRequested events and persists
// mailbox rows. Kafka gives at-least-once delivery; the processed_events
// dedupe keeps redeliveries from producing duplicate mailbox entries.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        MailboxStore
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, store MailboxStore) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		store:    store,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnNotificationRequested(w.handleNotificationRequested)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleNotificationRequested(ctx context.Context, event *models.NotificationRequestedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		w.logger.Info("Notification event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	notification := &models.Notification{
		UserID:  event.UserID,
		Type:    event.Type,
		Title:   event.Title,
		Message: event.Message,
	}
	if err := w.store.CreateNotification(ctx, notification); err != nil {
		return err
	}

	util.NotificationsDeliveredTotal.Inc()

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark notification event processed",
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}

	w.logger.Info("Notification delivered",
		zap.Int64("user_id", event.UserID),
		zap.String("type", event.Type))
	return nil
}

package service

import (
	"context"
	"time"

	"reservation-service/internal/broker"
	"reservation-service/internal/models"
	"reservation-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier enqueues a notification for delivery to a user's mailbox.
// Delivery is at-least-once; an Enqueue error must never abort the
// transition that triggered it.
type Notifier interface {
	Enqueue(ctx context.Context, userID int64, ntype, title, message string) error
}

// MailboxWriter is the direct-write fallback used when the broker is down
type MailboxWriter interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// KafkaNotifier publishes NotificationRequested events; the notification
// worker turns them into mailbox rows
type KafkaNotifier struct {
	publisher *broker.EventPublisher
	fallback  MailboxWriter
	logger    *zap.Logger
}

// NewKafkaNotifier creates a new Kafka-backed notifier
func NewKafkaNotifier(publisher *broker.EventPublisher, fallback MailboxWriter) *KafkaNotifier {
	return &KafkaNotifier{
		publisher: publisher,
		fallback:  fallback,
		logger:    util.GetLogger(),
	}
}

// Enqueue publishes the notification event, falling back to a synchronous
// mailbox insert if the broker is unreachable
func (n *KafkaNotifier) Enqueue(ctx context.Context, userID int64, ntype, title, message string) error {
	event := &models.NotificationRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeNotificationRequested,
			Timestamp: time.Now(),
		},
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
	}

	if err := n.publisher.PublishNotificationRequested(ctx, event); err != nil {
		n.logger.Warn("Failed to publish notification event, writing mailbox directly",
			zap.Int64("user_id", userID),
			zap.String("type", ntype),
			zap.Error(err))

		if err := n.fallback.CreateNotification(ctx, &models.Notification{
			UserID:  userID,
			Type:    ntype,
			Title:   title,
			Message: message,
		}); err != nil {
			util.NotificationsFailedTotal.Inc()
			return err
		}
	}

	util.NotificationsEnqueuedTotal.Inc()
	return nil
}

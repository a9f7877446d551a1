package worker

import (
	"context"
	"testing"
	"time"

	"reservation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailboxStore struct {
	processed     map[string]bool
	notifications []models.Notification
}

func newFakeMailboxStore() *fakeMailboxStore {
	return &fakeMailboxStore{processed: make(map[string]bool)}
}

func (f *fakeMailboxStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakeMailboxStore) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	f.processed[eventID] = true
	return nil
}

func (f *fakeMailboxStore) CreateNotification(_ context.Context, n *models.Notification) error {
	f.notifications = append(f.notifications, *n)
	return nil
}

func newEvent(id string) *models.NotificationRequestedEvent {
	return &models.NotificationRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   id,
			EventType: models.EventTypeNotificationRequested,
			Timestamp: time.Now(),
		},
		UserID:  42,
		Type:    models.NotificationTypeReservationAccepted,
		Title:   "Reservation accepted",
		Message: "Please pick it up within 30 minutes.",
	}
}

func TestHandleNotificationRequestedWritesMailbox(t *testing.T) {
	st := newFakeMailboxStore()
	w := NewNotificationWorker(nil, st)

	err := w.handleNotificationRequested(context.Background(), newEvent("evt-1"))
	require.NoError(t, err)

	require.Len(t, st.notifications, 1)
	n := st.notifications[0]
	assert.Equal(t, int64(42), n.UserID)
	assert.Equal(t, models.NotificationTypeReservationAccepted, n.Type)
	assert.False(t, n.IsRead)
	assert.True(t, st.processed["evt-1"])
}

func TestHandleNotificationRequestedDeduplicatesRedelivery(t *testing.T) {
	st := newFakeMailboxStore()
	w := NewNotificationWorker(nil, st)

	event := newEvent("evt-2")
	require.NoError(t, w.handleNotificationRequested(context.Background(), event))
	require.NoError(t, w.handleNotificationRequested(context.Background(), event))

	assert.Len(t, st.notifications, 1)
}

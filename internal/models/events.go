package models

import "time"

// Event types
const (
	EventTypeNotificationRequested = "NOTIFICATION_REQUESTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationRequestedEvent is published by the engine and the sweeper
// whenever a transition (or phone annotation) must reach a user's
// mailbox. The notification worker consumes it and persists the row.
type NotificationRequestedEvent struct {
	BaseEvent
	UserID  int64  `json:"user_id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

package store

import (
	"context"

	"reservation-service/internal/models"
)

// CreateNotification persists a mailbox entry for a user
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at`

	return s.db.GetContext(ctx, n, query, n.UserID, n.Type, n.Title, n.Message)
}

// ListNotificationsByUser retrieves a user's mailbox, newest first
func (s *Store) ListNotificationsByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	var ns []models.Notification
	err := s.db.SelectContext(ctx, &ns,
		"SELECT * FROM notifications WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return ns, err
}

// MarkNotificationRead marks one of the user's notifications as read.
// Returns false if the notification does not exist or belongs to someone
// else.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2",
		id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

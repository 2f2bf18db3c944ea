package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
)

// NotificationsAdapter implements storage.NotificationStore for
// PostgreSQL. It shares the events adapter's connection pool.
type NotificationsAdapter struct {
	db *sql.DB
}

// NewNotificationsAdapter creates a notifications adapter over an
// existing database handle (typically Adapter.DB()).
func NewNotificationsAdapter(db *sql.DB) *NotificationsAdapter {
	return &NotificationsAdapter{db: db}
}

// SaveNotification persists a notification-center entry.
func (a *NotificationsAdapter) SaveNotification(ctx context.Context, n *v1.Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("invalid notification: %w", err)
	}

	metadataJSON, err := marshalNotificationMetadata(n)
	if err != nil {
		return err
	}

	_, err = a.db.ExecContext(ctx, queryInsertNotification,
		n.ID,
		n.EventID,
		n.OwnerID,
		n.Title,
		n.Message,
		metadataJSON,
		n.FiredAt,
		n.Read,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	slog.Debug("[Postgres] Saved notification",
		"owner_id", n.OwnerID,
		"notification_id", n.ID,
		"event_id", n.EventID)
	return nil
}

// ListNotifications fetches an owner's entries, newest first.
func (a *NotificationsAdapter) ListNotifications(ctx context.Context, ownerID string) ([]*v1.Notification, error) {
	rows, err := a.db.QueryContext(ctx, queryListNotifications, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*v1.Notification
	for rows.Next() {
		n, err := scanNotificationRow(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead flips one entry's read flag, scoped to its owner.
func (a *NotificationsAdapter) MarkRead(ctx context.Context, ownerID, id string) error {
	res, err := a.db.ExecContext(ctx, queryMarkNotificationRead, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return requireRowAffected(res)
}

// MarkAllRead flips every unread entry for an owner. Zero affected rows
// is not an error here: "nothing unread" is a valid state.
func (a *NotificationsAdapter) MarkAllRead(ctx context.Context, ownerID string) error {
	if _, err := a.db.ExecContext(ctx, queryMarkAllNotificationsRead, ownerID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

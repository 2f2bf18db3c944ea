package storage

import (
	"context"
	"errors"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
)

// ErrNotFound is returned when a record does not exist or belongs to a
// different owner. The two cases are deliberately indistinguishable so the
// API never leaks another tenant's IDs.
var ErrNotFound = errors.New("record not found")

// EventStore defines the interface for the persisted event collection.
// The scheduling engine consumes it read-mostly: it lists an owner's
// events each tick and flips Notified, nothing else. CRUD flows own the
// business fields.
type EventStore interface {
	// ListEvents returns all events belonging to ownerID.
	ListEvents(ctx context.Context, ownerID string) ([]*v1.Event, error)

	// GetEvent returns one event scoped to its owner.
	GetEvent(ctx context.Context, ownerID, id string) (*v1.Event, error)

	CreateEvent(ctx context.Context, event *v1.Event) error

	// UpdateEvent applies a partial update and returns the stored result.
	// A patch that changes StartTime resets Notified to false so the
	// event can fire again for its new time.
	UpdateEvent(ctx context.Context, ownerID, id string, patch v1.EventPatch) (*v1.Event, error)

	DeleteEvent(ctx context.Context, ownerID, id string) error

	// MarkNotified flips the event's notified flag to true. Not owner
	// scoped: the engine calls it with IDs it just listed.
	MarkNotified(ctx context.Context, id string) error
}

// NotificationStore persists notification-center entries.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n *v1.Notification) error

	// ListNotifications returns an owner's entries, newest first.
	ListNotifications(ctx context.Context, ownerID string) ([]*v1.Notification, error)

	MarkRead(ctx context.Context, ownerID, id string) error
	MarkAllRead(ctx context.Context, ownerID string) error
}

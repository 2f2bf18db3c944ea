package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
	"github.com/kesher-crm/kesher/internal/core/storage"
	"github.com/kesher-crm/kesher/internal/engine"
)

// Center persists dispatcher entries into the notification-center store.
type Center struct {
	store storage.NotificationStore
	now   func() time.Time
}

// NewCenter creates the notification-center channel.
func NewCenter(store storage.NotificationStore) *Center {
	return &Center{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Record persists one notification-center entry.
func (c *Center) Record(ctx context.Context, entry engine.CenterEntry) error {
	n := &v1.Notification{
		ID:       uuid.NewString(),
		EventID:  entry.EventID,
		OwnerID:  entry.OwnerID,
		Title:    entry.Title,
		Message:  entry.Message,
		Metadata: entry.Metadata,
		FiredAt:  c.now(),
	}
	if err := c.store.SaveNotification(ctx, n); err != nil {
		return fmt.Errorf("recording notification for event %s: %w", entry.EventID, err)
	}
	return nil
}

// Package notifications exposes the notification-center read side and the
// toast feed over HTTP. Writes happen on the engine side; this package only
// lists, drains, and flips read flags.
package notifications

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
	httperr "github.com/kesher-crm/kesher/internal/core/errors"
	"github.com/kesher-crm/kesher/internal/core/storage"
	"github.com/kesher-crm/kesher/internal/notify"
	"github.com/kesher-crm/kesher/internal/session"
)

const (
	msgNotificationNotFound = "Notification not found"
	msgStoreFailed          = "Failed to access notification store"
)

type Service struct {
	store storage.NotificationStore
	feed  *notify.Feed
}

func NewService(store storage.NotificationStore, feed *notify.Feed) *Service {
	if store == nil {
		panic("notifications: store must not be nil")
	}
	if feed == nil {
		panic("notifications: feed must not be nil")
	}
	return &Service{store: store, feed: feed}
}

// RegisterRoutes registers the notification routes. All of them run behind
// the session middleware.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/notifications", s.HandleList)
	r.POST("/v1/notifications/:id/read", s.HandleMarkRead)
	r.POST("/v1/notifications/read-all", s.HandleMarkAllRead)
	r.GET("/v1/toasts", s.HandleDrainToasts)
}

// HandleList handles GET /v1/notifications, newest first.
func (s *Service) HandleList(c *gin.Context) {
	entries, err := s.store.ListNotifications(c.Request.Context(), session.OwnerID(c))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if entries == nil {
		entries = []*v1.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": entries})
}

// HandleMarkRead handles POST /v1/notifications/:id/read.
func (s *Service) HandleMarkRead(c *gin.Context) {
	if err := s.store.MarkRead(c.Request.Context(), session.OwnerID(c), c.Param("id")); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleMarkAllRead handles POST /v1/notifications/read-all. Marking an
// empty center read is not an error.
func (s *Service) HandleMarkAllRead(c *gin.Context) {
	if err := s.store.MarkAllRead(c.Request.Context(), session.OwnerID(c)); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleDrainToasts handles GET /v1/toasts. Draining is destructive: each
// queued toast is delivered to exactly one poll, so the UI can render it
// once and let it expire client-side.
func (s *Service) HandleDrainToasts(c *gin.Context) {
	toasts := s.feed.Drain(session.OwnerID(c))
	if toasts == nil {
		toasts = []notify.Toast{}
	}
	c.JSON(http.StatusOK, gin.H{"toasts": toasts})
}

func writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   msgNotificationNotFound,
		})
		return
	}
	slog.Error("Notification store operation failed", "error", err)
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   msgStoreFailed,
	})
}

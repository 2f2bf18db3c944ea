package events

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
	"github.com/kesher-crm/kesher/internal/core/clock"
	httperr "github.com/kesher-crm/kesher/internal/core/errors"
	"github.com/kesher-crm/kesher/internal/core/storage"
	"github.com/kesher-crm/kesher/internal/session"
)

const (
	msgInvalidJSON   = "Invalid JSON body"
	msgEventNotFound = "Event not found"
	msgStoreFailed   = "Failed to access event store"
)

// eventView is the outbound event shape. It carries the stored event plus
// the display-local date and time strings the UI renders directly.
type eventView struct {
	*v1.Event
	StartDate      string `json:"start_date"`
	StartTimeLocal string `json:"start_time_local"`
}

func newEventView(evt *v1.Event) eventView {
	dateStr, timeStr := clock.ToDisplayLocal(evt.StartTime)
	return eventView{Event: evt, StartDate: dateStr, StartTimeLocal: timeStr}
}

func newEventViews(events []*v1.Event) []eventView {
	views := make([]eventView, 0, len(events))
	for _, evt := range events {
		views = append(views, newEventView(evt))
	}
	return views
}

// RegisterRoutes registers the event CRUD routes. All of them run behind
// the session middleware, so the owner is always resolved.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/events", s.HandleList)
	r.POST("/v1/events", s.HandleCreate)
	r.GET("/v1/events/overdue", s.HandleOverdue)
	r.GET("/v1/events/:id", s.HandleGet)
	r.PUT("/v1/events/:id", s.HandleUpdate)
	r.DELETE("/v1/events/:id", s.HandleDelete)
	r.POST("/v1/events/:id/notified", s.HandleMarkNotified)
}

// HandleCreate handles POST /v1/events.
func (s *Service) HandleCreate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   msgInvalidJSON,
			Details:   err.Error(),
		})
		return
	}

	evt, err := s.create(c.Request.Context(), session.OwnerID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	slog.Info("Event created",
		"event_id", evt.ID,
		"owner_id", evt.OwnerID,
		"kind", evt.Kind,
		"start_time", evt.StartTime)

	c.JSON(http.StatusCreated, newEventView(evt))
}

// HandleList handles GET /v1/events.
func (s *Service) HandleList(c *gin.Context) {
	events, err := s.store.ListEvents(c.Request.Context(), session.OwnerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": newEventViews(events)})
}

// HandleOverdue handles GET /v1/events/overdue. It returns the events
// whose notification window elapsed without a notification being shown,
// for the UI's missed-reminders panel.
func (s *Service) HandleOverdue(c *gin.Context) {
	missed, err := s.overdue(c.Request.Context(), session.OwnerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": newEventViews(missed)})
}

// HandleGet handles GET /v1/events/:id.
func (s *Service) HandleGet(c *gin.Context) {
	evt, err := s.store.GetEvent(c.Request.Context(), session.OwnerID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newEventView(evt))
}

// HandleUpdate handles PUT /v1/events/:id.
func (s *Service) HandleUpdate(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   msgInvalidJSON,
			Details:   err.Error(),
		})
		return
	}

	evt, err := s.update(c.Request.Context(), session.OwnerID(c), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	slog.Info("Event updated", "event_id", evt.ID, "owner_id", evt.OwnerID)
	c.JSON(http.StatusOK, newEventView(evt))
}

// HandleDelete handles DELETE /v1/events/:id.
func (s *Service) HandleDelete(c *gin.Context) {
	if err := s.store.DeleteEvent(c.Request.Context(), session.OwnerID(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleMarkNotified handles POST /v1/events/:id/notified. The UI calls
// it when the user acknowledges an overdue event without waiting for the
// engine to fire.
func (s *Service) HandleMarkNotified(c *gin.Context) {
	if err := s.markNotified(c.Request.Context(), session.OwnerID(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeServiceError maps service-layer errors to the JSON error shape.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidRequest):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   err.Error(),
		})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   msgEventNotFound,
		})
	default:
		slog.Error("Event store operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   msgStoreFailed,
		})
	}
}

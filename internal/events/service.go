package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
	"github.com/kesher-crm/kesher/internal/core/clock"
	"github.com/kesher-crm/kesher/internal/core/storage"
	"github.com/kesher-crm/kesher/internal/engine"
)

// errInvalidRequest marks validation errors that should return HTTP 400.
var errInvalidRequest = errors.New("invalid event request")

// Service implements the owner-scoped event CRUD layer on top of the
// event store. Start times arrive as separate date and time form strings
// and are combined into stored instants; no timezone math happens here.
type Service struct {
	store         storage.EventStore
	lateTolerance time.Duration
	nowFn         func() time.Time
}

func NewService(store storage.EventStore, lateTolerance time.Duration) *Service {
	if store == nil {
		panic("events: store must not be nil")
	}
	return &Service{
		store:         store,
		lateTolerance: lateTolerance,
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}

// createRequest is the inbound shape for new events. The start instant is
// entered as a date string plus a time-of-day string, matching the form
// the UI collects.
type createRequest struct {
	Kind                 v1.Kind `json:"kind" binding:"required"`
	SubjectLabel         string  `json:"subject_label" binding:"required"`
	Description          string  `json:"description"`
	StartDate            string  `json:"start_date" binding:"required"`
	StartTime            string  `json:"start_time"`
	AdvanceNoticeMinutes int     `json:"advance_notice_minutes"`
}

type updateRequest struct {
	Kind                 *v1.Kind `json:"kind"`
	SubjectLabel         *string  `json:"subject_label"`
	Description          *string  `json:"description"`
	StartDate            *string  `json:"start_date"`
	StartTime            *string  `json:"start_time"`
	AdvanceNoticeMinutes *int     `json:"advance_notice_minutes"`
	IsActive             *bool    `json:"is_active"`
}

func (s *Service) create(ctx context.Context, ownerID string, req createRequest) (*v1.Event, error) {
	evt := &v1.Event{
		ID:                   uuid.NewString(),
		OwnerID:              ownerID,
		Kind:                 req.Kind,
		SubjectLabel:         req.SubjectLabel,
		Description:          req.Description,
		StartTime:            clock.ToStoredInstant(req.StartDate, req.StartTime),
		AdvanceNoticeMinutes: req.AdvanceNoticeMinutes,
		IsActive:             true,
	}
	if err := evt.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", errInvalidRequest, err)
	}
	if err := s.store.CreateEvent(ctx, evt); err != nil {
		return nil, err
	}
	return evt, nil
}

func (s *Service) update(ctx context.Context, ownerID, id string, req updateRequest) (*v1.Event, error) {
	patch := v1.EventPatch{
		Kind:                 req.Kind,
		SubjectLabel:         req.SubjectLabel,
		Description:          req.Description,
		AdvanceNoticeMinutes: req.AdvanceNoticeMinutes,
		IsActive:             req.IsActive,
	}

	// A new start date recomputes the instant; a time-of-day change alone
	// keeps the stored date and only moves the clock.
	if req.StartDate != nil {
		timeStr := ""
		if req.StartTime != nil {
			timeStr = *req.StartTime
		}
		instant := clock.ToStoredInstant(*req.StartDate, timeStr)
		patch.StartTime = &instant
	} else if req.StartTime != nil {
		current, err := s.store.GetEvent(ctx, ownerID, id)
		if err != nil {
			return nil, err
		}
		stored := current.StartTime.UTC()
		instant := clock.ToStoredInstant(stored.Format("2006-01-02"), *req.StartTime)
		patch.StartTime = &instant
	}

	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", errInvalidRequest, err)
	}
	return s.store.UpdateEvent(ctx, ownerID, id, patch)
}

// overdue returns the owner's events whose notification window has fully
// elapsed without a notification being shown.
func (s *Service) overdue(ctx context.Context, ownerID string) ([]*v1.Event, error) {
	all, err := s.store.ListEvents(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return engine.Missed(s.nowFn(), all, s.lateTolerance), nil
}

// markNotified flips the notified flag after verifying the event belongs
// to the caller. The store-level call itself is not owner scoped.
func (s *Service) markNotified(ctx context.Context, ownerID, id string) error {
	if _, err := s.store.GetEvent(ctx, ownerID, id); err != nil {
		return err
	}
	return s.store.MarkNotified(ctx, id)
}

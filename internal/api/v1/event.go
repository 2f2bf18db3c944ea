package v1

import (
	"fmt"
	"time"
)

// Kind classifies an event for scheduling purposes.
// Only KindReminder participates in notification firing by default;
// legacy events of any kind with a positive advance notice window are
// promoted at evaluation time, not here.
type Kind string

const (
	KindReminder Kind = "reminder"
	KindMeeting  Kind = "meeting"
	KindTask     Kind = "task"
	KindNone     Kind = "no-reminder"
)

// ValidKind reports whether k is one of the known event kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindReminder, KindMeeting, KindTask, KindNone:
		return true
	}
	return false
}

// Event is the unit the scheduling engine reasons about.
// Business fields (SubjectLabel, Description) are opaque to the engine;
// it only ever flips Notified to true.
type Event struct {
	// ID is an opaque stable identifier, unique within the store.
	ID string `json:"id"`

	// OwnerID identifies the user the event belongs to. The engine only
	// evaluates events of the currently authenticated session's owner.
	OwnerID string `json:"owner_id"`

	Kind Kind `json:"kind"`

	SubjectLabel string `json:"subject_label"`
	Description  string `json:"description,omitempty"`

	// StartTime is the absolute instant the event is due, stored UTC.
	StartTime time.Time `json:"start_time"`

	// AdvanceNoticeMinutes is how long before StartTime the notification
	// window opens. 0 means notify exactly at start time, never before.
	AdvanceNoticeMinutes int `json:"advance_notice_minutes"`

	// IsActive false is terminal for notification purposes.
	IsActive bool `json:"is_active"`

	// Notified flips true once per activation. It is reset only by an
	// edit that changes StartTime.
	Notified bool `json:"notified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate ensures the event satisfies the store's invariants.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}
	if e.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if !ValidKind(e.Kind) {
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	if e.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	if e.AdvanceNoticeMinutes < 0 {
		return fmt.Errorf("advance_notice_minutes must be >= 0")
	}
	return nil
}

// NoticeStart returns the instant the notification window opens.
func (e *Event) NoticeStart() time.Time {
	return e.StartTime.Add(-time.Duration(e.AdvanceNoticeMinutes) * time.Minute)
}

// WantsReminder reports whether the event participates in notification
// firing: reminder kind, or any kind with a positive advance notice
// window (legacy rows created before kinds existed).
func (e *Event) WantsReminder() bool {
	return e.Kind == KindReminder || e.AdvanceNoticeMinutes > 0
}

// EventPatch is a partial update applied by the store. Nil fields are
// left untouched. A patch that changes StartTime resets Notified so the
// event can fire again for its new time.
type EventPatch struct {
	Kind                 *Kind      `json:"kind,omitempty"`
	SubjectLabel         *string    `json:"subject_label,omitempty"`
	Description          *string    `json:"description,omitempty"`
	StartTime            *time.Time `json:"start_time,omitempty"`
	AdvanceNoticeMinutes *int       `json:"advance_notice_minutes,omitempty"`
	IsActive             *bool      `json:"is_active,omitempty"`
}

// Validate checks the fields that are present.
func (p *EventPatch) Validate() error {
	if p.Kind != nil && !ValidKind(*p.Kind) {
		return fmt.Errorf("unknown kind %q", *p.Kind)
	}
	if p.AdvanceNoticeMinutes != nil && *p.AdvanceNoticeMinutes < 0 {
		return fmt.Errorf("advance_notice_minutes must be >= 0")
	}
	if p.StartTime != nil && p.StartTime.IsZero() {
		return fmt.Errorf("start_time must not be zero")
	}
	return nil
}

// Notification is a persisted notification-center entry. It back-references
// the event that fired it; the Read flag is owned by the presentation side.
type Notification struct {
	ID       string            `json:"id"`
	EventID  string            `json:"event_id"`
	OwnerID  string            `json:"owner_id"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
	FiredAt  time.Time         `json:"fired_at"`
	Read     bool              `json:"read"`
}

// Validate ensures the notification has all required attributes.
func (n *Notification) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("id is required")
	}
	if n.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if n.FiredAt.IsZero() {
		return fmt.Errorf("fired_at is required")
	}
	return nil
}

// Package engine implements the reminder scheduling engine: a pure
// due-event evaluator, a deduplicating notification dispatcher, a polling
// scheduler gated on the session lifecycle, and a supervisor that ties
// scheduler lifetime to login/logout.
package engine

import (
	"time"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
)

// Due returns the subset of events that should fire a notification at
// now. It is pure and deterministic; no ordering guarantee is made
// between returned events.
//
// An event is a candidate when it is active, not yet notified, and wants
// a reminder (reminder kind, or legacy promotion via a positive advance
// notice window). A candidate is due when now sits inside its notice
// window [noticeStart, startTime) and the window opened no longer than
// lateTolerance ago. Windows that opened earlier are treated as missed,
// not fired retroactively; Missed picks those up for the overdue UI.
//
// Events with a zero advance notice window have an empty before-start
// window, so for those the rule inverts: due from startTime until
// lateTolerance past it ("notify exactly at start time, never before").
func Due(now time.Time, events []*v1.Event, lateTolerance time.Duration) []*v1.Event {
	var due []*v1.Event
	for _, evt := range events {
		if !candidate(evt) {
			continue
		}
		if isDue(now, evt, lateTolerance) {
			due = append(due, evt)
		}
	}
	return due
}

// Missed returns candidates whose firing opportunity has passed without a
// notification: the notice window opened more than lateTolerance ago, or
// the start time itself is behind us. The UI classifies these as overdue
// rather than toasting them hours late.
func Missed(now time.Time, events []*v1.Event, lateTolerance time.Duration) []*v1.Event {
	var missed []*v1.Event
	for _, evt := range events {
		if !candidate(evt) {
			continue
		}
		if isDue(now, evt, lateTolerance) {
			continue
		}
		if !now.Before(evt.StartTime) || now.Sub(evt.NoticeStart()) > lateTolerance {
			missed = append(missed, evt)
		}
	}
	return missed
}

func candidate(evt *v1.Event) bool {
	return evt.IsActive && !evt.Notified && evt.WantsReminder()
}

func isDue(now time.Time, evt *v1.Event, lateTolerance time.Duration) bool {
	noticeStart := evt.NoticeStart()

	if evt.AdvanceNoticeMinutes == 0 {
		// Empty before-start window: fire at start, tolerate a late tick.
		return !now.Before(evt.StartTime) && now.Sub(evt.StartTime) <= lateTolerance
	}

	if now.Before(noticeStart) || !now.Before(evt.StartTime) {
		return false
	}
	return now.Sub(noticeStart) <= lateTolerance
}

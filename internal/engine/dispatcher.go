package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
	"github.com/kesher-crm/kesher/internal/core/template"
)

// Marker is the slice of the event store the dispatcher needs: flipping
// the notified flag after a successful emission.
type Marker interface {
	MarkNotified(ctx context.Context, id string) error
}

// Dispatcher fans a due event out to the presentation channels and
// persists the notified flag, at most once per event per session.
//
// The dedup set lives for the dispatcher's lifetime, which the supervisor
// scopes to one session. Dedup is recorded after channel emission and
// independently of persistence: a failed mark-notified leaves the server
// flag stale (the event may be listed as due again on a later tick) but
// the session never shows the same toast twice.
type Dispatcher struct {
	marker    Marker
	toast     ToastChannel
	desktop   DesktopChannel
	center    CenterChannel
	templates *template.Set

	toastDuration time.Duration
	now           func() time.Time

	mu         sync.Mutex
	dispatched map[string]struct{}
}

// DispatcherOptions carries the dispatcher's collaborators. Any channel
// may be nil; nil channels are skipped.
type DispatcherOptions struct {
	Marker        Marker
	Toast         ToastChannel
	Desktop       DesktopChannel
	Center        CenterChannel
	Templates     *template.Set
	ToastDuration time.Duration

	// Now overrides the time source in tests.
	Now func() time.Time
}

// NewDispatcher creates a dispatcher with an empty dedup set.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	templates := opts.Templates
	if templates == nil {
		templates = template.Defaults()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Dispatcher{
		marker:        opts.Marker,
		toast:         opts.Toast,
		desktop:       opts.Desktop,
		center:        opts.Center,
		templates:     templates,
		toastDuration: opts.ToastDuration,
		now:           now,
		dispatched:    make(map[string]struct{}),
	}
}

// Dispatch emits one due event to every configured channel and marks it
// notified in the store. Calling it again with the same event in the same
// session is a no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, evt *v1.Event) {
	d.mu.Lock()
	if _, seen := d.dispatched[evt.ID]; seen {
		d.mu.Unlock()
		return
	}
	// Claim the ID before yielding to channel emission so an overlapping
	// dispatch of the same event cannot double-emit.
	d.dispatched[evt.ID] = struct{}{}
	d.mu.Unlock()

	title, message := d.templates.Render(evt)

	if d.toast != nil {
		if err := d.toast.Show(message, d.toastDuration); err != nil {
			slog.Warn("[Dispatcher] Toast emission failed", "event_id", evt.ID, "error", err)
		}
	}

	if d.desktop != nil {
		if err := d.desktop.Show(title, message); err != nil {
			slog.Warn("[Dispatcher] Desktop emission failed", "event_id", evt.ID, "error", err)
		}
	}

	if d.center != nil {
		entry := CenterEntry{
			EventID: evt.ID,
			OwnerID: evt.OwnerID,
			Title:   title,
			Message: message,
			Metadata: map[string]string{
				"kind":       string(evt.Kind),
				"start_time": evt.StartTime.UTC().Format(time.RFC3339),
			},
		}
		if err := d.center.Record(ctx, entry); err != nil {
			slog.Warn("[Dispatcher] Notification center record failed", "event_id", evt.ID, "error", err)
		}
	}

	// Persistence failure is soft: no retry here. The server-side flag
	// stays false and the event may evaluate as due on a later tick, but
	// the dedup entry above suppresses a repeat emission this session.
	if d.marker != nil {
		if err := d.marker.MarkNotified(ctx, evt.ID); err != nil {
			slog.Warn("[Dispatcher] Mark-notified failed, flag stays stale server-side",
				"event_id", evt.ID, "error", err)
			return
		}
	}
	evt.Notified = true

	slog.Info("[Dispatcher] Notification dispatched",
		"event_id", evt.ID,
		"owner_id", evt.OwnerID,
		"fired_at", d.now().Format(time.RFC3339))
}

// Reset clears the dedup set. The supervisor calls it when a session
// ends so no per-user state leaks into the next session.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = make(map[string]struct{})
}

// Dispatched reports whether an event ID was already dispatched this
// session.
func (d *Dispatcher) Dispatched(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, seen := d.dispatched[id]
	return seen
}

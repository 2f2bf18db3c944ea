package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kesher-crm/kesher/internal/core/template"
	"github.com/kesher-crm/kesher/internal/session"
)

// ChannelSet is what the supervisor builds for each new session. Toast
// and desktop are per-session (owner-bound queue, fresh permission
// state); the center channel is shared.
type ChannelSet struct {
	Toast   ToastChannel
	Desktop DesktopChannel
	Center  CenterChannel
}

// ChannelFactory builds a session's channel set. Called once per login.
type ChannelFactory func(ownerID string) ChannelSet

// Supervisor ties scheduler lifetime to the session lifecycle: every
// login gets its own scheduler and dispatcher with an empty dedup set,
// and logout tears them down. Nothing survives from one session into the
// next, so an event that fired for one session can fire again for a
// later one.
type Supervisor struct {
	interval      time.Duration
	lateTolerance time.Duration
	toastDuration time.Duration
	source        EventSource
	marker        Marker
	channels      ChannelFactory
	templates     *template.Set
	now           func() time.Time

	mu       sync.Mutex
	byToken  map[string]*Scheduler
	baseCtx  context.Context
	stopping bool
}

// SupervisorOptions configures a supervisor.
type SupervisorOptions struct {
	Interval      time.Duration
	LateTolerance time.Duration
	ToastDuration time.Duration
	Source        EventSource
	Marker        Marker
	Channels      ChannelFactory
	Templates     *template.Set

	// Now overrides the time source in tests.
	Now func() time.Time
}

// NewSupervisor creates a supervisor. Schedulers it starts are children
// of ctx; cancelling it winds everything down.
func NewSupervisor(ctx context.Context, opts SupervisorOptions) *Supervisor {
	return &Supervisor{
		interval:      opts.Interval,
		lateTolerance: opts.LateTolerance,
		toastDuration: opts.ToastDuration,
		source:        opts.Source,
		marker:        opts.Marker,
		channels:      opts.Channels,
		templates:     opts.Templates,
		now:           opts.Now,
		byToken:       make(map[string]*Scheduler),
		baseCtx:       ctx,
	}
}

// SessionStarted implements session.Listener: it builds and starts a
// scheduler for the new session.
func (sv *Supervisor) SessionStarted(s *session.Session) {
	set := sv.channels(s.OwnerID)

	dispatcher := NewDispatcher(DispatcherOptions{
		Marker:        sv.marker,
		Toast:         set.Toast,
		Desktop:       set.Desktop,
		Center:        set.Center,
		Templates:     sv.templates,
		ToastDuration: sv.toastDuration,
		Now:           sv.now,
	})

	scheduler := NewScheduler(SchedulerOptions{
		Interval:      sv.interval,
		LateTolerance: sv.lateTolerance,
		Source:        sv.source,
		Session:       s,
		Dispatcher:    dispatcher,
		Now:           sv.now,
	})

	sv.mu.Lock()
	if sv.stopping {
		sv.mu.Unlock()
		return
	}
	sv.byToken[s.Token] = scheduler
	sv.mu.Unlock()

	if err := scheduler.Start(sv.baseCtx); err != nil {
		slog.Warn("[Engine] Scheduler failed to start", "owner_id", s.OwnerID, "error", err)
		sv.mu.Lock()
		delete(sv.byToken, s.Token)
		sv.mu.Unlock()
	}
}

// SessionEnded implements session.Listener: it stops and discards the
// session's scheduler along with its dedup state.
func (sv *Supervisor) SessionEnded(s *session.Session) {
	sv.mu.Lock()
	scheduler, ok := sv.byToken[s.Token]
	delete(sv.byToken, s.Token)
	sv.mu.Unlock()

	if ok {
		scheduler.Stop()
	}
}

// StopAll stops every running scheduler. Called on shutdown.
func (sv *Supervisor) StopAll() {
	sv.mu.Lock()
	sv.stopping = true
	schedulers := make([]*Scheduler, 0, len(sv.byToken))
	for _, s := range sv.byToken {
		schedulers = append(schedulers, s)
	}
	sv.byToken = make(map[string]*Scheduler)
	sv.mu.Unlock()

	for _, s := range schedulers {
		s.Stop()
	}
}

// ActiveSchedulers reports how many schedulers are currently running.
func (sv *Supervisor) ActiveSchedulers() int {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	n := 0
	for _, s := range sv.byToken {
		if s.Running() {
			n++
		}
	}
	return n
}

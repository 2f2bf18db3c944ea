package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
)

// ErrNotAuthenticated is returned by Start when the session guard rejects
// the transition to Running.
var ErrNotAuthenticated = errors.New("session is not authenticated")

// EventSource is the slice of the event store the scheduler needs: the
// current event set for one owner, re-fetched every tick. The scheduler
// never assumes snapshot stability between ticks.
type EventSource interface {
	ListEvents(ctx context.Context, ownerID string) ([]*v1.Event, error)
}

// Session is the authentication guard the scheduler consults. It must be
// safe to call from the scheduler's goroutine.
type Session interface {
	IsAuthenticated() bool
	CurrentUserID() string
}

// Scheduler drives the evaluator and dispatcher on a fixed cadence while
// a session is authenticated: Stopped -> Running -> Stopped.
//
// Ticks never overlap: if a tick is still in flight when the timer fires
// again, the new tick is skipped rather than queued, so the dispatcher's
// dedup state is only ever mutated by one tick at a time. Stopping
// cancels the timer synchronously; an in-flight tick may finish its fetch
// but checks the running flag before dispatching.
type Scheduler struct {
	interval      time.Duration
	lateTolerance time.Duration
	source        EventSource
	session       Session
	dispatcher    *Dispatcher
	now           func() time.Time

	mu       sync.Mutex
	running  bool
	inFlight bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// SchedulerOptions configures a scheduler.
type SchedulerOptions struct {
	Interval      time.Duration
	LateTolerance time.Duration
	Source        EventSource
	Session       Session
	Dispatcher    *Dispatcher

	// Now overrides the time source in tests.
	Now func() time.Time
}

// NewScheduler creates a scheduler in the Stopped state.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Scheduler{
		interval:      opts.Interval,
		lateTolerance: opts.LateTolerance,
		source:        opts.Source,
		session:       opts.Session,
		dispatcher:    opts.Dispatcher,
		now:           now,
	}
}

// Start transitions to Running, performs one immediate evaluation pass,
// then polls on the configured interval until Stop is called, ctx is
// cancelled, or the session loses authentication. Starting a running
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.session.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	slog.Info("[Engine] Scheduler starting",
		"owner_id", s.session.CurrentUserID(),
		"interval", s.interval,
		"late_tolerance", s.lateTolerance)

	go func() {
		defer close(done)

		// Immediate first pass so a fresh login does not wait a full
		// interval for pending reminders.
		s.tick(runCtx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.tick(runCtx)
			case <-runCtx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop cancels the timer and transitions to Stopped. It is idempotent
// and returns once the polling goroutine has exited; any in-flight fetch
// observes the stopped state and discards its results.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	<-done

	slog.Info("[Engine] Scheduler stopped")
}

// Running reports the scheduler state.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// tick performs one evaluation pass. A pass is skipped when the previous
// one is still in flight.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.beginTick() {
		slog.Debug("[Engine] Tick still in flight, skipping")
		return
	}
	defer s.endTick()

	// Authentication loss mid-session: become a no-op and release the
	// timer. Stop must not run on this goroutine while the tick holds
	// the in-flight flag, so it is deferred to a helper goroutine.
	if !s.session.IsAuthenticated() {
		slog.Info("[Engine] Session no longer authenticated, stopping scheduler")
		go s.Stop()
		return
	}

	ownerID := s.session.CurrentUserID()
	events, err := s.source.ListEvents(ctx, ownerID)
	if err != nil {
		// Transient fetch failure: skip this tick, retry on the next.
		slog.Warn("[Engine] Event fetch failed, skipping tick",
			"owner_id", ownerID, "error", err)
		return
	}

	// A Stop may have landed while the fetch was in flight; dispatching
	// now would revive dedup state the next session must not inherit.
	if !s.Running() {
		return
	}

	due := Due(s.now(), events, s.lateTolerance)
	for _, evt := range due {
		s.dispatcher.Dispatch(ctx, evt)
	}

	if len(due) > 0 {
		slog.Info("[Engine] Tick dispatched due events",
			"owner_id", ownerID,
			"due", len(due),
			"evaluated", len(events))
	}
}

func (s *Scheduler) beginTick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

func (s *Scheduler) endTick() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

package engine

import (
	"context"
	"sync"
	"time"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
)

// fakeSource serves a scripted event set and can be told to fail or
// block, to exercise the scheduler's error and re-entrancy paths.
type fakeSource struct {
	mu      sync.Mutex
	events  []*v1.Event
	err     error
	block   chan struct{} // when set, ListEvents parks until closed
	calls   int
	lastOwn string
}

func (f *fakeSource) ListEvents(ctx context.Context, ownerID string) ([]*v1.Event, error) {
	f.mu.Lock()
	f.calls++
	f.lastOwn = ownerID
	events, err, block := f.events, f.err, f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	out := make([]*v1.Event, len(events))
	copy(out, events)
	return out, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) set(events []*v1.Event, err error) {
	f.mu.Lock()
	f.events, f.err = events, err
	f.mu.Unlock()
}

// fakeMarker records MarkNotified calls and can fail on demand.
type fakeMarker struct {
	mu     sync.Mutex
	marked []string
	err    error
}

func (f *fakeMarker) MarkNotified(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeMarker) markedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.marked...)
}

// fakeToast records emissions; fails when err is set.
type fakeToast struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeToast) Show(message string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeToast) shown() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

// fakeDesktop records emissions; fails when err is set.
type fakeDesktop struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (f *fakeDesktop) Show(title, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeDesktop) shown() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.titles...)
}

// fakeCenter records entries; fails when err is set.
type fakeCenter struct {
	mu      sync.Mutex
	entries []CenterEntry
	err     error
}

func (f *fakeCenter) Record(_ context.Context, entry CenterEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeCenter) recorded() []CenterEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CenterEntry(nil), f.entries...)
}

// fakeSession is a toggleable auth guard.
type fakeSession struct {
	mu      sync.Mutex
	auth    bool
	ownerID string
}

func (f *fakeSession) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func (f *fakeSession) CurrentUserID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ownerID
}

func (f *fakeSession) setAuth(auth bool) {
	f.mu.Lock()
	f.auth = auth
	f.mu.Unlock()
}

func reminderAt(id string, start time.Time, advanceMinutes int) *v1.Event {
	return &v1.Event{
		ID:                   id,
		OwnerID:              "user-1",
		Kind:                 v1.KindReminder,
		SubjectLabel:         "שיחת מעקב",
		StartTime:            start,
		AdvanceNoticeMinutes: advanceMinutes,
		IsActive:             true,
	}
}

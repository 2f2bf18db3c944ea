// Package notify provides the presentation channel implementations the
// dispatcher fans out to: a toast feed the UI polls, a permission-gated
// desktop channel, and the persistent notification center.
package notify

import (
	"sync"
	"time"
)

// Toast is one transient on-screen message.
type Toast struct {
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
	ShownAt  time.Time     `json:"shown_at"`
}

// Feed holds per-owner toast queues. The front end drains its owner's
// queue on each poll; undrained toasts are capped at limit, oldest
// dropped first, since a toast nobody saw for fifty polls is noise.
type Feed struct {
	mu      sync.Mutex
	byOwner map[string][]Toast
	limit   int
	now     func() time.Time
}

// NewFeed creates a feed keeping at most limit pending toasts per owner.
func NewFeed(limit int) *Feed {
	return &Feed{
		byOwner: make(map[string][]Toast),
		limit:   limit,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ForOwner returns a ToastChannel bound to one owner's queue.
func (f *Feed) ForOwner(ownerID string) *OwnerToast {
	return &OwnerToast{feed: f, ownerID: ownerID}
}

// Drain returns and clears the pending toasts for an owner.
func (f *Feed) Drain(ownerID string) []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	toasts := f.byOwner[ownerID]
	delete(f.byOwner, ownerID)
	return toasts
}

// Forget drops an owner's pending toasts without returning them. Called
// on logout so the next session starts clean.
func (f *Feed) Forget(ownerID string) {
	f.mu.Lock()
	delete(f.byOwner, ownerID)
	f.mu.Unlock()
}

func (f *Feed) push(ownerID string, t Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue := append(f.byOwner[ownerID], t)
	if len(queue) > f.limit {
		queue = queue[len(queue)-f.limit:]
	}
	f.byOwner[ownerID] = queue
}

// OwnerToast implements the dispatcher's toast channel for one owner.
type OwnerToast struct {
	feed    *Feed
	ownerID string
}

// Show queues a toast for the owner. It cannot fail; the error return
// satisfies the channel interface.
func (o *OwnerToast) Show(message string, duration time.Duration) error {
	o.feed.push(o.ownerID, Toast{
		Message:  message,
		Duration: duration,
		ShownAt:  o.feed.now(),
	})
	return nil
}

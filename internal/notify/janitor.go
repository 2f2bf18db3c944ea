package notify

import "github.com/kesher-crm/kesher/internal/session"

// Janitor drops an owner's pending toasts when their session ends, so a
// later login starts with an empty feed.
type Janitor struct {
	feed *Feed
}

func NewJanitor(feed *Feed) *Janitor {
	return &Janitor{feed: feed}
}

func (j *Janitor) SessionStarted(*session.Session) {}

func (j *Janitor) SessionEnded(s *session.Session) {
	j.feed.Forget(s.OwnerID)
}

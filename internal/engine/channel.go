package engine

import (
	"context"
	"time"
)

// The dispatcher fans out to three presentation channels. Each is a
// separate interface so channels can be added, removed, or mocked
// independently; a failing channel never blocks the others.

// ToastChannel shows a transient on-screen message.
type ToastChannel interface {
	Show(message string, duration time.Duration) error
}

// DesktopChannel delivers an OS-level notification. Implementations own
// their permission handling; a denied permission is a silent no-op, not
// an error.
type DesktopChannel interface {
	Show(title, body string) error
}

// CenterEntry is what the dispatcher hands the notification center.
type CenterEntry struct {
	EventID  string
	OwnerID  string
	Title    string
	Message  string
	Metadata map[string]string
}

// CenterChannel records an entry in the persistent notification center.
type CenterChannel interface {
	Record(ctx context.Context, entry CenterEntry) error
}

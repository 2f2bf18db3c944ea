package notify

import (
	"log/slog"
	"sync"
)

// Permission mirrors the browser Notification permission values.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Prompter asks the user for notification permission. The real
// implementation fronts the browser/OS prompt; tests substitute a stub.
type Prompter interface {
	RequestPermission() Permission
}

// Sender delivers an OS-level notification once permission is granted.
type Sender interface {
	Send(title, body string) error
}

// LogSender is the server-side Sender: it has no OS surface to reach, so
// delivery is a structured log line the desktop agent tails.
type LogSender struct{}

func (LogSender) Send(title, body string) error {
	slog.Info("[Desktop] Notification", "title", title, "body", body)
	return nil
}

// Desktop is the OS-notification channel. A session gets a fresh Desktop
// so permission is requested at most once per session when it starts out
// as default. Denied permission downgrades the channel to a silent no-op
// rather than an error; the toast and center channels still fire.
type Desktop struct {
	prompter Prompter
	sender   Sender

	mu         sync.Mutex
	permission Permission
	requested  bool
}

// NewDesktop creates a desktop channel with the given starting
// permission.
func NewDesktop(prompter Prompter, sender Sender, initial Permission) *Desktop {
	return &Desktop{prompter: prompter, sender: sender, permission: initial}
}

// Permission returns the channel's current permission value.
func (d *Desktop) Permission() Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.permission
}

// Show delivers title/body through the sender if permission allows.
func (d *Desktop) Show(title, body string) error {
	d.mu.Lock()
	if d.permission == PermissionDefault && !d.requested {
		d.requested = true
		if d.prompter != nil {
			d.permission = d.prompter.RequestPermission()
		}
	}
	perm := d.permission
	d.mu.Unlock()

	if perm != PermissionGranted {
		// Silent downgrade; the other channels carry the notification.
		slog.Debug("[Desktop] Skipping OS notification", "permission", perm)
		return nil
	}

	if d.sender == nil {
		return nil
	}
	return d.sender.Send(title, body)
}

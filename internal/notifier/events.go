package notifier

import (
	"fmt"

	"shutdowner/internal/eventbus"
)

// FromEvent renders a scheduler event as a notification.
// Ticks are not worth a message and report false.
func FromEvent(host string, e eventbus.Event) (Notification, bool) {
	d := e.Data
	switch e.Type {
	case eventbus.TypeArmed:
		return Notification{Priority: 5, Text: fmt.Sprintf("%s: shutdown armed (%s)", host, d.Summary)}, true
	case eventbus.TypeFired:
		return Notification{Priority: 9, Text: fmt.Sprintf("%s: shutting down in %s (%s)", host, d.Lead, d.Summary)}, true
	case eventbus.TypeShutdownFailed:
		return Notification{Priority: 9, Text: fmt.Sprintf("%s: shutdown failed: %s", host, d.Error)}, true
	case eventbus.TypeListingFailed:
		return Notification{Priority: 7, Text: fmt.Sprintf("%s: process listing failed (tick %d): %s", host, d.Tick, d.Error)}, true
	case eventbus.TypeStopped:
		return Notification{Priority: 5, Text: fmt.Sprintf("%s: shutdown watch stopped (%s)", host, d.Summary)}, true
	default:
		return Notification{}, false
	}
}

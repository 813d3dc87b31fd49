package testsupport

import (
	"context"
	"sync"

	"pressline/internal/notifications"
)

// Notification is one event captured by RecordingNotifier.
type Notification struct {
	Event   notifications.Event
	Payload notifications.Payload
}

// RecordingNotifier captures published notifications.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []Notification
}

// Publish records the event.
func (n *RecordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Notification{Event: event, Payload: payload})
	return nil
}

// Events returns the recorded notifications of the given type, or all of
// them when event is empty.
func (n *RecordingNotifier) Events(event notifications.Event) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, 0, len(n.events))
	for _, e := range n.events {
		if event == "" || e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

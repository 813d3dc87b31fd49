package testsupport

import (
	"context"
	"sync"
)

// Message is one delivery captured by RecordingDelivery.
type Message struct {
	Destination string
	Text        string
}

// RecordingDelivery is a fake delivery collaborator. While Err is set every
// send fails and nothing is recorded.
type RecordingDelivery struct {
	mu   sync.Mutex
	err  error
	sent []Message
}

// SetErr changes the error returned by subsequent sends.
func (d *RecordingDelivery) SetErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Send records the message or returns the configured error.
func (d *RecordingDelivery) Send(_ context.Context, destination, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, Message{Destination: destination, Text: text})
	return nil
}

// Sent returns the delivered messages.
func (d *RecordingDelivery) Sent() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, len(d.sent))
	copy(out, d.sent)
	return out
}

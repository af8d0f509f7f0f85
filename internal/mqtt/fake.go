package mqtt

import (
	"github.com/sweeney/oven-control/internal/control"
)

// Message is one MQTT publish as it would hit the wire: topic, formatted
// payload, and the retain flag.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher records everything published through it so tests can
// assert on both the decoded events and the wire-level messages.
type FakePublisher struct {
	// Events contains the transition events, in publish order.
	Events []control.Event

	// SystemEvents contains the system lifecycle events, in publish order.
	SystemEvents []SystemEvent

	// Messages is the chronological wire log across both topics.
	Messages []Message

	// PublishError, if set, is returned by Publish without recording.
	PublishError error

	// PublishSystemError, if set, is returned by PublishSystem without
	// recording.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish formats and records the transition event. Nothing is recorded
// when formatting fails, matching the real publisher which never sends a
// half-built message.
func (f *FakePublisher) Publish(event control.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}

	f.Events = append(f.Events, event)
	f.Messages = append(f.Messages, Message{
		Topic:   Topic,
		Payload: payload,
	})
	return nil
}

// PublishSystem formats and records the system event. The retain flag is
// carried through so shutdown tests can check the broker would keep it.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}

	f.SystemEvents = append(f.SystemEvents, event)
	f.Messages = append(f.Messages, Message{
		Topic:    TopicSystem,
		Payload:  payload,
		Retained: event.Retained,
	})
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// EventTypes returns the transition event types in publish order.
func (f *FakePublisher) EventTypes() []control.EventType {
	types := make([]control.EventType, 0, len(f.Events))
	for _, ev := range f.Events {
		types = append(types, ev.Type)
	}
	return types
}

// TopicMessages returns the recorded messages for one topic, in order.
func (f *FakePublisher) TopicMessages(topic string) []Message {
	var out []Message
	for _, m := range f.Messages {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// Reset clears everything recorded, including injected errors.
func (f *FakePublisher) Reset() {
	f.Events = nil
	f.SystemEvents = nil
	f.Messages = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}

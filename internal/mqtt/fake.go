package mqtt

import "sync"

// Message is one recorded publication.
type Message struct {
	Topic   string
	Payload []byte
}

// FakePublisher records publications for test assertions.
// Safe for concurrent use.
type FakePublisher struct {
	mu sync.Mutex

	messages       []Message
	systemEvents   []SystemEvent
	systemPayloads [][]byte
	publishErr     error
	systemErr      error
	closed         bool
	connected      bool
}

var (
	_ Publisher        = (*FakePublisher)(nil)
	_ ConnectionStatus = (*FakePublisher)(nil)
)

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{connected: true}
}

// Publish records the message.
func (f *FakePublisher) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.messages = append(f.messages, Message{Topic: topic, Payload: append([]byte(nil), payload...)})
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.systemErr != nil {
		return f.systemErr
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.systemEvents = append(f.systemEvents, event)
	f.systemPayloads = append(f.systemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// SetConnected controls the return value of IsConnected.
func (f *FakePublisher) SetConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

// SetPublishError makes Publish fail with err; nil clears it.
func (f *FakePublisher) SetPublishError(err error) {
	f.mu.Lock()
	f.publishErr = err
	f.mu.Unlock()
}

// SetSystemError makes PublishSystem fail with err; nil clears it.
func (f *FakePublisher) SetSystemError(err error) {
	f.mu.Lock()
	f.systemErr = err
	f.mu.Unlock()
}

// Messages returns a copy of all recorded publications.
func (f *FakePublisher) Messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.messages...)
}

// Payloads decodes every recorded status payload. Undecodable messages are skipped.
func (f *FakePublisher) Payloads() []ClubPayload {
	var out []ClubPayload
	for _, m := range f.Messages() {
		if p, err := ParsePayload(m.Payload); err == nil {
			out = append(out, p.Club)
		}
	}
	return out
}

// SystemEvents returns a copy of all recorded system events.
func (f *FakePublisher) SystemEvents() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SystemEvent(nil), f.systemEvents...)
}

// SystemPayloads returns a copy of the JSON payloads for system events.
func (f *FakePublisher) SystemPayloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.systemPayloads...)
}

// IsClosed reports whether Close was called.
func (f *FakePublisher) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset clears recorded messages and errors.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
	f.systemEvents = nil
	f.systemPayloads = nil
	f.publishErr = nil
	f.systemErr = nil
	f.closed = false
	f.connected = true
}

package gpio

import (
	"fmt"
	"sync"
)

// FakeLines is a test double holding scripted pin levels.
// Set and Fire deliver edges synchronously on the caller's goroutine, the way
// an interrupt preempts whatever was running.
type FakeLines struct {
	mu       sync.Mutex
	levels   map[int]bool
	handlers map[int]EdgeHandler
	readErr  map[int]error

	// WatchError, if set, will be returned by Watch.
	WatchError error

	// Reads counts Read calls per pin.
	Reads map[int]int

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeLines creates FakeLines with all pins low.
func NewFakeLines() *FakeLines {
	return &FakeLines{
		levels:   make(map[int]bool),
		handlers: make(map[int]EdgeHandler),
		readErr:  make(map[int]error),
		Reads:    make(map[int]int),
	}
}

// Read returns the scripted level of the pin.
func (f *FakeLines) Read(pin int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads[pin]++
	if err := f.readErr[pin]; err != nil {
		return false, err
	}
	return f.levels[pin], nil
}

// Watch records the handler for the pin.
func (f *FakeLines) Watch(pin int, h EdgeHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WatchError != nil {
		return f.WatchError
	}
	if _, ok := f.handlers[pin]; ok {
		return fmt.Errorf("pin %d already watched", pin)
	}
	f.handlers[pin] = h
	return nil
}

// Unwatch drops the handler for the pin.
func (f *FakeLines) Unwatch(pin int) error {
	f.mu.Lock()
	delete(f.handlers, pin)
	f.mu.Unlock()
	return nil
}

// Close drops all handlers and marks the lines closed.
func (f *FakeLines) Close() error {
	f.mu.Lock()
	f.handlers = make(map[int]EdgeHandler)
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// SetLevel changes the pin level without delivering an edge.
func (f *FakeLines) SetLevel(pin int, high bool) {
	f.mu.Lock()
	f.levels[pin] = high
	f.mu.Unlock()
}

// Set changes the pin level and, if it differs, delivers an edge.
func (f *FakeLines) Set(pin int, high bool) {
	f.mu.Lock()
	changed := f.levels[pin] != high
	f.levels[pin] = high
	h := f.handlers[pin]
	f.mu.Unlock()

	if changed && h != nil {
		h.OnEdge()
	}
}

// Fire delivers an edge without changing the level, like contact bounce
// that settled back before the handler ran.
func (f *FakeLines) Fire(pin int) {
	f.mu.Lock()
	h := f.handlers[pin]
	f.mu.Unlock()

	if h != nil {
		h.OnEdge()
	}
}

// SetReadError makes Read fail for the pin; nil clears it.
func (f *FakeLines) SetReadError(pin int, err error) {
	f.mu.Lock()
	f.readErr[pin] = err
	f.mu.Unlock()
}

// Watched reports whether the pin has a handler registered.
func (f *FakeLines) Watched(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[pin]
	return ok
}

// ReadCount returns how many times the pin was read.
func (f *FakeLines) ReadCount(pin int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Reads[pin]
}

// IsClosed reports whether Close was called.
func (f *FakeLines) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Closed
}

// Package gpio provides GPIO edge interrupts and pin reads with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware and injecting synthetic edges.
package gpio

import "errors"

// ErrNotSupported is returned by the real implementation on non-Linux platforms.
var ErrNotSupported = errors.New("gpio: not supported on this platform (requires Linux)")

// EdgeHandler is called on every edge of a watched line.
// It runs in the GPIO event context and must not block.
type EdgeHandler interface {
	OnEdge()
}

// EdgeHandlerFunc adapts a plain function to EdgeHandler.
type EdgeHandlerFunc func()

// OnEdge calls f.
func (f EdgeHandlerFunc) OnEdge() { f() }

// Lines registers edge interrupts and reads input levels.
type Lines interface {
	// Read returns the raw level of the pin (true = high).
	Read(pin int) (bool, error)

	// Watch requests the pin as an input and calls h on both edges.
	Watch(pin int, h EdgeHandler) error

	// Unwatch stops edge delivery for the pin and releases it.
	Unwatch(pin int) error

	// Close releases all GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinLock   = 17 // lock sensor, high = locked
	DefaultPinStatus = 4  // club status, high = closed
)

//go:build !linux

package gpio

import "time"

// RealLines is not available on non-Linux platforms.
type RealLines struct{}

// NewRealLines returns an error on non-Linux platforms.
func NewRealLines(chipName string, debounce time.Duration) (*RealLines, error) {
	return nil, ErrNotSupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealLines) Read(pin int) (bool, error) {
	return false, ErrNotSupported
}

// Watch is not implemented on non-Linux platforms.
func (r *RealLines) Watch(pin int, h EdgeHandler) error {
	return ErrNotSupported
}

// Unwatch is not implemented on non-Linux platforms.
func (r *RealLines) Unwatch(pin int) error {
	return nil
}

// Close is not implemented on non-Linux platforms.
func (r *RealLines) Close() error {
	return nil
}

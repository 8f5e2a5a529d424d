//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealLines drives GPIO through the Linux GPIO character device.
type RealLines struct {
	chip     *gpiocdev.Chip
	debounce time.Duration

	mu    sync.Mutex
	lines map[int]*gpiocdev.Line
}

// NewRealLines opens the named chip (e.g. "gpiochip0").
// A non-zero debounce enables the kernel debounce filter on watched lines.
func NewRealLines(chipName string, debounce time.Duration) (*RealLines, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealLines{
		chip:     chip,
		debounce: debounce,
		lines:    make(map[int]*gpiocdev.Line),
	}, nil
}

// Read returns the raw level of the pin. Pins not being watched are
// requested as inputs for the duration of the read.
func (r *RealLines) Read(pin int) (bool, error) {
	r.mu.Lock()
	line := r.lines[pin]
	r.mu.Unlock()

	if line == nil {
		l, err := r.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
		if err != nil {
			return false, fmt.Errorf("request pin %d: %w", pin, err)
		}
		defer l.Close()
		line = l
	}

	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v == 1, nil
}

// Watch requests the pin as an input with pull-down and delivers both edges to h.
func (r *RealLines) Watch(pin int, h EdgeHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lines[pin]; ok {
		return fmt.Errorf("pin %d already watched", pin)
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { h.OnEdge() }),
	}
	if r.debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(r.debounce))
	}

	line, err := r.chip.RequestLine(pin, opts...)
	if err != nil {
		return fmt.Errorf("request pin %d: %w", pin, err)
	}
	r.lines[pin] = line
	return nil
}

// Unwatch releases the pin. The line is closed outside the lock since closing
// waits for a running event handler, which may itself be calling Read.
func (r *RealLines) Unwatch(pin int) error {
	r.mu.Lock()
	line := r.lines[pin]
	delete(r.lines, pin)
	r.mu.Unlock()

	if line == nil {
		return nil
	}
	return releaseLine(line)
}

// Close releases all watched lines and the chip.
func (r *RealLines) Close() error {
	r.mu.Lock()
	lines := r.lines
	r.lines = make(map[int]*gpiocdev.Line)
	r.mu.Unlock()

	var errs []error
	for pin, line := range lines {
		if err := releaseLine(line); err != nil {
			errs = append(errs, fmt.Errorf("pin %d: %w", pin, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// releaseLine returns the pin to the Pi boot default (input with pull-down)
// before closing it.
func releaseLine(line *gpiocdev.Line) error {
	var errs []error
	if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure: %w", err))
	}
	if err := line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}

package relay

import "sync"

// Write is one recorded register write.
type Write struct {
	Reg   byte
	Value byte
}

// FakeBus records register writes for test assertions.
// Safe for concurrent use.
type FakeBus struct {
	mu     sync.Mutex
	writes []Write
	fail   int
	closed bool

	// WriteError is returned by the next FailNext writes.
	WriteError error
}

// NewFakeBus creates an empty FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{}
}

// WriteRegister records the write, or fails if a failure is scheduled.
func (f *FakeBus) WriteRegister(reg, value byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return f.WriteError
	}
	f.writes = append(f.writes, Write{Reg: reg, Value: value})
	return nil
}

// FailNext makes the next n writes return err.
func (f *FakeBus) FailNext(n int, err error) {
	f.mu.Lock()
	f.fail = n
	f.WriteError = err
	f.mu.Unlock()
}

// Writes returns a copy of all recorded writes.
func (f *FakeBus) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.writes...)
}

// Outputs returns the values written to the output register, in order.
func (f *FakeBus) Outputs() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []byte
	for _, w := range f.writes {
		if w.Reg == RegOutput0 {
			out = append(out, w.Value)
		}
	}
	return out
}

// Close marks the bus closed.
func (f *FakeBus) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// IsClosed reports whether Close was called.
func (f *FakeBus) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Opener returns an Opener that hands out f, or err if non-nil.
func (f *FakeBus) Opener(err error) Opener {
	return func(addr uint8) (Bus, error) {
		if err != nil {
			return nil, err
		}
		if e := ValidAddress(addr); e != nil {
			return nil, e
		}
		return f, nil
	}
}

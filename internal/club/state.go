package club

import (
	"sync"

	"github.com/sweeney/club-controller/internal/logic"
)

// State is the single authoritative club state shared by the edge handlers,
// the power timer, the operator overrides and the relay worker.
//
// Every mutation happens under mu and is followed by exactly one signal on
// cond; the worker is the only waiter. relayActive and relayAddress are set
// at construction and read without the lock.
type State struct {
	relayActive  bool
	relayAddress uint8

	mu   sync.Mutex
	cond *sync.Cond

	clubOff      bool
	clubLocked   bool
	powerOn      bool
	clubIsClosed bool
	statusClosed bool // last raw status line reading, kept to recompute clubIsClosed

	changed bool
	running bool
}

func newState(relayActive bool, relayAddress uint8) *State {
	s := &State{relayActive: relayActive, relayAddress: relayAddress}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// RelayActive reports whether the relay bank is driven.
func (s *State) RelayActive() bool { return s.relayActive }

// RelayAddress is the bus address of the relay driver.
func (s *State) RelayAddress() uint8 { return s.relayAddress }

// signalLocked marks the state changed and wakes the worker. Caller holds mu.
func (s *State) signalLocked() {
	s.changed = true
	s.cond.Signal()
}

func (s *State) snapshotLocked() logic.Snapshot {
	return logic.Snapshot{
		ClubOff:      s.clubOff,
		ClubLocked:   s.clubLocked,
		PowerOn:      s.powerOn,
		ClubIsClosed: s.clubIsClosed,
	}
}

// start seeds the sensor fields and enters the running state. The first
// cycle always runs so the initial pattern reaches the hardware.
func (s *State) start(locked, statusClosed bool) {
	s.mu.Lock()
	s.clubLocked = locked
	s.statusClosed = statusClosed
	s.clubIsClosed = logic.ClubIsClosed(statusClosed, s.clubOff)
	s.running = true
	s.signalLocked()
	s.mu.Unlock()
}

// stop leaves the running state and wakes the worker so it can exit.
func (s *State) stop() {
	s.mu.Lock()
	s.running = false
	s.signalLocked()
	s.mu.Unlock()
}

// setLocked stores a lock reading. It returns false, without signaling,
// when the value is unchanged or the state is not running.
func (s *State) setLocked(locked bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.clubLocked == locked {
		return false
	}
	s.clubLocked = locked
	s.signalLocked()
	return true
}

// setStatus stores a status line reading and recomputes clubIsClosed.
// It signals only if clubIsClosed changed.
func (s *State) setStatus(statusClosed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.statusClosed = statusClosed
	closed := logic.ClubIsClosed(statusClosed, s.clubOff)
	if closed == s.clubIsClosed {
		return false
	}
	s.clubIsClosed = closed
	s.signalLocked()
	return true
}

// toggleOff flips the master switch and returns the new value.
func (s *State) toggleOff() (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return s.clubOff, false
	}
	s.clubOff = !s.clubOff
	s.clubIsClosed = logic.ClubIsClosed(s.statusClosed, s.clubOff)
	s.signalLocked()
	return s.clubOff, true
}

// applyPower runs step on the current snapshot under the lock and stores
// its result. It returns the power state and whether it changed.
func (s *State) applyPower(step func(logic.Snapshot) (bool, bool)) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return s.powerOn, false
	}
	on, ok := step(s.snapshotLocked())
	if !ok || on == s.powerOn {
		return s.powerOn, false
	}
	s.powerOn = on
	s.signalLocked()
	return on, true
}

// touch forces a worker cycle without changing any field.
func (s *State) touch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.signalLocked()
	return true
}

// wait blocks until the state changed or stopped. It returns the snapshot
// to apply, or false once the state is no longer running. The predicate is
// re-checked after every wake, so spurious signals are harmless.
func (s *State) wait() (logic.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.changed && s.running {
		s.cond.Wait()
	}
	if !s.running {
		return logic.Snapshot{}, false
	}
	s.changed = false
	return s.snapshotLocked(), true
}

// Snapshot returns a consistent copy of the state.
func (s *State) Snapshot() logic.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Running reports the lifecycle flag.
func (s *State) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

package club

import (
	"testing"
	"time"

	"github.com/sweeney/club-controller/internal/logic"
)

func TestStateIgnoresMutationsWhenStopped(t *testing.T) {
	s := newState(true, 0x20)

	if s.setLocked(true) || s.setStatus(true) || s.touch() {
		t.Error("mutations before start must be ignored")
	}
	if _, ok := s.toggleOff(); ok {
		t.Error("toggleOff before start must be ignored")
	}
	if s.changed {
		t.Error("no signal expected before start")
	}
}

func TestStateStartSignals(t *testing.T) {
	s := newState(true, 0x20)
	s.start(true, true)

	snap, ok := s.wait()
	if !ok {
		t.Fatal("expected running state")
	}
	want := logic.Snapshot{ClubLocked: true, ClubIsClosed: true}
	if snap != want {
		t.Errorf("snapshot: got %+v, want %+v", snap, want)
	}
	if s.changed {
		t.Error("wait should consume the change flag")
	}
}

func TestStateNoSignalWithoutChange(t *testing.T) {
	s := newState(true, 0x20)
	s.start(false, false)
	s.wait()

	if s.setLocked(false) {
		t.Error("same lock value must not signal")
	}
	if s.setStatus(false) {
		t.Error("same status value must not signal")
	}
	if s.changed {
		t.Error("changed set without a transition")
	}

	if !s.setLocked(true) || !s.changed {
		t.Error("lock transition should signal")
	}
}

func TestStateStatusIgnoredWhileOff(t *testing.T) {
	s := newState(true, 0x20)
	s.start(false, false)
	s.toggleOff()
	s.wait()

	if s.setStatus(true) {
		t.Error("closed status must not signal while off overrides it")
	}
	if snap := s.Snapshot(); snap.ClubIsClosed {
		t.Error("clubIsClosed must stay false while off")
	}

	s.toggleOff()
	if snap := s.Snapshot(); !snap.ClubIsClosed {
		t.Error("clearing off should apply the stored status reading")
	}
}

func TestStateApplyPower(t *testing.T) {
	s := newState(true, 0x20)
	s.start(false, false)
	s.wait()

	if _, changed := s.applyPower(func(logic.Snapshot) (bool, bool) { return true, false }); changed {
		t.Error("incomplete step must not change power")
	}
	on, changed := s.applyPower(func(logic.Snapshot) (bool, bool) { return true, true })
	if !on || !changed || !s.changed {
		t.Errorf("completed step: got (%v, %v), changed flag %v", on, changed, s.changed)
	}
}

func TestStateStopWakesWaiter(t *testing.T) {
	s := newState(true, 0x20)
	s.start(false, false)
	s.wait()

	done := make(chan bool)
	go func() {
		_, ok := s.wait()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	s.stop()

	select {
	case ok := <-done:
		if ok {
			t.Error("wait should report stopped")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not wake the waiter")
	}
}

func TestStateStopWinsOverPendingChange(t *testing.T) {
	s := newState(true, 0x20)
	s.start(false, false)
	s.setLocked(true)
	s.stop()

	if _, ok := s.wait(); ok {
		t.Error("a stopped state must not hand out a snapshot")
	}
}

func TestStateImmutableRelaySettings(t *testing.T) {
	s := newState(false, 0x27)
	if s.RelayActive() || s.RelayAddress() != 0x27 {
		t.Errorf("relay settings: got (%v, 0x%02x)", s.RelayActive(), s.RelayAddress())
	}
}

package logic

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)

func TestDesiredPower(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want PowerTarget
	}{
		{"off overrides unlocked", Snapshot{ClubOff: true}, PowerDown},
		{"off overrides locked open", Snapshot{ClubOff: true, ClubLocked: true}, PowerDown},
		{"unlocked", Snapshot{}, PowerUp},
		{"unlocked and closed", Snapshot{ClubIsClosed: true}, PowerUp},
		{"locked and closed", Snapshot{ClubLocked: true, ClubIsClosed: true}, PowerDown},
		{"locked but open", Snapshot{ClubLocked: true}, PowerHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DesiredPower(tt.snap); got != tt.want {
				t.Errorf("DesiredPower(%+v) = %v, want %v", tt.snap, got, tt.want)
			}
		})
	}
}

func TestSequencerPowerOnAfterDelay(t *testing.T) {
	q := NewSequencer(2*time.Second, 20*time.Second)
	unlocked := Snapshot{}

	if _, ok := q.Step(unlocked, t0); ok {
		t.Fatal("countdown should not complete on first tick")
	}
	if target, since := q.Pending(); target != PowerUp || !since.Equal(t0) {
		t.Errorf("pending: got (%v, %v), want (PowerUp, %v)", target, since, t0)
	}

	if _, ok := q.Step(unlocked, t0.Add(1900*time.Millisecond)); ok {
		t.Fatal("countdown should not complete before on delay")
	}

	on, ok := q.Step(unlocked, t0.Add(2*time.Second))
	if !ok || !on {
		t.Fatalf("expected power on at delay, got (%v, %v)", on, ok)
	}
	if target, _ := q.Pending(); target != PowerHold {
		t.Errorf("countdown should be cleared after completion, got %v", target)
	}
}

func TestSequencerPowerOffAfterDelay(t *testing.T) {
	q := NewSequencer(2*time.Second, 20*time.Second)
	closed := Snapshot{ClubLocked: true, ClubIsClosed: true, PowerOn: true}

	q.Step(closed, t0)
	if _, ok := q.Step(closed, t0.Add(19*time.Second)); ok {
		t.Fatal("countdown should not complete before off delay")
	}
	on, ok := q.Step(closed, t0.Add(20*time.Second))
	if !ok || on {
		t.Fatalf("expected power off at delay, got (%v, %v)", on, ok)
	}
}

func TestSequencerNoChangeWhenAlreadyThere(t *testing.T) {
	q := NewSequencer(0, 0)

	if _, ok := q.Step(Snapshot{PowerOn: true}, t0); ok {
		t.Error("unlocked with power already on should not change")
	}
	if _, ok := q.Step(Snapshot{ClubLocked: true, ClubIsClosed: true}, t0); ok {
		t.Error("closed with power already off should not change")
	}
}

func TestSequencerZeroDelayCompletesImmediately(t *testing.T) {
	q := NewSequencer(0, 0)

	on, ok := q.Step(Snapshot{}, t0)
	if !ok || !on {
		t.Fatalf("expected immediate power on, got (%v, %v)", on, ok)
	}
}

func TestSequencerLockBounceCancelsCountdown(t *testing.T) {
	q := NewSequencer(2*time.Second, 20*time.Second)
	locked := Snapshot{ClubLocked: true}
	unlocked := Snapshot{}

	// locked -> unlocked -> locked within one delay
	q.Step(locked, t0)
	q.Step(unlocked, t0.Add(500*time.Millisecond))
	q.Step(locked, t0.Add(1*time.Second))

	// Unlocked again: countdown restarts from here, not from the first unlock
	if _, ok := q.Step(unlocked, t0.Add(2*time.Second)); ok {
		t.Fatal("bounced countdown must not complete")
	}
	if _, ok := q.Step(unlocked, t0.Add(3*time.Second)); ok {
		t.Fatal("restarted countdown completed too early")
	}
	on, ok := q.Step(unlocked, t0.Add(4*time.Second))
	if !ok || !on {
		t.Fatalf("expected power on 2s after the last unlock, got (%v, %v)", on, ok)
	}
}

func TestSequencerContraryTargetResets(t *testing.T) {
	q := NewSequencer(5*time.Second, 5*time.Second)

	// Power on, sensors ask for down, then the lock opens again
	closed := Snapshot{ClubLocked: true, ClubIsClosed: true, PowerOn: true}
	q.Step(closed, t0)
	q.Step(Snapshot{PowerOn: true}, t0.Add(4*time.Second))

	if target, _ := q.Pending(); target != PowerHold {
		t.Fatalf("expected countdown cancelled, got %v", target)
	}
	if _, ok := q.Step(closed, t0.Add(6*time.Second)); ok {
		t.Fatal("new countdown must start at 6s, not complete")
	}
	on, ok := q.Step(closed, t0.Add(11*time.Second))
	if !ok || on {
		t.Fatalf("expected power off at 11s, got (%v, %v)", on, ok)
	}
}

func TestSequencerHoldCancels(t *testing.T) {
	q := NewSequencer(5*time.Second, 5*time.Second)

	q.Step(Snapshot{}, t0)
	q.Step(Snapshot{ClubLocked: true}, t0.Add(time.Second))

	if target, _ := q.Pending(); target != PowerHold {
		t.Errorf("hold should cancel countdown, got %v", target)
	}
}

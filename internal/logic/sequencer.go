package logic

import "time"

// PowerTarget is the power state the sensors are asking for.
type PowerTarget int

const (
	// PowerHold keeps the current power state; no countdown runs.
	PowerHold PowerTarget = iota
	PowerUp
	PowerDown
)

// DesiredPower maps a snapshot to the power state it asks for.
//
//	clubOff                -> down
//	unlocked               -> up
//	locked and closed      -> down
//	locked but still open  -> hold
func DesiredPower(s Snapshot) PowerTarget {
	switch {
	case s.ClubOff:
		return PowerDown
	case !s.ClubLocked:
		return PowerUp
	case s.ClubIsClosed:
		return PowerDown
	default:
		return PowerHold
	}
}

// Sequencer delays power transitions until the sensors have asked for the
// same target for the whole on/off delay. Any contrary observation before
// the delay elapses cancels the countdown.
type Sequencer struct {
	onDelay  time.Duration
	offDelay time.Duration

	// Target of the running countdown, PowerHold when idle
	pending PowerTarget
	// Time the running countdown started
	pendingSince time.Time
}

// NewSequencer creates a power sequencer with the given delays.
func NewSequencer(onDelay, offDelay time.Duration) *Sequencer {
	return &Sequencer{onDelay: onDelay, offDelay: offDelay}
}

// Step evaluates one tick. It returns the new power state and true when a
// countdown completed at now, or (s.PowerOn, false) otherwise.
func (q *Sequencer) Step(s Snapshot, now time.Time) (bool, bool) {
	target := DesiredPower(s)
	if target == PowerHold || (target == PowerUp) == s.PowerOn {
		q.pending = PowerHold
		return s.PowerOn, false
	}

	if q.pending != target {
		q.pending = target
		q.pendingSince = now
	}

	delay := q.offDelay
	if target == PowerUp {
		delay = q.onDelay
	}
	if now.Sub(q.pendingSince) < delay {
		return s.PowerOn, false
	}

	q.pending = PowerHold
	return target == PowerUp, true
}

// Pending reports the target of the running countdown and when it started.
func (q *Sequencer) Pending() (PowerTarget, time.Time) {
	return q.pending, q.pendingSince
}

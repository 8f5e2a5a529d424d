package logic

// LockedFromLevel decodes the lock sensor line: high = locked.
func LockedFromLevel(high bool) bool {
	return high
}

// StatusClosedFromLevel decodes the status line: high = club closed.
func StatusClosedFromLevel(high bool) bool {
	return high
}

// ClubIsClosed aggregates the status line with the master switch.
// The club is closed iff the status line reports closed and clubOff is not
// overriding it.
func ClubIsClosed(statusClosed, clubOff bool) bool {
	return statusClosed && !clubOff
}

// ShouldLock reports whether the lock relay must be energized.
func ShouldLock(s Snapshot) bool {
	return s.ClubOff || s.ClubIsClosed
}

// ShouldPower reports whether the power relay must be energized.
// The operator switch drops power at once; sensor-driven changes go through
// the sequencer before they reach PowerOn.
func ShouldPower(s Snapshot) bool {
	return s.PowerOn && !s.ClubOff
}

// LampFor computes the traffic light for a snapshot.
//
//	open,   unlocked -> green
//	closed, unlocked -> yellow
//	open,   locked   -> red + yellow
//	closed, locked   -> red
func LampFor(s Snapshot) Lamp {
	switch {
	case !s.ClubIsClosed && !s.ClubLocked:
		return Lamp{Green: true}
	case s.ClubIsClosed && !s.ClubLocked:
		return Lamp{Yellow: true}
	case !s.ClubIsClosed && s.ClubLocked:
		return Lamp{Red: true, Yellow: true}
	default:
		return Lamp{Red: true}
	}
}

// Diff lists the transitions from prev to cur, in a fixed field order.
func Diff(prev, cur Snapshot) []Change {
	var changes []Change
	if prev.PowerOn != cur.PowerOn {
		changes = append(changes, pick(cur.PowerOn, ChangePowerOn, ChangePowerOff))
	}
	if prev.ClubLocked != cur.ClubLocked {
		changes = append(changes, pick(cur.ClubLocked, ChangeLocked, ChangeUnlocked))
	}
	if prev.ClubIsClosed != cur.ClubIsClosed {
		changes = append(changes, pick(cur.ClubIsClosed, ChangeClosed, ChangeOpened))
	}
	if prev.ClubOff != cur.ClubOff {
		changes = append(changes, pick(cur.ClubOff, ChangeOff, ChangeOn))
	}
	return changes
}

func pick(b bool, ifTrue, ifFalse Change) Change {
	if b {
		return ifTrue
	}
	return ifFalse
}

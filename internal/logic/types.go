// Package logic contains pure business logic for the club access controller.
// This package has NO external dependencies (no GPIO, I2C, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Snapshot is a consistent read of the shared club state at one instant.
// It is a value type and is safe to use after the state lock is released.
type Snapshot struct {
	ClubOff      bool // master off-switch, operator controlled
	ClubLocked   bool // lock sensor reading
	PowerOn      bool // commanded power rail, set only by the power sequencer
	ClubIsClosed bool // aggregate: venue considered closed
}

// Change names a single field transition between two snapshots.
type Change string

const (
	ChangePowerOn  Change = "POWER_ON"
	ChangePowerOff Change = "POWER_OFF"
	ChangeLocked   Change = "LOCKED"
	ChangeUnlocked Change = "UNLOCKED"
	ChangeClosed   Change = "CLOSED"
	ChangeOpened   Change = "OPENED"
	ChangeOff      Change = "OFF"
	ChangeOn       Change = "ON"
)

// EventType classifies a published status message.
type EventType string

const (
	// EventStartup is the first status published after start.
	EventStartup EventType = "STARTUP"
	// EventStatus carries one or more field changes.
	EventStatus EventType = "STATUS"
	// EventRefresh is a forced cycle with no field change.
	EventRefresh EventType = "REFRESH"
)

// Event represents a status update to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Changes   []Change
	State     Snapshot
	Relays    byte // raw output register value written to the relay bank
}

// Lamp is the state of the status traffic light.
type Lamp struct {
	Red    bool
	Yellow bool
	Green  bool
}

// String returns the lit colours joined by "-", or "off".
func (l Lamp) String() string {
	s := ""
	for _, c := range []struct {
		on   bool
		name string
	}{{l.Red, "red"}, {l.Yellow, "yellow"}, {l.Green, "green"}} {
		if !c.on {
			continue
		}
		if s != "" {
			s += "-"
		}
		s += c.name
	}
	if s == "" {
		return "off"
	}
	return s
}

// Counts tracks worker activity since start.
type Counts struct {
	Cycles         int
	RelayWrites    int
	RelayFailures  int
	Publishes      int
	PublishErrors  int
	SensorFailures int
}

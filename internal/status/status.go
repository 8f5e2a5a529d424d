// Package status provides a thread-safe status tracker for the club controller.
// It is read by HTTP handlers and lifecycle/heartbeat publications.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/club-controller/internal/logic"
)

// NetworkInfo contains network state as written by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	SiteID          string
	SiteName        string
	TickMs          int64
	PowerOnDelayMs  int64
	PowerOffDelayMs int64
	HeartbeatMs     int64
	Transport       string
	Broker          string
	HTTPAddr        string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	State         logic.Snapshot
	Relays        byte
	Running       bool
	RelayActive   bool
	RelayAddress  uint8
	Topic         string
	Counts        logic.Counts
	LastChange    time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Relays:    0xFF,
			Config:    cfg,
		},
	}
}

// SetRunning records the controller lifecycle and its fixed relay settings.
func (t *Tracker) SetRunning(running, relayActive bool, relayAddress uint8, topic string) {
	t.mu.Lock()
	t.snap.Running = running
	t.snap.RelayActive = relayActive
	t.snap.RelayAddress = relayAddress
	t.snap.Topic = topic
	t.mu.Unlock()
}

// Update records the state the worker just applied and the register it wrote.
// LastChange moves only when the state differs from the previous update.
func (t *Tracker) Update(state logic.Snapshot, relays byte, at time.Time) {
	t.mu.Lock()
	if state != t.snap.State || t.snap.LastChange.IsZero() {
		t.snap.LastChange = at
	}
	t.snap.State = state
	t.snap.Relays = relays
	t.snap.Counts.Cycles++
	t.mu.Unlock()
}

// RecordRelayWrite counts a relay write attempt cycle.
func (t *Tracker) RecordRelayWrite(ok bool) {
	t.mu.Lock()
	if ok {
		t.snap.Counts.RelayWrites++
	} else {
		t.snap.Counts.RelayFailures++
	}
	t.mu.Unlock()
}

// RecordPublish counts a status publication.
func (t *Tracker) RecordPublish(ok bool) {
	t.mu.Lock()
	if ok {
		t.snap.Counts.Publishes++
	} else {
		t.snap.Counts.PublishErrors++
	}
	t.mu.Unlock()
}

// RecordSensorError counts a failed sensor read.
func (t *Tracker) RecordSensorError() {
	t.mu.Lock()
	t.snap.Counts.SensorFailures++
	t.mu.Unlock()
}

// SetMQTTConnected sets the message bus connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

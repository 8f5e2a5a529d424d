// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/club-controller/internal/logic"
)

// DefaultTopic is the MQTT topic for club status updates.
const DefaultTopic = "club/status"

// ErrPublishTimeout is returned when the broker does not acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt: publish timeout")

// Publisher publishes messages to the message bus.
type Publisher interface {
	// Publish sends payload on topic.
	// Returns error if publishing fails (should not crash the process).
	Publish(topic string, payload []byte) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the connection to the bus is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemTopic returns the lifecycle topic paired with a status topic.
func SystemTopic(topic string) string {
	return topic + "/system"
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the status message payload structure.
type Payload struct {
	Club ClubPayload `json:"club"`
}

// ClubPayload contains the status details.
type ClubPayload struct {
	Timestamp string   `json:"timestamp"`
	Event     string   `json:"event"`
	Changes   []string `json:"changes,omitempty"`
	PowerOn   bool     `json:"power_on"`
	Locked    bool     `json:"locked"`
	Closed    bool     `json:"closed"`
	Off       bool     `json:"off"`
	Relays    string   `json:"relays"`
}

// FormatPayload creates the JSON payload for a status event.
func FormatPayload(event logic.Event) ([]byte, error) {
	changes := make([]string, 0, len(event.Changes))
	for _, c := range event.Changes {
		changes = append(changes, string(c))
	}
	payload := Payload{
		Club: ClubPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Changes:   changes,
			PowerOn:   event.State.PowerOn,
			Locked:    event.State.ClubLocked,
			Closed:    event.State.ClubIsClosed,
			Off:       event.State.ClubOff,
			Relays:    fmt.Sprintf("0x%02x", event.Relays),
		},
	}
	return json.Marshal(payload)
}

// ParsePayload decodes a status payload.
func ParsePayload(data []byte) (Payload, error) {
	var p Payload
	err := json.Unmarshal(data, &p)
	return p, err
}

// SystemPayload represents the message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

package status

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/club-controller/internal/relay"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Running       bool         `json:"running"`
	PowerOn       bool         `json:"power_on"`
	Locked        bool         `json:"locked"`
	Closed        bool         `json:"closed"`
	Off           bool         `json:"off"`
	Lamp          string       `json:"lamp"`
	Relays        RelayJSON    `json:"relays"`
	Topic         string       `json:"topic"`
	LastChange    string       `json:"last_change,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// RelayJSON describes the relay bank.
type RelayJSON struct {
	Active   bool   `json:"active"`
	Address  string `json:"address"`
	Register string `json:"register"`
}

// MQTTStatus reports message bus connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of worker counters.
type CountsJSON struct {
	Cycles         int `json:"cycles"`
	RelayWrites    int `json:"relay_writes"`
	RelayFailures  int `json:"relay_failures"`
	Publishes      int `json:"publishes"`
	PublishErrors  int `json:"publish_errors"`
	SensorFailures int `json:"sensor_failures"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SiteID          string `json:"site_id"`
	SiteName        string `json:"site_name"`
	TickMs          int64  `json:"tick_ms"`
	PowerOnDelayMs  int64  `json:"power_on_delay_ms"`
	PowerOffDelayMs int64  `json:"power_off_delay_ms"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	Transport       string `json:"transport"`
	Broker          string `json:"broker"`
	HTTPAddr        string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Running: snap.Running,
		PowerOn: snap.State.PowerOn,
		Locked:  snap.State.ClubLocked,
		Closed:  snap.State.ClubIsClosed,
		Off:     snap.State.ClubOff,
		Lamp:    relay.Decode(snap.Relays).Lamp.String(),
		Relays: RelayJSON{
			Active:   snap.RelayActive,
			Address:  fmt.Sprintf("0x%02x", snap.RelayAddress),
			Register: fmt.Sprintf("0x%02x", snap.Relays),
		},
		Topic:         snap.Topic,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Cycles:         snap.Counts.Cycles,
			RelayWrites:    snap.Counts.RelayWrites,
			RelayFailures:  snap.Counts.RelayFailures,
			Publishes:      snap.Counts.Publishes,
			PublishErrors:  snap.Counts.PublishErrors,
			SensorFailures: snap.Counts.SensorFailures,
		},
		Config: ConfigJSON{
			SiteID:          snap.Config.SiteID,
			SiteName:        snap.Config.SiteName,
			TickMs:          snap.Config.TickMs,
			PowerOnDelayMs:  snap.Config.PowerOnDelayMs,
			PowerOffDelayMs: snap.Config.PowerOffDelayMs,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			Transport:       snap.Config.Transport,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
		},
	}
	if !snap.LastChange.IsZero() {
		inner.LastChange = snap.LastChange.UTC().Format(time.RFC3339)
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for a system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

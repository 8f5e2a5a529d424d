package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GPIO.LockPin != 17 || cfg.GPIO.StatusPin != 4 {
		t.Errorf("pins = (%d, %d), want (17, 4)", cfg.GPIO.LockPin, cfg.GPIO.StatusPin)
	}
	if cfg.Relay.Address != 0x20 || !cfg.Relay.Active {
		t.Errorf("relay = %+v, want active at 0x20", cfg.Relay)
	}
	if cfg.Power.Tick != time.Second || cfg.Power.OnDelay != 2*time.Second || cfg.Power.OffDelay != 20*time.Second {
		t.Errorf("power = %+v", cfg.Power)
	}
	if cfg.Publish.Topic != "club/status" || cfg.Publish.Transport != TransportMQTT {
		t.Errorf("publish = %+v", cfg.Publish)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
site:
  id: "downstairs"
gpio:
  chip: "gpiochip4"
  lock_pin: 22
  status_pin: 27
  debounce: 5ms
relay:
  active: false
  bus: "/dev/i2c-1"
  address: 0x27
power:
  tick: 500ms
  on_delay: 3s
  off_delay: 1m
publish:
  transport: nats
  topic: venue/club
nats:
  url: nats://broker:4222
heartbeat:
  interval: 0s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "downstairs" {
		t.Errorf("Site.ID = %q", cfg.Site.ID)
	}
	if cfg.GPIO.Chip != "gpiochip4" || cfg.GPIO.LockPin != 22 || cfg.GPIO.StatusPin != 27 {
		t.Errorf("GPIO = %+v", cfg.GPIO)
	}
	if cfg.GPIO.Debounce != 5*time.Millisecond {
		t.Errorf("GPIO.Debounce = %v, want 5ms", cfg.GPIO.Debounce)
	}
	if cfg.Relay.Active || cfg.Relay.Bus != "/dev/i2c-1" || cfg.Relay.Address != 0x27 {
		t.Errorf("Relay = %+v", cfg.Relay)
	}
	if cfg.Power.Tick != 500*time.Millisecond || cfg.Power.OffDelay != time.Minute {
		t.Errorf("Power = %+v", cfg.Power)
	}
	if cfg.Publish.Transport != TransportNATS || cfg.Publish.Topic != "venue/club" {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
	if cfg.Heartbeat.Interval != 0 {
		t.Errorf("Heartbeat.Interval = %v, want 0", cfg.Heartbeat.Interval)
	}
	// untouched sections keep their defaults
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("MQTT.Broker = %q", cfg.MQTT.Broker)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker: tcp://file:1883
`)
	t.Setenv("CLUB_MQTT_BROKER", "tcp://env:1883")
	t.Setenv("CLUB_RELAY_ADDRESS", "0x21")
	t.Setenv("CLUB_RELAY_ACTIVE", "false")
	t.Setenv("CLUB_POWER_OFF_DELAY", "45s")
	t.Setenv("CLUB_GPIO_LOCK_PIN", "5")
	t.Setenv("CLUB_LOG_LEVEL", "debug")
	t.Setenv("CLUB_SITE_NAME", "Upstairs Club")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker != "tcp://env:1883" {
		t.Errorf("MQTT.Broker = %q, want env value", cfg.MQTT.Broker)
	}
	if cfg.Relay.Address != 0x21 || cfg.Relay.Active {
		t.Errorf("Relay = %+v", cfg.Relay)
	}
	if cfg.Power.OffDelay != 45*time.Second {
		t.Errorf("Power.OffDelay = %v", cfg.Power.OffDelay)
	}
	if cfg.GPIO.LockPin != 5 {
		t.Errorf("GPIO.LockPin = %d", cfg.GPIO.LockPin)
	}
	if cfg.Site.Name != "Upstairs Club" {
		t.Errorf("Site.Name = %q", cfg.Site.Name)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_BadEnvOverride(t *testing.T) {
	t.Setenv("CLUB_POWER_TICK", "soon")
	t.Setenv("CLUB_MQTT_QOS", "one")

	_, err := Load("")
	if err == nil {
		t.Fatal("Load() expected error for bad env values")
	}
	if !strings.Contains(err.Error(), "CLUB_POWER_TICK") || !strings.Contains(err.Error(), "CLUB_MQTT_QOS") {
		t.Errorf("error should name both variables: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"address too low", func(c *Config) { c.Relay.Address = 0x02 }, "relay.address"},
		{"address too high", func(c *Config) { c.Relay.Address = 0x78 }, "relay.address"},
		{"same pins", func(c *Config) { c.GPIO.StatusPin = c.GPIO.LockPin }, "must differ"},
		{"negative pin", func(c *Config) { c.GPIO.LockPin = -1 }, "non-negative"},
		{"zero tick", func(c *Config) { c.Power.Tick = 0 }, "power.tick"},
		{"negative delay", func(c *Config) { c.Power.OnDelay = -time.Second }, "power delays"},
		{"bad transport", func(c *Config) { c.Publish.Transport = "carrier-pigeon" }, "publish.transport"},
		{"empty topic", func(c *Config) { c.Publish.Topic = "" }, "publish.topic"},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"no broker", func(c *Config) { c.MQTT.Broker = "" }, "mqtt.broker"},
		{"no nats url", func(c *Config) {
			c.Publish.Transport = TransportNATS
			c.NATS.URL = ""
		}, "nats.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi-helper.env")
	content := "NETWORK_STATUS=connected\nNETWORK_IP=\"10.0.0.9\"\n# comment\nNETWORK_TYPE=wifi\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	// Setenv registers the restore; the variables must be absent, not empty,
	// for the file to apply.
	for _, key := range []string{"NETWORK_STATUS", "NETWORK_IP"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("NETWORK_TYPE", "ethernet")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}

	if got := os.Getenv("NETWORK_IP"); got != "10.0.0.9" {
		t.Errorf("NETWORK_IP = %q, want 10.0.0.9", got)
	}
	if got := os.Getenv("NETWORK_TYPE"); got != "ethernet" {
		t.Errorf("existing variable overridden: NETWORK_TYPE = %q", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should not be an error: %v", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("empty path should not be an error: %v", err)
	}
}

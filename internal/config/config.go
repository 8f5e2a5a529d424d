// Package config loads the controller configuration.
//
// The loading order is defaults, then the YAML file, then CLUB_* environment
// variables, then validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Publish transports.
const (
	TransportMQTT = "mqtt"
	TransportNATS = "nats"
)

// 7-bit I2C addresses usable by the relay driver.
const (
	minRelayAddress = 0x03
	maxRelayAddress = 0x77
)

// Config is the root configuration structure.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	Relay     RelayConfig     `yaml:"relay"`
	Power     PowerConfig     `yaml:"power"`
	Publish   PublishConfig   `yaml:"publish"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	NATS      NATSConfig      `yaml:"nats"`
	HTTP      HTTPConfig      `yaml:"http"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Logging   LoggingConfig   `yaml:"logging"`

	// EnvFile is a dotenv file with network details for the status page.
	EnvFile string `yaml:"env_file"`
}

// SiteConfig names the installation.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// GPIOConfig contains the sensor line assignment (BCM numbering).
type GPIOConfig struct {
	Chip      string        `yaml:"chip"`
	LockPin   int           `yaml:"lock_pin"`
	StatusPin int           `yaml:"status_pin"`
	Debounce  time.Duration `yaml:"debounce"`
}

// RelayConfig contains the relay bank settings.
type RelayConfig struct {
	Active  bool   `yaml:"active"`
	Bus     string `yaml:"bus"`
	Address uint8  `yaml:"address"`
}

// PowerConfig contains the power sequencing timings.
type PowerConfig struct {
	Tick     time.Duration `yaml:"tick"`
	OnDelay  time.Duration `yaml:"on_delay"`
	OffDelay time.Duration `yaml:"off_delay"`
}

// PublishConfig selects the message bus and status topic.
type PublishConfig struct {
	Transport string `yaml:"transport"`
	Topic     string `yaml:"topic"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      int    `yaml:"qos"`
}

// NATSConfig contains NATS connection settings.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig contains the status server settings. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// HeartbeatConfig contains the periodic republish interval. Zero disables it.
type HeartbeatConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns a Config with the standard hardware binding and timings.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "club",
			Name: "Club",
		},
		GPIO: GPIOConfig{
			Chip:      "gpiochip0",
			LockPin:   17,
			StatusPin: 4,
		},
		Relay: RelayConfig{
			Active:  true,
			Bus:     "",
			Address: 0x20,
		},
		Power: PowerConfig{
			Tick:     time.Second,
			OnDelay:  2 * time.Second,
			OffDelay: 20 * time.Second,
		},
		Publish: PublishConfig{
			Transport: TransportMQTT,
			Topic:     "club/status",
		},
		MQTT: MQTTConfig{
			Broker: "tcp://localhost:1883",
			QoS:    0,
		},
		NATS: NATSConfig{
			URL: "nats://localhost:4222",
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
		Heartbeat: HeartbeatConfig{
			Interval: 15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		EnvFile: "/run/pi-helper.env",
	}
}

// Load reads configuration from a YAML file and applies environment
// variable overrides. An empty path skips the file.
//
// Environment variables follow the pattern CLUB_SECTION_KEY, for example
// CLUB_MQTT_BROKER or CLUB_RELAY_ADDRESS.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile loads a dotenv file into the process environment without
// overriding variables already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	var errs []string
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = d
		}
	}

	str("CLUB_SITE_ID", &cfg.Site.ID)
	str("CLUB_SITE_NAME", &cfg.Site.Name)

	str("CLUB_GPIO_CHIP", &cfg.GPIO.Chip)
	num("CLUB_GPIO_LOCK_PIN", &cfg.GPIO.LockPin)
	num("CLUB_GPIO_STATUS_PIN", &cfg.GPIO.StatusPin)
	dur("CLUB_GPIO_DEBOUNCE", &cfg.GPIO.Debounce)

	if v := os.Getenv("CLUB_RELAY_ACTIVE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("CLUB_RELAY_ACTIVE: %v", err))
		} else {
			cfg.Relay.Active = b
		}
	}
	str("CLUB_RELAY_BUS", &cfg.Relay.Bus)
	if v := os.Getenv("CLUB_RELAY_ADDRESS"); v != "" {
		// accepts 0x20, 32 or 040
		n, err := strconv.ParseUint(v, 0, 8)
		if err != nil {
			errs = append(errs, fmt.Sprintf("CLUB_RELAY_ADDRESS: %v", err))
		} else {
			cfg.Relay.Address = uint8(n)
		}
	}

	dur("CLUB_POWER_TICK", &cfg.Power.Tick)
	dur("CLUB_POWER_ON_DELAY", &cfg.Power.OnDelay)
	dur("CLUB_POWER_OFF_DELAY", &cfg.Power.OffDelay)

	str("CLUB_PUBLISH_TRANSPORT", &cfg.Publish.Transport)
	str("CLUB_PUBLISH_TOPIC", &cfg.Publish.Topic)

	str("CLUB_MQTT_BROKER", &cfg.MQTT.Broker)
	str("CLUB_MQTT_CLIENT_ID", &cfg.MQTT.ClientID)
	str("CLUB_MQTT_USERNAME", &cfg.MQTT.Username)
	str("CLUB_MQTT_PASSWORD", &cfg.MQTT.Password)
	num("CLUB_MQTT_QOS", &cfg.MQTT.QoS)

	str("CLUB_NATS_URL", &cfg.NATS.URL)

	str("CLUB_HTTP_ADDR", &cfg.HTTP.Addr)
	dur("CLUB_HEARTBEAT_INTERVAL", &cfg.Heartbeat.Interval)

	str("CLUB_LOG_LEVEL", &cfg.Logging.Level)
	str("CLUB_LOG_FORMAT", &cfg.Logging.Format)

	if len(errs) > 0 {
		return fmt.Errorf("environment overrides: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.GPIO.LockPin < 0 || c.GPIO.StatusPin < 0 {
		errs = append(errs, "gpio pins must be non-negative")
	} else if c.GPIO.LockPin == c.GPIO.StatusPin {
		errs = append(errs, "gpio.lock_pin and gpio.status_pin must differ")
	}
	if c.GPIO.Debounce < 0 {
		errs = append(errs, "gpio.debounce must not be negative")
	}

	if c.Relay.Address < minRelayAddress || c.Relay.Address > maxRelayAddress {
		errs = append(errs, fmt.Sprintf("relay.address 0x%02x outside 0x%02x..0x%02x",
			c.Relay.Address, minRelayAddress, maxRelayAddress))
	}

	if c.Power.Tick <= 0 {
		errs = append(errs, "power.tick must be positive")
	}
	if c.Power.OnDelay < 0 || c.Power.OffDelay < 0 {
		errs = append(errs, "power delays must not be negative")
	}

	switch c.Publish.Transport {
	case TransportMQTT:
		if c.MQTT.Broker == "" {
			errs = append(errs, "mqtt.broker is required")
		}
	case TransportNATS:
		if c.NATS.URL == "" {
			errs = append(errs, "nats.url is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("publish.transport %q must be mqtt or nats", c.Publish.Transport))
	}
	if c.Publish.Topic == "" {
		errs = append(errs, "publish.topic is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Heartbeat.Interval < 0 {
		errs = append(errs, "heartbeat.interval must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Command club-controller drives the club lock and power relays from the
// lock and status sensor lines and publishes state changes to a message bus.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/club-controller/internal/club"
	"github.com/sweeney/club-controller/internal/config"
	"github.com/sweeney/club-controller/internal/gpio"
	"github.com/sweeney/club-controller/internal/heartbeat"
	"github.com/sweeney/club-controller/internal/logging"
	"github.com/sweeney/club-controller/internal/logic"
	"github.com/sweeney/club-controller/internal/metrics"
	"github.com/sweeney/club-controller/internal/mqtt"
	"github.com/sweeney/club-controller/internal/natsbus"
	"github.com/sweeney/club-controller/internal/relay"
	"github.com/sweeney/club-controller/internal/status"
	"github.com/sweeney/club-controller/internal/web"
)

var version = "dev"

// CLI flags. Flags override the config file and environment.
type CLI struct {
	Config     string           `short:"c" help:"Configuration file path (defaults and CLUB_* env only when empty)" type:"path"`
	Verbose    bool             `short:"v" help:"Enable debug logging"`
	PrintState bool             `help:"Print current sensor state and exit"`
	Broker     string           `help:"MQTT broker address"`
	HTTP       string           `name:"http" help:"HTTP status address (\"off\" disables)"`
	Version    kong.VersionFlag `help:"Show version and exit"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("club-controller"),
		kong.Description("Club lock and power relay controller."),
		kong.Vars{"version": version},
	)

	if err := run(cli); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cli CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging, version)
	if cfg.Site.ID != "" {
		logger = logger.With("site", cfg.Site.ID)
	}
	slog.SetDefault(logger)

	if err := config.LoadEnvFile(cfg.EnvFile); err != nil {
		logger.Warn("env file not loaded", "path", cfg.EnvFile, "error", err)
	}

	lines, err := gpio.NewRealLines(cfg.GPIO.Chip, cfg.GPIO.Debounce)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer lines.Close()

	if cli.PrintState {
		return printState(os.Stdout, lines, cfg.GPIO.LockPin, cfg.GPIO.StatusPin)
	}

	pub, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer pub.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		SiteID:          cfg.Site.ID,
		SiteName:        cfg.Site.Name,
		TickMs:          cfg.Power.Tick.Milliseconds(),
		PowerOnDelayMs:  cfg.Power.OnDelay.Milliseconds(),
		PowerOffDelayMs: cfg.Power.OffDelay.Milliseconds(),
		HeartbeatMs:     cfg.Heartbeat.Interval.Milliseconds(),
		Transport:       cfg.Publish.Transport,
		Broker:          brokerAddress(cfg),
		HTTPAddr:        cfg.HTTP.Addr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	clock := clockwork.NewRealClock()

	ctl := club.New(lines, relay.OpenI2C(cfg.Relay.Bus), pub, club.Config{
		PinLock:       cfg.GPIO.LockPin,
		PinStatus:     cfg.GPIO.StatusPin,
		Tick:          cfg.Power.Tick,
		PowerOnDelay:  cfg.Power.OnDelay,
		PowerOffDelay: cfg.Power.OffDelay,
	},
		club.WithClock(clock),
		club.WithLogger(logger),
		club.WithMetrics(rec),
		club.WithTracker(tracker),
	)
	if err := ctl.Start(cfg.Relay.Active, cfg.Relay.Address, cfg.Publish.Topic); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}
	defer ctl.Stop()

	publishLifecycle(pub, pub, tracker, "STARTUP", "", clock.Now(), logger)

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, ctl, metrics.HTTPHandler(reg),
			web.WithConnection(pub))
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	if cfg.Heartbeat.Interval > 0 {
		hb, err := heartbeat.New(cfg.Heartbeat.Interval, func() {
			beat(pub, pub, tracker, ctl, clock.Now(), logger)
		}, heartbeat.WithClock(clock), heartbeat.WithLogger(logger))
		if err != nil {
			return err
		}
		hb.Start()
		defer hb.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	s := <-sigCh
	logger.Info("shutting down", "signal", s)
	publishLifecycle(pub, pub, tracker, "SHUTDOWN", signalName(s), clock.Now(), logger)
	return nil
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig(cli CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, cli)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating flags: %w", err)
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, cli CLI) {
	if cli.Verbose {
		cfg.Logging.Level = "debug"
	}
	if cli.Broker != "" {
		cfg.MQTT.Broker = cli.Broker
	}
	switch cli.HTTP {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = cli.HTTP
	}
}

// busPublisher is what both message bus transports provide.
type busPublisher interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (busPublisher, error) {
	if cfg.Publish.Transport == config.TransportNATS {
		p, err := natsbus.Connect(cfg.NATS.URL, logging.ServiceName, cfg.Publish.Topic, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return mqtt.NewRealPublisher(mqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		QoS:      byte(cfg.MQTT.QoS),
		Topic:    cfg.Publish.Topic,
		Logger:   logger,
	}), nil
}

func brokerAddress(cfg *config.Config) string {
	if cfg.Publish.Transport == config.TransportNATS {
		return cfg.NATS.URL
	}
	return cfg.MQTT.Broker
}

// publishLifecycle sends a retained lifecycle event carrying the full status
// snapshot on the system topic.
func publishLifecycle(pub mqtt.Publisher, conn mqtt.ConnectionStatus, tracker *status.Tracker, event, reason string, now time.Time, logger *slog.Logger) {
	tracker.SetMQTTConnected(conn.IsConnected())
	snap := tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  now,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := pub.PublishSystem(ev); err != nil {
		logger.Warn("failed to publish lifecycle event", "event", event, "error", err)
		return
	}
	logger.Info("published lifecycle event", "event", event)
}

// refresher forces a status cycle.
type refresher interface {
	SetRelay()
}

// beat refreshes connectivity and network details, publishes a HEARTBEAT
// lifecycle event and asks the controller to republish the current status.
func beat(pub mqtt.Publisher, conn mqtt.ConnectionStatus, tracker *status.Tracker, ctl refresher, now time.Time, logger *slog.Logger) {
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(conn.IsConnected())
	snap := tracker.Snapshot()
	logger.Info("heartbeat",
		"uptime", snap.Uptime().Truncate(time.Second),
		"cycles", snap.Counts.Cycles,
		"publish_errors", snap.Counts.PublishErrors,
	)

	ev := mqtt.SystemEvent{
		Timestamp:  now,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := pub.PublishSystem(ev); err != nil {
		logger.Warn("heartbeat publish error", "error", err)
	}
	ctl.SetRelay()
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

// printState reads both sensor lines once and prints the decoded state.
func printState(w io.Writer, lines gpio.Lines, lockPin, statusPin int) error {
	lock, err := lines.Read(lockPin)
	if err != nil {
		return fmt.Errorf("read lock pin %d: %w", lockPin, err)
	}
	st, err := lines.Read(statusPin)
	if err != nil {
		return fmt.Errorf("read status pin %d: %w", statusPin, err)
	}

	lockState := "UNLOCKED"
	if logic.LockedFromLevel(lock) {
		lockState = "LOCKED"
	}
	clubState := "OPEN"
	if logic.StatusClosedFromLevel(st) {
		clubState = "CLOSED"
	}
	fmt.Fprintf(w, "Lock: %s, Club: %s\n", lockState, clubState)
	return nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// Package club is the concurrency core of the club controller.
//
// Two sensor edge handlers, a re-armed power sequencing timer and the
// operator overrides all mutate one State under its mutex and signal its
// condition variable. A single relay worker waits on that condition, writes
// the derived output pattern to the relay bank and publishes the new status.
package club

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sweeney/club-controller/internal/gpio"
	"github.com/sweeney/club-controller/internal/logic"
	"github.com/sweeney/club-controller/internal/metrics"
	"github.com/sweeney/club-controller/internal/relay"
	"github.com/sweeney/club-controller/internal/status"
)

// ErrAlreadyRunning is returned by Start on a running controller.
var ErrAlreadyRunning = errors.New("club: controller already running")

// Publisher is the message bus the worker publishes status to.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Config holds the controller timing and pin assignment.
type Config struct {
	PinLock   int
	PinStatus int

	// Tick is the power sequencing interval.
	Tick          time.Duration
	PowerOnDelay  time.Duration
	PowerOffDelay time.Duration
}

// DefaultConfig returns the standard pin assignment and timings.
func DefaultConfig() Config {
	return Config{
		PinLock:       gpio.DefaultPinLock,
		PinStatus:     gpio.DefaultPinStatus,
		Tick:          time.Second,
		PowerOnDelay:  2 * time.Second,
		PowerOffDelay: 20 * time.Second,
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock driving the power timer and event timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithTracker feeds worker activity to a status tracker.
func WithTracker(t *status.Tracker) Option {
	return func(c *Controller) { c.tracker = t }
}

// Controller owns the lifecycle of the state, handlers, timer and worker.
type Controller struct {
	lines   gpio.Lines
	openBus relay.Opener
	pub     Publisher
	cfg     Config

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics metrics.Recorder
	tracker *status.Tracker

	// mu serializes Start and Stop.
	mu    sync.Mutex
	state *State
	seq   *logic.Sequencer
	bus   relay.Bus
	done  chan struct{}

	// timerGen is bumped by cancelTimer; callbacks armed under an older
	// generation are ignored.
	timerMu  sync.Mutex
	timer    clockwork.Timer
	timerGen uint64
}

// New creates a stopped controller.
func New(lines gpio.Lines, openBus relay.Opener, pub Publisher, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		lines:   lines,
		openBus: openBus,
		pub:     pub,
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
		metrics: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "club")
	return c
}

// Start initializes the relay bank at relayAddress, installs the sensor
// handlers, arms the power timer and spawns the relay worker. On error
// nothing is left running.
func (c *Controller) Start(relayActive bool, relayAddress uint8, topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != nil {
		return ErrAlreadyRunning
	}

	if err := relay.ValidAddress(relayAddress); err != nil {
		return err
	}
	bus, err := c.openBus(relayAddress)
	if err != nil {
		return fmt.Errorf("open relay bus: %w", err)
	}
	if err := relay.Init(bus); err != nil {
		bus.Close()
		return fmt.Errorf("init relay bank: %w", err)
	}

	lockLevel, err := c.lines.Read(c.cfg.PinLock)
	if err != nil {
		bus.Close()
		return fmt.Errorf("read lock pin %d: %w", c.cfg.PinLock, err)
	}
	statusLevel, err := c.lines.Read(c.cfg.PinStatus)
	if err != nil {
		bus.Close()
		return fmt.Errorf("read status pin %d: %w", c.cfg.PinStatus, err)
	}

	st := newState(relayActive, relayAddress)
	if err := c.lines.Watch(c.cfg.PinLock, gpio.EdgeHandlerFunc(func() { c.lockEdge(st) })); err != nil {
		bus.Close()
		return fmt.Errorf("watch lock pin %d: %w", c.cfg.PinLock, err)
	}
	if err := c.lines.Watch(c.cfg.PinStatus, gpio.EdgeHandlerFunc(func() { c.statusEdge(st) })); err != nil {
		c.lines.Unwatch(c.cfg.PinLock)
		bus.Close()
		return fmt.Errorf("watch status pin %d: %w", c.cfg.PinStatus, err)
	}

	st.start(logic.LockedFromLevel(lockLevel), logic.StatusClosedFromLevel(statusLevel))
	// Edges between the initial read and start were dropped; read again.
	c.lockEdge(st)
	c.statusEdge(st)

	c.state = st
	c.seq = logic.NewSequencer(c.cfg.PowerOnDelay, c.cfg.PowerOffDelay)
	c.bus = bus
	c.done = make(chan struct{})

	c.timerMu.Lock()
	c.armTimer()
	c.timerMu.Unlock()

	go c.run(st, bus, topic, c.done)

	if c.tracker != nil {
		c.tracker.SetRunning(true, relayActive, relayAddress, topic)
	}
	c.logger.Info("started",
		"relay_active", relayActive,
		"relay_address", fmt.Sprintf("0x%02x", relayAddress),
		"topic", topic,
		"tick", c.cfg.Tick,
		"on_delay", c.cfg.PowerOnDelay,
		"off_delay", c.cfg.PowerOffDelay,
	)
	return nil
}

// Stop terminates the worker and the timer and releases the hardware. The
// relays keep their last commanded pattern. Stop is idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return
	}

	st := c.state
	st.stop()
	c.cancelTimer()
	<-c.done

	if err := c.lines.Unwatch(c.cfg.PinLock); err != nil {
		c.logger.Warn("unwatch lock pin", "error", err)
	}
	if err := c.lines.Unwatch(c.cfg.PinStatus); err != nil {
		c.logger.Warn("unwatch status pin", "error", err)
	}
	if err := c.bus.Close(); err != nil {
		c.logger.Warn("close relay bus", "error", err)
	}

	c.state = nil
	c.bus = nil
	if c.tracker != nil {
		c.tracker.SetRunning(false, st.RelayActive(), st.RelayAddress(), "")
	}
	c.logger.Info("stopped")
}

// TogglePower flips the master off-switch. It takes effect on the next
// worker cycle without waiting for the power timer.
func (c *Controller) TogglePower() {
	st := c.current()
	if st == nil {
		c.logger.Warn("toggle power ignored, controller not running")
		return
	}
	if off, ok := st.toggleOff(); ok {
		c.logger.Info("power toggled", "off", off)
	}
}

// SetRelay forces a relay write and publish cycle with the current state.
func (c *Controller) SetRelay() {
	st := c.current()
	if st == nil {
		c.logger.Warn("set relay ignored, controller not running")
		return
	}
	if st.touch() {
		c.logger.Info("relay refresh requested")
	}
}

// Snapshot returns the current state, and false if the controller is stopped.
func (c *Controller) Snapshot() (logic.Snapshot, bool) {
	st := c.current()
	if st == nil {
		return logic.Snapshot{}, false
	}
	return st.Snapshot(), true
}

func (c *Controller) current() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

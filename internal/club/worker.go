package club

import (
	"github.com/sweeney/club-controller/internal/logic"
	"github.com/sweeney/club-controller/internal/metrics"
	"github.com/sweeney/club-controller/internal/mqtt"
	"github.com/sweeney/club-controller/internal/relay"
)

// run is the relay worker loop. It applies the latest snapshot after every
// wake and exits, without touching the hardware, once the state stops.
func (c *Controller) run(st *State, bus relay.Bus, topic string, done chan<- struct{}) {
	defer close(done)

	var prev logic.Snapshot
	first := true
	for {
		snap, ok := st.wait()
		if !ok {
			c.logger.Debug("relay worker exiting")
			return
		}
		c.metrics.Wake()

		reg := relay.Compute(snap, st.RelayActive()).Register()
		c.writeRelayOutputs(bus, reg)

		ev := logic.Event{
			Timestamp: c.clock.Now(),
			Type:      logic.EventStatus,
			Changes:   logic.Diff(prev, snap),
			State:     snap,
			Relays:    reg,
		}
		switch {
		case first:
			ev.Type = logic.EventStartup
			ev.Changes = nil
		case ev.Changes == nil:
			ev.Type = logic.EventRefresh
		}
		c.publishStatus(topic, ev)

		c.metrics.State(snap)
		if c.tracker != nil {
			c.tracker.Update(snap, reg, ev.Timestamp)
		}
		prev = snap
		first = false
	}
}

// writeRelayOutputs writes the output register, retrying once.
func (c *Controller) writeRelayOutputs(bus relay.Bus, reg byte) {
	err := bus.WriteRegister(relay.RegOutput0, reg)
	if err == nil {
		c.recordWrite(metrics.WriteOK)
		return
	}
	c.logger.Warn("relay write failed, retrying", "register", reg, "error", err)

	if err = bus.WriteRegister(relay.RegOutput0, reg); err == nil {
		c.recordWrite(metrics.WriteRetried)
		return
	}
	c.logger.Error("relay write failed", "register", reg, "error", err)
	c.recordWrite(metrics.WriteFailed)
}

func (c *Controller) recordWrite(result string) {
	c.metrics.RelayWrite(result)
	if c.tracker != nil {
		c.tracker.RecordRelayWrite(result != metrics.WriteFailed)
	}
}

// publishStatus sends one status message. Failures are logged only.
func (c *Controller) publishStatus(topic string, ev logic.Event) {
	payload, err := mqtt.FormatPayload(ev)
	if err == nil {
		err = c.pub.Publish(topic, payload)
	}
	c.metrics.Publish(err == nil)
	if c.tracker != nil {
		c.tracker.RecordPublish(err == nil)
	}
	if err != nil {
		c.logger.Warn("publish failed", "topic", topic, "event", ev.Type, "error", err)
		return
	}
	c.logger.Info("status published",
		"event", ev.Type,
		"changes", ev.Changes,
		"power_on", ev.State.PowerOn,
		"locked", ev.State.ClubLocked,
		"closed", ev.State.ClubIsClosed,
		"off", ev.State.ClubOff,
	)
}

package club

import "github.com/sweeney/club-controller/internal/logic"

// armTimer schedules the next power sequencing tick for the current timer
// generation. Caller holds timerMu.
func (c *Controller) armTimer() {
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(c.cfg.Tick, func() { c.setPowerState(gen) })
}

// setPowerState is the timer callback. It advances the sequencer against
// the current snapshot and re-arms itself until cancelTimer runs. A callback
// from an earlier generation, one that fired while cancelTimer was running,
// does nothing.
func (c *Controller) setPowerState(gen uint64) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if gen != c.timerGen {
		return
	}

	now := c.clock.Now()
	on, changed := c.state.applyPower(func(s logic.Snapshot) (bool, bool) {
		return c.seq.Step(s, now)
	})
	if changed {
		c.logger.Info("power sequenced", "power_on", on)
	}

	c.armTimer()
}

// cancelTimer stops the power timer and retires its generation. Once it
// returns no callback is running and none armed so far will act.
func (c *Controller) cancelTimer() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

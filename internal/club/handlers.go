package club

import "github.com/sweeney/club-controller/internal/logic"

// Sensor line names used in logs and metrics.
const (
	lineLock   = "lock"
	lineStatus = "status"
)

// lockEdge runs on every edge of the lock line. A failed read holds the
// last known state.
func (c *Controller) lockEdge(st *State) {
	level, err := c.lines.Read(c.cfg.PinLock)
	if err != nil {
		c.sensorError(lineLock, err)
		return
	}
	if st.setLocked(logic.LockedFromLevel(level)) {
		c.logger.Debug("lock edge", "locked", logic.LockedFromLevel(level))
	}
}

// statusEdge runs on every edge of the status line.
func (c *Controller) statusEdge(st *State) {
	level, err := c.lines.Read(c.cfg.PinStatus)
	if err != nil {
		c.sensorError(lineStatus, err)
		return
	}
	if st.setStatus(logic.StatusClosedFromLevel(level)) {
		c.logger.Debug("status edge", "closed", logic.StatusClosedFromLevel(level))
	}
}

func (c *Controller) sensorError(line string, err error) {
	c.logger.Warn("sensor read failed, holding last state", "line", line, "error", err)
	c.metrics.SensorError(line)
	if c.tracker != nil {
		c.tracker.RecordSensorError()
	}
}

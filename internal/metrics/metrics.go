// Package metrics records controller activity.
package metrics

import "github.com/sweeney/club-controller/internal/logic"

// Relay write outcomes.
const (
	WriteOK      = "ok"
	WriteRetried = "retried"
	WriteFailed  = "failed"
)

// Recorder receives controller events. Implementations must be safe for
// concurrent use: handlers, the power timer and the worker all record.
type Recorder interface {
	RelayWrite(result string)
	Publish(ok bool)
	SensorError(line string)
	Wake()
	State(s logic.Snapshot)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) RelayWrite(string)    {}
func (NoopRecorder) Publish(bool)         {}
func (NoopRecorder) SensorError(string)   {}
func (NoopRecorder) Wake()                {}
func (NoopRecorder) State(logic.Snapshot) {}

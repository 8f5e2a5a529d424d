package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/club-controller/internal/logic"
)

const namespace = "club"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	relayWrites  *prom.CounterVec
	publishes    *prom.CounterVec
	sensorErrors *prom.CounterVec
	wakes        prom.Counter
	state        *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		relayWrites: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "relay_writes_total",
			Help:      "Relay output writes by result",
		}, []string{"result"}),
		publishes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "publishes_total",
			Help:      "Status publications by result",
		}, []string{"result"}),
		sensorErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_read_errors_total",
			Help:      "Failed sensor line reads",
		}, []string{"line"}),
		wakes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "worker_wakes_total",
			Help:      "Relay worker wake-ups",
		}),
		state: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Current club state flags (1 = true)",
		}, []string{"flag"}),
	}
	reg.MustRegister(pr.relayWrites, pr.publishes, pr.sensorErrors, pr.wakes, pr.state)
	return pr
}

// RelayWrite counts a relay write outcome.
func (p *PrometheusRecorder) RelayWrite(result string) {
	p.relayWrites.WithLabelValues(result).Inc()
}

// Publish counts a publication outcome.
func (p *PrometheusRecorder) Publish(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	p.publishes.WithLabelValues(result).Inc()
}

// SensorError counts a failed line read.
func (p *PrometheusRecorder) SensorError(line string) {
	p.sensorErrors.WithLabelValues(line).Inc()
}

// Wake counts a worker wake-up.
func (p *PrometheusRecorder) Wake() {
	p.wakes.Inc()
}

// State exports the snapshot flags as gauges.
func (p *PrometheusRecorder) State(s logic.Snapshot) {
	p.state.WithLabelValues("power_on").Set(flag(s.PowerOn))
	p.state.WithLabelValues("locked").Set(flag(s.ClubLocked))
	p.state.WithLabelValues("closed").Set(flag(s.ClubIsClosed))
	p.state.WithLabelValues("off").Set(flag(s.ClubOff))
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// HTTPHandler returns an http.Handler that serves the metrics in reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

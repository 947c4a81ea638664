package sim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Loss reasons recorded by RunMetrics.ElementsLost.
const (
	LossFailed    = "failed"     // receiver in a failure episode
	LossQueueFull = "queue_full" // queue at capacity
	LossTooEarly  = "too_early"  // continuous transporter inside its minimum gap
	LossBusy      = "busy"       // mobile transporter in transit or full
	LossDiscarded = "discarded"  // transformer outputs dropped on failure
)

// RunMetrics are the Prometheus collectors for one run. Each instance owns
// its registry so concurrent runs in one process never share series.
type RunMetrics struct {
	registry *prometheus.Registry

	EventsExecuted    *prometheus.CounterVec
	ElementsCreated   *prometheus.CounterVec
	ElementsDelivered prometheus.Counter
	ElementsLost      *prometheus.CounterVec
	FailureEpisodes   *prometheus.CounterVec
	FinalClock        prometheus.Gauge
}

// NewRunMetrics creates and registers the run collectors.
func NewRunMetrics() *RunMetrics {
	r := prometheus.NewRegistry()
	f := promauto.With(r)
	return &RunMetrics{
		registry: r,
		EventsExecuted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "procsim_events_executed_total",
			Help: "Events executed by the scheduler, by kind",
		}, []string{"kind"}),
		ElementsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "procsim_elements_created_total",
			Help: "Elements created, by component",
		}, []string{"component"}),
		ElementsDelivered: f.NewCounter(prometheus.CounterOpts{
			Name: "procsim_elements_delivered_total",
			Help: "Elements collected by output components",
		}),
		ElementsLost: f.NewCounterVec(prometheus.CounterOpts{
			Name: "procsim_elements_lost_total",
			Help: "Elements refused or discarded, by reason",
		}, []string{"reason"}),
		FailureEpisodes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "procsim_failure_episodes_total",
			Help: "Failure episodes started, by component",
		}, []string{"component"}),
		FinalClock: f.NewGauge(prometheus.GaugeOpts{
			Name: "procsim_final_clock",
			Help: "Simulated time at which the run ended",
		}),
	}
}

// Registry returns the registry holding the run collectors.
func (m *RunMetrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the collectors in the node-exporter textfile format.
func (m *RunMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// The recorders below are no-ops on a nil receiver so the kernel can run
// without metrics.

func (m *RunMetrics) eventExecuted(kind EventKind) {
	if m != nil {
		m.EventsExecuted.WithLabelValues(string(kind)).Inc()
	}
}

func (m *RunMetrics) elementCreated(component string) {
	if m != nil {
		m.ElementsCreated.WithLabelValues(component).Inc()
	}
}

func (m *RunMetrics) elementDelivered() {
	if m != nil {
		m.ElementsDelivered.Inc()
	}
}

func (m *RunMetrics) elementLost(reason string) {
	if m != nil {
		m.ElementsLost.WithLabelValues(reason).Inc()
	}
}

func (m *RunMetrics) failureStarted(component string) {
	if m != nil {
		m.FailureEpisodes.WithLabelValues(component).Inc()
	}
}

func (m *RunMetrics) finished(clock float64) {
	if m != nil {
		m.FinalClock.Set(clock)
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PropagationMetrics holds the collectors for the permission propagation engine.
type PropagationMetrics struct {
	EventsTotal           *prometheus.CounterVec
	WorkspaceUpdatesTotal *prometheus.CounterVec
	PropagationSeconds    *prometheus.HistogramVec
	DeadLettersTotal      *prometheus.CounterVec
}

// NewPropagationMetrics creates the engine collectors.
func NewPropagationMetrics() *PropagationMetrics {
	return &PropagationMetrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crewsync_events_total",
			Help: "Team membership events consumed, by kind and result.",
		}, []string{"kind", "result"}),
		WorkspaceUpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crewsync_workspace_updates_total",
			Help: "Per-workspace membership updates, by result.",
		}, []string{"result"}),
		PropagationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crewsync_propagation_seconds",
			Help:    "Wall time of a full propagation per event, by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		DeadLettersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crewsync_dead_letters_total",
			Help: "Messages routed to the dead-letter topic, by kind and reason.",
		}, []string{"kind", "reason"}),
	}
}

// Register registers all engine collectors on the given registerer.
func (m *PropagationMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.EventsTotal,
		m.WorkspaceUpdatesTotal,
		m.PropagationSeconds,
		m.DeadLettersTotal,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

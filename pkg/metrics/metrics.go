package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ActionMetrics records interpreter activity.
type ActionMetrics struct {
	applied *prometheus.CounterVec
}

// NewActionMetrics registers the interpreter metrics on the provided registerer.
func NewActionMetrics(reg prometheus.Registerer) *ActionMetrics {
	if reg == nil {
		return &ActionMetrics{}
	}
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "actions_applied_total",
		Help: "Actions processed by the interpreter, by kind and result.",
	}, []string{"kind", "result"})
	reg.MustRegister(applied)
	return &ActionMetrics{applied: applied}
}

// IncApplied increments the applied counter for the kind/result pair.
func (a *ActionMetrics) IncApplied(kind, result string) {
	if a == nil || a.applied == nil {
		return
	}
	a.applied.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
}

// StateMetrics records reconciliation and disposal aggregation activity.
type StateMetrics struct {
	dropped          *prometheus.CounterVec
	statusResets     prometheus.Counter
	collectionEvents prometheus.Counter
}

// NewStateMetrics registers the state metrics on the provided registerer.
func NewStateMetrics(reg prometheus.Registerer) *StateMetrics {
	if reg == nil {
		return &StateMetrics{}
	}
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_dropped_records_total",
		Help: "Referentially invalid records dropped by the reconciliation pass.",
	}, []string{"entity"})
	statusResets := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_status_resets_total",
		Help: "Item statuses rewritten by the derived-status rule.",
	})
	collectionEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collection_events_created_total",
		Help: "Collection events synthesized by the disposal aggregation engine.",
	})
	reg.MustRegister(dropped, statusResets, collectionEvents)
	return &StateMetrics{
		dropped:          dropped,
		statusResets:     statusResets,
		collectionEvents: collectionEvents,
	}
}

// AddDropped records dropped records for the named entity.
func (s *StateMetrics) AddDropped(entity string, count int) {
	if s == nil || s.dropped == nil || count <= 0 {
		return
	}
	s.dropped.WithLabelValues(normalizeLabel(entity)).Add(float64(count))
}

// AddStatusResets records item status rewrites from a reconciliation pass.
func (s *StateMetrics) AddStatusResets(count int) {
	if s == nil || s.statusResets == nil || count <= 0 {
		return
	}
	s.statusResets.Add(float64(count))
}

// IncCollectionEvents increments the synthesized event counter.
func (s *StateMetrics) IncCollectionEvents() {
	if s == nil || s.collectionEvents == nil {
		return
	}
	s.collectionEvents.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

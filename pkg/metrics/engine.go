package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics counts business-rule outcomes of the quoting engine.
type EngineMetrics struct {
	guardRejections *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	tierResolutions *prometheus.CounterVec
	forceDeletes    prometheus.Counter
}

// NewEngineMetrics registers the engine counters on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	guardRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quoteengine_guard_rejections_total",
		Help: "Operations refused by a business guard, by reason.",
	}, []string{"reason"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quoteengine_project_transitions_total",
		Help: "Committed project status transitions.",
	}, []string{"from", "to"})
	tierResolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quoteengine_tier_resolutions_total",
		Help: "Customization tier resolutions by match mode (exact or fallback).",
	}, []string{"mode"})
	forceDeletes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quoteengine_project_force_deletes_total",
		Help: "Privileged cascading project deletions.",
	})
	reg.MustRegister(guardRejections, transitions, tierResolutions, forceDeletes)
	return &EngineMetrics{
		guardRejections: guardRejections,
		transitions:     transitions,
		tierResolutions: tierResolutions,
		forceDeletes:    forceDeletes,
	}
}

// GuardRejected counts a guard violation.
func (m *EngineMetrics) GuardRejected(reason string) {
	if m == nil || m.guardRejections == nil {
		return
	}
	m.guardRejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// Transitioned counts a committed project status change.
func (m *EngineMetrics) Transitioned(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// TierResolved counts a tier lookup; fallback marks an extrapolated or gap match.
func (m *EngineMetrics) TierResolved(fallback bool) {
	if m == nil || m.tierResolutions == nil {
		return
	}
	mode := "exact"
	if fallback {
		mode = "fallback"
	}
	m.tierResolutions.WithLabelValues(mode).Inc()
}

// ForceDeleted counts a privileged project deletion.
func (m *EngineMetrics) ForceDeleted() {
	if m == nil || m.forceDeletes == nil {
		return
	}
	m.forceDeletes.Inc()
}

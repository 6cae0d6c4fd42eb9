// Package metrics provides Prometheus metrics for the evaluation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager registers and exposes the engine's Prometheus metrics. A nil
// Manager is valid and records nothing, so instrumentation points never
// need to guard against an unconfigured setup.
type Manager struct {
	sessionsCreated      prometheus.Counter
	evaluationsSubmitted prometheus.Counter
	consensusComputed    *prometheus.CounterVec
	consensusFailed      prometheus.Counter
	oversightEscalations prometheus.Counter
	violationsRecorded   *prometheus.CounterVec
}

// NewManager creates a Manager registered against the given registerer.
// Pass prometheus.DefaultRegisterer for normal operation.
func NewManager(reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)
	return &Manager{
		sessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hiring_panel",
			Name:      "sessions_created_total",
			Help:      "Total evaluation sessions created.",
		}),
		evaluationsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hiring_panel",
			Name:      "evaluations_submitted_total",
			Help:      "Total evaluations submitted, including resubmissions.",
		}),
		consensusComputed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hiring_panel",
			Name:      "consensus_computations_total",
			Help:      "Total consensus computations by method.",
		}, []string{"method"}),
		consensusFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hiring_panel",
			Name:      "consensus_failures_total",
			Help:      "Total consensus computations rejected for insufficient or degenerate input.",
		}),
		oversightEscalations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hiring_panel",
			Name:      "oversight_escalations_total",
			Help:      "Total oversight requests escalated on deadline breach.",
		}),
		violationsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hiring_panel",
			Name:      "violations_recorded_total",
			Help:      "Total violations recorded by severity.",
		}, []string{"severity"}),
	}
}

// SessionCreated records one session creation.
func (m *Manager) SessionCreated() {
	if m != nil {
		m.sessionsCreated.Inc()
	}
}

// EvaluationSubmitted records one evaluation submission.
func (m *Manager) EvaluationSubmitted() {
	if m != nil {
		m.evaluationsSubmitted.Inc()
	}
}

// ConsensusComputed records one successful consensus computation.
func (m *Manager) ConsensusComputed(method string) {
	if m != nil {
		m.consensusComputed.WithLabelValues(method).Inc()
	}
}

// ConsensusFailed records one rejected consensus computation.
func (m *Manager) ConsensusFailed() {
	if m != nil {
		m.consensusFailed.Inc()
	}
}

// OversightEscalated records one escalated oversight request.
func (m *Manager) OversightEscalated() {
	if m != nil {
		m.oversightEscalations.Inc()
	}
}

// ViolationRecorded records one violation by severity.
func (m *Manager) ViolationRecorded(severity string) {
	if m != nil {
		m.violationsRecorded.WithLabelValues(severity).Inc()
	}
}

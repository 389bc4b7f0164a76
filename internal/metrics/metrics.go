// Package metrics holds the Prometheus collectors of the simulation backend.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Metrics groups the simulation collectors. A nil *Metrics records nothing.
type Metrics struct {
	GenerationAttemptsTotal *prometheus.CounterVec
	GenerationSeconds       *prometheus.HistogramVec
	StepsTotal              *prometheus.CounterVec
	UtterancesTotal         *prometheus.CounterVec
	DiscardedLinesTotal     prometheus.Counter
	ViolationsTotal         *prometheus.CounterVec
	ActiveSessions          prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		GenerationAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_generation_attempts_total",
				Help: "Provider attempts by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		GenerationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meeting_generation_seconds",
				Help:    "Provider attempt latency",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60},
			},
			[]string{"operation"},
		),
		StepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_steps_total",
				Help: "Agenda steps resolved by step id and outcome",
			},
			[]string{"step", "outcome"},
		),
		UtterancesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_utterances_total",
				Help: "Utterances parsed from generated text",
			},
			[]string{"step"},
		),
		DiscardedLinesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "meeting_transcript_discarded_lines_total",
				Help: "Generated lines dropped because no speaker could be attributed",
			},
		),
		ViolationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_compliance_violations_total",
				Help: "Welfare-rule violations detected in generated text",
			},
			[]string{"type", "severity"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "meeting_active_sessions",
				Help: "Simulation sessions held in memory",
			},
		),
	}
}

// RecordAttempt counts one provider attempt.
func (m *Metrics) RecordAttempt(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.GenerationAttemptsTotal.WithLabelValues(operation, outcome).Inc()
	m.GenerationSeconds.WithLabelValues(operation).Observe(seconds)
}

// RecordStep counts a resolved step and its parse results.
func (m *Metrics) RecordStep(step int, outcome string, utterances, discarded int) {
	if m == nil {
		return
	}
	label := strconv.Itoa(step)
	m.StepsTotal.WithLabelValues(label, outcome).Inc()
	if utterances > 0 {
		m.UtterancesTotal.WithLabelValues(label).Add(float64(utterances))
	}
	if discarded > 0 {
		m.DiscardedLinesTotal.Add(float64(discarded))
	}
}

// RecordViolation counts one compliance violation.
func (m *Metrics) RecordViolation(kind, severity string) {
	if m == nil {
		return
	}
	m.ViolationsTotal.WithLabelValues(kind, severity).Inc()
}

// SetActiveSessions publishes the session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

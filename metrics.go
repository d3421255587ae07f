package sss

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SearchMetrics counts search and update activity. A nil *SearchMetrics
// records nothing.
type SearchMetrics struct {
	rulesTested   prometheus.Counter
	outcomes      *prometheus.CounterVec
	shipsFound    *prometheus.CounterVec
	mergedSpeeds  *prometheus.CounterVec
	ruleSpaceBits prometheus.Gauge
}

// NewSearchMetrics registers the collectors on reg.
func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	f := promauto.With(reg)
	return &SearchMetrics{
		rulesTested: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sss",
			Subsystem: "search",
			Name:      "rules_tested_total",
			Help:      "Candidate rules tested",
		}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sss",
			Subsystem: "search",
			Name:      "outcomes_total",
			Help:      "Classifier outcomes by terminal state",
		}, []string{"state"}),
		shipsFound: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sss",
			Subsystem: "search",
			Name:      "ships_found_total",
			Help:      "Ships and oscillators reported by kind",
		}, []string{"kind"}),
		mergedSpeeds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sss",
			Subsystem: "update",
			Name:      "speeds_total",
			Help:      "Speeds added or improved by collection and change",
		}, []string{"collection", "change"}),
		ruleSpaceBits: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "sss",
			Subsystem: "search",
			Name:      "rule_space_bits",
			Help:      "Optional transitions in the current rule space",
		}),
	}
}

func (m *SearchMetrics) RuleTested(state ClassState) {
	if m == nil {
		return
	}
	m.rulesTested.Inc()
	m.outcomes.WithLabelValues(state.String()).Inc()
}

func (m *SearchMetrics) ShipFound(kind Kind) {
	if m == nil {
		return
	}
	m.shipsFound.WithLabelValues(kind.String()).Inc()
}

func (m *SearchMetrics) Merged(kind Kind, r MergeResult) {
	if m == nil {
		return
	}
	m.mergedSpeeds.WithLabelValues(kind.String(), "new").Add(float64(len(r.New)))
	m.mergedSpeeds.WithLabelValues(kind.String(), "improved").Add(float64(len(r.Improved)))
}

func (m *SearchMetrics) RuleSpace(bits int) {
	if m == nil {
		return
	}
	m.ruleSpaceBits.Set(float64(bits))
}

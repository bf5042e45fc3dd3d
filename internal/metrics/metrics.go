// Package metrics counts dispatcher firings with Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/evrule/internal/engine"
)

// Observer is an engine.Observer backed by Prometheus counters.
//
// Metrics:
//   - evrule_firings_total: Rule set firings by kind, rule set and outcome
//   - evrule_effects_total: Effect invocations by kind and rule set
//   - evrule_effect_failures_total: Effect invocations that returned an error
type Observer struct {
	firingsTotal  *prometheus.CounterVec
	effectsTotal  *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
}

var _ engine.Observer = (*Observer)(nil)

// NewObserver creates the collectors and registers them with reg.
// A nil reg uses the default registerer.
func NewObserver(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Observer{
		firingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evrule_firings_total",
				Help: "Total number of rule set firings",
			},
			[]string{"kind", "ruleset", "outcome"},
		),

		effectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evrule_effects_total",
				Help: "Total number of effect invocations",
			},
			[]string{"kind", "ruleset"},
		),

		failuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evrule_effect_failures_total",
				Help: "Total number of effect invocations that failed",
			},
			[]string{"kind", "ruleset"},
		),
	}
}

// ObserveFiring counts one firing and its effects.
func (o *Observer) ObserveFiring(r engine.FiringResult) {
	o.firingsTotal.WithLabelValues(r.Kind, r.RuleSet, string(r.Outcome)).Inc()
	if len(r.Effects) == 0 {
		return
	}
	o.effectsTotal.WithLabelValues(r.Kind, r.RuleSet).Add(float64(len(r.Effects)))
	for _, e := range r.Effects {
		if e.Error != "" {
			o.failuresTotal.WithLabelValues(r.Kind, r.RuleSet).Inc()
		}
	}
}

// WriteTextfile writes every metric gathered from g to path in the text
// exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evrule/internal/engine"
	"github.com/roach88/evrule/internal/ir"
)

func executed(ruleSet string, effectErrors ...string) engine.FiringResult {
	r := engine.FiringResult{Kind: "WhenCrush", RuleSet: ruleSet, Outcome: engine.OutcomeExecuted}
	for i, e := range effectErrors {
		r.Effects = append(r.Effects, engine.EffectRecord{
			Component: i,
			Via:       ir.Target{Scope: ir.ScopeMe},
			Target:    1,
			Error:     e,
		})
	}
	return r
}

func TestObserveFiring_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewObserver(reg)

	o.ObserveFiring(executed("Weaken", "", ""))
	o.ObserveFiring(executed("Weaken", "", "HP.Change: boom"))
	o.ObserveFiring(engine.FiringResult{Kind: "WhenCrush", RuleSet: "Weaken", Outcome: engine.OutcomeAborted})
	o.ObserveFiring(engine.FiringResult{Kind: "WhenCrush", RuleSet: "Loop", Outcome: engine.OutcomeRefused})

	assert.Equal(t, 2.0, testutil.ToFloat64(o.firingsTotal.WithLabelValues("WhenCrush", "Weaken", "executed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.firingsTotal.WithLabelValues("WhenCrush", "Weaken", "aborted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.firingsTotal.WithLabelValues("WhenCrush", "Loop", "refused")))
	assert.Equal(t, 4.0, testutil.ToFloat64(o.effectsTotal.WithLabelValues("WhenCrush", "Weaken")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.failuresTotal.WithLabelValues("WhenCrush", "Weaken")))
}

func TestObserveFiring_NoEffectsNoSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewObserver(reg)

	o.ObserveFiring(engine.FiringResult{Kind: "WhenCreated", RuleSet: "Guard", Outcome: engine.OutcomeAborted})

	assert.Equal(t, 1, testutil.CollectAndCount(o.firingsTotal))
	assert.Equal(t, 0, testutil.CollectAndCount(o.effectsTotal))
}

func TestObserveFiring_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewObserver(reg)
	o.ObserveFiring(executed("Weaken", ""))

	expected := `
# HELP evrule_firings_total Total number of rule set firings
# TYPE evrule_firings_total counter
evrule_firings_total{kind="WhenCrush",outcome="executed",ruleset="Weaken"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "evrule_firings_total"))
}

func TestNewObserver_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewObserver(reg)
	assert.Panics(t, func() { NewObserver(reg) })
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewObserver(reg)
	o.ObserveFiring(executed("Weaken", ""))

	path := filepath.Join(t.TempDir(), "evrule.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `evrule_effects_total{kind="WhenCrush",ruleset="Weaken"} 1`)
}

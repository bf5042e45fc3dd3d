package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesPaths(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/crush_weakens.yaml")
	require.NoError(t, err)

	assert.Equal(t, "crush_weakens", s.Name)
	assert.Equal(t, filepath.Join("testdata", "rules", "crush"), s.Rules)
	assert.Equal(t, filepath.Join("testdata", "worlds", "duel.yaml"), s.World)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "WhenCrush", s.Steps[0].Fire)
	assert.Equal(t, int64(1), s.Steps[0].Me)
	require.Len(t, s.Steps[0].Expect, 3)
	assert.Equal(t, "They", s.Steps[0].Expect[2].AbortedAt)
	assert.Len(t, s.Assertions, 5)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "misspelled key"
rules: rules
world: world.yaml
steps:
  - fire: WhenCrush
assertion: []
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing name",
			body: "description: d\nrules: rules\nworld: world.yaml\nsteps: [{fire: X}]\n",
			want: "name is required",
		},
		{
			name: "missing steps",
			body: "name: n\ndescription: d\nrules: rules\nworld: world.yaml\n",
			want: "steps list is required",
		},
		{
			name: "missing rules dir",
			body: "name: n\ndescription: d\nrules: nowhere\nworld: world.yaml\nsteps: [{fire: X}]\n",
			want: "rules directory not found",
		},
		{
			name: "step without kind",
			body: "name: n\ndescription: d\nrules: rules\nworld: world.yaml\nsteps: [{me: 1}]\n",
			want: "steps[0]: fire is required",
		},
		{
			name: "bad expected outcome",
			body: "name: n\ndescription: d\nrules: rules\nworld: world.yaml\nsteps: [{fire: X, expect: [{ruleset: A, outcome: done}]}]\n",
			want: `unknown outcome "done"`,
		},
		{
			name: "unknown assertion",
			body: "name: n\ndescription: d\nrules: rules\nworld: world.yaml\nsteps: [{fire: X}]\nassertions: [{type: trace_contains}]\n",
			want: `unknown assertion type "trace_contains"`,
		},
		{
			name: "actor_state without expect",
			body: "name: n\ndescription: d\nrules: rules\nworld: world.yaml\nsteps: [{fire: X}]\nassertions: [{type: actor_state, actor: 1}]\n",
			want: "expect is required for actor_state",
		},
		{
			name: "fire_order without rulesets",
			body: "name: n\ndescription: d\nrules: rules\nworld: world.yaml\nsteps: [{fire: X}]\nassertions: [{type: fire_order}]\n",
			want: "rulesets list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, tt.body)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// writeScenario writes body next to an empty rules dir and world file.
func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "rules"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "world.yaml"), []byte("actors: []\n"), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

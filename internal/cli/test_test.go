package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evrule/internal/harness"
)

func TestTest_AllPass(t *testing.T) {
	out, err := execute(t, NewTestCommand(testOptions("text")), "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTest_JSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(testOptions("json")), "testdata/scenarios")
	require.NoError(t, err)

	var result harness.SuiteResult
	decodeData(t, out, &result)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)
}

func TestTest_Filter(t *testing.T) {
	out, err := execute(t, NewTestCommand(testOptions("text")), "testdata/scenarios", "--filter", "relay*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTest_FilterMatchesNothing(t *testing.T) {
	out, err := execute(t, NewTestCommand(testOptions("text")), "testdata/scenarios", "--filter", "nothing*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_BadFilter(t *testing.T) {
	_, err := execute(t, NewTestCommand(testOptions("text")), "testdata/scenarios", "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_Failing(t *testing.T) {
	rules, err := filepath.Abs(rulesDir)
	require.NoError(t, err)
	world, err := filepath.Abs(worldPath)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wrong.yaml")
	content := `name: wrong
description: "expects the wrong health"
rules: ` + rules + `
world: ` + world + `
steps:
  - fire: WhenCrush
    me: 1
    they: 2
assertions:
  - type: actor_state
    actor: 1
    expect: { health: 100 }
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	out, err := execute(t, NewTestCommand(testOptions("text")), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+path+": scenario assertions failed")
	assert.Contains(t, out, "actor 1 health = 75")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestTest_MissingPath(t *testing.T) {
	_, err := execute(t, NewTestCommand(testOptions("text")), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evrule/internal/ir"
)

func TestCompile_JSON(t *testing.T) {
	out, err := execute(t, NewCompileCommand(testOptions("json")), rulesDir)
	require.NoError(t, err)

	var result CompilationResult
	decodeData(t, out, &result)
	assert.Equal(t, ir.EngineVersion, result.EngineVersion)
	assert.Equal(t, ir.IRVersion, result.IRVersion)

	var names []string
	for _, rs := range result.RuleSets {
		names = append(names, rs.Name)
	}
	assert.Equal(t, []string{"Weaken", "AirOnly", "Relay"}, names)
	require.Len(t, result.Hosts, 1)
	assert.Equal(t, []string{"Weaken", "AirOnly", "Relay"}, result.Hosts[0].RuleSets)

	require.Len(t, result.Cycles, 1)
	assert.Equal(t, []string{"Relay", "Relay"}, result.Cycles[0].Path)
}

func TestCompile_TextPrintsIRAndCycles(t *testing.T) {
	out, err := execute(t, NewCompileCommand(testOptions("text")), rulesDir)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: Self-triggering rule set detected: Relay → Relay")
	assert.Contains(t, out, `"rule_sets"`)
}

func TestCompile_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")

	out, err := execute(t, NewCompileCommand(testOptions("text")), rulesDir, "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 3 rule set(s), 1 host(s) to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.RuleSets, 3)
}

func TestCompile_InvalidRules(t *testing.T) {
	out, err := execute(t, NewCompileCommand(testOptions("json")), badRulesDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
}

func TestCompile_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.cue"), []byte("EventHandlerTypes: {"), 0644))

	out, err := execute(t, NewCompileCommand(testOptions("text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
}

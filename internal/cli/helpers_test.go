package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evrule/internal/config"
)

const (
	rulesDir    = "testdata/rules"
	badRulesDir = "testdata/bad"
	worldPath   = "testdata/world.yaml"
)

// testOptions returns root options with a fixed config so tests never read
// the process environment.
func testOptions(format string) *RootOptions {
	return &RootOptions{
		Format: format,
		Config: &config.Config{LogLevel: "warn", MaxChainSteps: 64, Scripts: true},
	}
}

// execute runs cmd with args and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeData unmarshals the data field of a JSON CLIResponse into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

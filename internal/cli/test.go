package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/evrule/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // glob over scenario file names
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>",
		Short: "Run YAML event scenarios",
		Long: `Run YAML event scenarios through the dispatcher.

<scenarios> is a scenario file or a directory searched for *.yaml files.
Each scenario names its own rules package and world fixture.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  evrule test ./scenarios
  evrule test ./scenarios --filter "relay_*"
  evrule test ./scenarios/crush.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")
	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	paths, err := harness.DiscoverScenarios(path)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "find scenarios", err)
	}
	paths, err = filterScenarios(paths, opts.Filter)
	if err != nil {
		_ = formatter.Error(ErrCodeBadArgs, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad filter", err)
	}
	for _, p := range paths {
		formatter.VerboseLog("Scenario: %s", p)
	}

	result := harness.RunSuite(ctx, paths)
	if err := formatter.Success(result, func(w io.Writer) {
		if result.Total == 0 {
			fmt.Fprintln(w, "No scenarios found.")
			return
		}
		for _, f := range result.Failures {
			fmt.Fprintf(w, "✗ %s: %s\n", f.ScenarioPath, f.Error)
			for _, d := range f.Details {
				fmt.Fprintf(w, "    %s\n", d)
			}
		}
		fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}); err != nil {
		return err
	}

	if !result.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// filterScenarios keeps the paths whose base name matches pattern.
func filterScenarios(paths []string, pattern string) ([]string, error) {
	if pattern == "" {
		return paths, nil
	}
	var out []string
	for _, p := range paths {
		ok, err := filepath.Match(pattern, filepath.Base(p))
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", pattern, err)
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

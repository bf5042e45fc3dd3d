package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/evrule/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                       `json:"valid"`
	RuleSets    int                        `json:"rule_sets"`
	Hosts       int                        `json:"hosts"`
	Diagnostics []compiler.ValidationError `json:"diagnostics,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Check a rules package without emitting IR",
		Long: `Validate a CUE rules package.

Reports unknown keys, bad values, hosts bound to undefined rule sets and
rule sets that can never fire. Warnings do not fail validation.

Example:
  evrule validate ./rules`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, err := LoadRules(dir)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "load rules", err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	result := ValidationResult{
		Valid:       loaded.Valid(),
		RuleSets:    len(loaded.Compiled.RuleSets),
		Hosts:       len(loaded.Compiled.Hosts),
		Diagnostics: loaded.Diagnostics,
	}

	if err := formatter.Success(result, func(w io.Writer) {
		printDiagnostics(w, loaded.Diagnostics)
		if result.Valid {
			fmt.Fprintf(w, "✓ %d rule set(s), %d host(s) valid\n", result.RuleSets, result.Hosts)
		}
	}); err != nil {
		return err
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "rules have errors")
	}
	return nil
}

func printDiagnostics(w io.Writer, diags []compiler.ValidationError) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s: %s\n", d.Severity, d.Error())
	}
}

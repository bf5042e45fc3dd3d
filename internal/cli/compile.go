package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/evrule/internal/compiler"
	"github.com/roach88/evrule/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the IR document compile emits.
type CompilationResult struct {
	EngineVersion string                     `json:"engine_version"`
	IRVersion     string                     `json:"ir_version"`
	RuleSets      []ir.RuleSet               `json:"rule_sets"`
	Hosts         []ir.Host                  `json:"hosts,omitempty"`
	Diagnostics   []compiler.ValidationError `json:"diagnostics,omitempty"`
	Cycles        []compiler.CycleWarning    `json:"cycles,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rules-dir>",
		Short: "Compile a rules package to JSON IR",
		Long: `Compile a CUE rules package to its JSON intermediate representation.

The IR lists every rule set's components in load order and every host's
bindings. Chains of Fire.Event effects that can loop are reported as
warnings.

Examples:
  evrule compile ./rules
  evrule compile ./rules -o rules.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadRules(dir)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "load rules", err)
	}
	if !loaded.Valid() {
		_ = formatter.Error(ErrCodeInvalid, "rules have errors", loaded.Diagnostics)
		if !formatter.JSON() {
			printDiagnostics(formatter.Writer, loaded.Diagnostics)
		}
		return NewExitError(ExitFailure, "rules have errors")
	}

	result := CompilationResult{
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
		RuleSets:      loaded.Compiled.RuleSets,
		Hosts:         loaded.Compiled.Hosts,
		Diagnostics:   loaded.Diagnostics,
		Cycles:        compiler.AnalyzeChains(loaded.Compiled.RuleSets),
	}
	if result.RuleSets == nil {
		result.RuleSets = []ir.RuleSet{}
	}
	for _, rs := range result.RuleSets {
		formatter.VerboseLog("Compiled rule set %s: %d component(s)", rs.Name, len(rs.Components))
	}

	if opts.Output != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err == nil {
			err = os.WriteFile(opts.Output, append(data, '\n'), 0644)
		}
		if err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "write output", err)
		}
	}

	return formatter.Success(result, func(w io.Writer) {
		printDiagnostics(w, result.Diagnostics)
		for _, c := range result.Cycles {
			fmt.Fprintf(w, "warning: %s\n", c.Message)
		}
		if opts.Output != "" {
			fmt.Fprintf(w, "✓ Compiled %d rule set(s), %d host(s) to %s\n", len(result.RuleSets), len(result.Hosts), opts.Output)
			return
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(w, string(data))
	})
}

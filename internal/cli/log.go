package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/evrule/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
	Filter   string
	Chain    string
}

// LogResult is the output of log.
type LogResult struct {
	Filter  string            `json:"filter,omitempty"`
	Firings []store.Firing    `json:"firings"`
	Chain   *store.ChainState `json:"chain,omitempty"`
	Chains  []string          `json:"chains,omitempty"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Query the firing log",
		Long: `Query a SQLite firing log written by fire.

--filter takes an AIP-160 expression over chain_id, seq, parent_seq, kind,
host, ruleset, outcome, aborted_at and error. --chain prints one chain with
its outcome counts.

Examples:
  evrule log --db log.db
  evrule log --db log.db --filter 'ruleset = "Weaken" AND outcome = "aborted"'
  evrule log --db log.db --chain 0190f3c1-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite firing log (default $EVRULE_DB)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "AIP-160 filter expression")
	cmd.Flags().StringVar(&opts.Chain, "chain", "", "show one chain")
	cmd.MarkFlagsMutuallyExclusive("filter", "chain")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.settings()
	if err != nil {
		return err
	}
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}
	if dbPath == "" {
		_ = formatter.Error(ErrCodeBadArgs, "no firing log: pass --db or set EVRULE_DB", nil)
		return NewExitError(ExitCommandError, "no firing log")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	result := LogResult{Filter: opts.Filter}
	if opts.Chain != "" {
		state, err := st.GetChainState(ctx, opts.Chain)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "read chain", err)
		}
		result.Firings = state.Firings
		state.Firings = nil
		result.Chain = &state
	} else {
		result.Firings, err = st.ListFirings(ctx, opts.Filter)
		if err != nil {
			_ = formatter.Error(ErrCodeBadArgs, err.Error(), nil)
			return WrapExitError(ExitCommandError, "query log", err)
		}
		if opts.Filter == "" {
			if result.Chains, err = st.ListChains(ctx); err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "list chains", err)
			}
		}
	}

	return formatter.Success(result, func(w io.Writer) {
		if len(result.Firings) == 0 {
			fmt.Fprintln(w, "No firings found.")
			return
		}
		for _, f := range result.Firings {
			printFiring(w, FiringView{
				ChainID:   f.ChainID,
				Seq:       f.Seq,
				ParentSeq: f.ParentSeq,
				RuleSet:   f.RuleSet,
				Outcome:   f.Outcome,
				AbortedAt: f.AbortedAt,
				Effects:   len(f.Effects),
				Error:     f.Error,
			})
		}
		if c := result.Chain; c != nil {
			fmt.Fprintf(w, "chain %s: %d executed, %d aborted, %d refused, %d failed effect(s)",
				c.ChainID, c.Executed, c.Aborted, c.Refused, c.FailedEffects)
			if c.Halted {
				fmt.Fprint(w, ", halted by quota")
			}
			fmt.Fprintln(w)
		}
	})
}

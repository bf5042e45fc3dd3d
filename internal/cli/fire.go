package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/evrule/internal/compiler"
	"github.com/roach88/evrule/internal/effect"
	"github.com/roach88/evrule/internal/engine"
	"github.com/roach88/evrule/internal/metrics"
	"github.com/roach88/evrule/internal/store"
	"github.com/roach88/evrule/internal/world"
)

// FireOptions holds flags for the fire command.
type FireOptions struct {
	*RootOptions
	World         string
	Kind          string
	Me            int64
	They          int64
	Host          string
	Database      string
	MaxChainSteps int

	// ChainIDs overrides the UUIDv7 chain ID generator (for testing).
	ChainIDs engine.ChainIDGenerator
}

// FiringView is one firing as printed by fire.
type FiringView struct {
	ChainID   string `json:"chain"`
	Seq       int64  `json:"seq"`
	ParentSeq int64  `json:"parent,omitempty"`
	RuleSet   string `json:"ruleset"`
	Outcome   string `json:"outcome"`
	AbortedAt string `json:"aborted_at,omitempty"`
	Effects   int    `json:"effects"`
	Error     string `json:"error,omitempty"`
}

// FireResult is the output of fire.
type FireResult struct {
	Kind    string         `json:"kind"`
	Host    string         `json:"host,omitempty"`
	Firings []FiringView   `json:"firings"`
	World   map[string]any `json:"world"`
}

// NewFireCommand creates the fire command.
func NewFireCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FireOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fire <rules-dir>",
		Short: "Fire one event against a world fixture",
		Long: `Fire one event kind against a YAML world fixture.

Every rule set handling the kind is fired in load order, or only the rule
sets bound to --host. Chained events run inside the same chain. The final
world state is printed after the firings.

When --db (or EVRULE_DB) is set, every firing is appended to the SQLite
firing log. When EVRULE_METRICS is set, firing counters are written there
in the Prometheus text format.

Examples:
  evrule fire ./rules --world duel.yaml --kind WhenCrush --me 1 --they 2
  evrule fire ./rules --world duel.yaml --kind AfterLoad --host Medic --me 1 --they 2 --db log.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFire(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.World, "world", "", "path to YAML world fixture (required)")
	_ = cmd.MarkFlagRequired("world")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "event kind to fire (required)")
	_ = cmd.MarkFlagRequired("kind")
	cmd.Flags().Int64Var(&opts.Me, "me", 0, "actor ID of the Me participant")
	cmd.Flags().Int64Var(&opts.They, "they", 0, "actor ID of the They participant")
	cmd.Flags().StringVar(&opts.Host, "host", "", "fire only the rule sets bound to this host")
	cmd.Flags().StringVar(&opts.Database, "db", "", "append firings to this SQLite log (default $EVRULE_DB)")
	cmd.Flags().IntVar(&opts.MaxChainSteps, "max-chain-steps", 0, "firing quota per chain (default $EVRULE_MAX_CHAIN_STEPS)")

	return cmd
}

func runFire(opts *FireOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.settings()
	if err != nil {
		return err
	}
	if !validActorID(opts.Me) || !validActorID(opts.They) {
		msg := fmt.Sprintf("actor IDs must be between 0 and %d", uint32(math.MaxUint32))
		_ = formatter.Error(ErrCodeBadArgs, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	loaded, err := LoadRules(dir)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "load rules", err)
	}
	if !loaded.Valid() {
		_ = formatter.Error(ErrCodeInvalid, "rules have errors", loaded.Diagnostics)
		return NewExitError(ExitFailure, "rules have errors")
	}

	arena, err := world.LoadFixture(opts.World)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load world", err)
	}

	reg := engine.NewRegistry()
	defer reg.Close()
	compiler.Install(loaded.Compiled, reg, effect.NewFactory(effect.WithScripts(cfg.Scripts)))

	kind, ok := reg.Lookup(opts.Kind)
	if !ok {
		msg := fmt.Sprintf("unknown event kind %q", opts.Kind)
		_ = formatter.Error(ErrCodeBadArgs, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	maxSteps := opts.MaxChainSteps
	if maxSteps <= 0 {
		maxSteps = cfg.MaxChainSteps
	}
	dopts := []engine.Option{engine.WithMaxChainSteps(maxSteps)}
	if opts.ChainIDs != nil {
		dopts = append(dopts, engine.WithChainIDs(opts.ChainIDs))
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		last, err := st.LastSeq(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read firing log", err)
		}
		dopts = append(dopts, engine.WithRecorder(st), engine.WithClock(engine.NewClockAt(last)))
		formatter.VerboseLog("Recording firings to %s after seq %d", dbPath, last)
	}

	var gatherer *prometheus.Registry
	if cfg.Metrics != "" {
		gatherer = prometheus.NewRegistry()
		dopts = append(dopts, engine.WithObserver(metrics.NewObserver(gatherer)))
	}

	d := engine.NewDispatcher(reg, arena, dopts...)
	p := engine.Pair(world.ID(opts.Me), world.ID(opts.They))

	var firings []engine.FiringResult
	if opts.Host != "" {
		firings, err = d.FireFor(ctx, opts.Host, kind, p)
		if err != nil {
			_ = formatter.Error(ErrCodeBadArgs, err.Error(), nil)
			return WrapExitError(ExitCommandError, "fire", err)
		}
	} else {
		firings = d.Fire(ctx, kind, p)
	}

	if gatherer != nil {
		if err := metrics.WriteTextfile(cfg.Metrics, gatherer); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write metrics", err)
		}
	}

	result := FireResult{
		Kind:    kind.Name(),
		Host:    opts.Host,
		Firings: make([]FiringView, 0, len(firings)),
		World:   arena.Snapshot(),
	}
	for _, f := range firings {
		result.Firings = append(result.Firings, firingView(f))
	}

	return formatter.Success(result, func(w io.Writer) {
		if len(result.Firings) == 0 {
			fmt.Fprintf(w, "No rule set handles %s\n", result.Kind)
		}
		for _, f := range result.Firings {
			printFiring(w, f)
		}
	})
}

func firingView(f engine.FiringResult) FiringView {
	v := FiringView{
		ChainID:   f.ChainID,
		Seq:       f.Seq,
		ParentSeq: f.ParentSeq,
		RuleSet:   f.RuleSet,
		Outcome:   string(f.Outcome),
		AbortedAt: f.AbortedAt,
		Effects:   len(f.Effects),
	}
	if f.Err != nil {
		v.Error = f.Err.Error()
	}
	return v
}

func printFiring(w io.Writer, f FiringView) {
	fmt.Fprintf(w, "[%d] %s %s", f.Seq, f.RuleSet, f.Outcome)
	if f.ParentSeq != 0 {
		fmt.Fprintf(w, " (from %d)", f.ParentSeq)
	}
	if f.AbortedAt != "" {
		fmt.Fprintf(w, " at %s", f.AbortedAt)
	}
	if f.Effects > 0 {
		fmt.Fprintf(w, ", %d effect(s)", f.Effects)
	}
	if f.Error != "" {
		fmt.Fprintf(w, ": %s", f.Error)
	}
	fmt.Fprintln(w)
}

func validActorID(n int64) bool { return n >= 0 && n <= math.MaxUint32 }

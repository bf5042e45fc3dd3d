package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/evrule/internal/compiler"
	"github.com/roach88/evrule/internal/effect"
	"github.com/roach88/evrule/internal/engine"
	"github.com/roach88/evrule/internal/store"
	"github.com/roach88/evrule/internal/testutil"
	"github.com/roach88/evrule/internal/world"
)

// Harness holds the per-run state of one scenario.
type Harness struct {
	store      *store.Store
	arena      *world.Arena
	registry   *engine.Registry
	dispatcher *engine.Dispatcher
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database and a freshly built
// world, so runs never share state.
//
// Execution flow:
// 1. Compile the rules package and install it into a new registry
// 2. Build the world fixture
// 3. Fire every step, checking its expect clause
// 4. Evaluate assertions against the trace, world and log
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, err := setup(scenario)
	if err != nil {
		return nil, err
	}
	defer h.store.Close()

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{Ctx: ctx, Store: h.store, World: h.arena}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	result.World = h.arena.Snapshot()
	return result, nil
}

func setup(scenario *Scenario) (*Harness, error) {
	compiled, err := compiler.LoadDir(scenario.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	for _, d := range compiled.Diagnostics {
		if !d.IsWarning() {
			return nil, fmt.Errorf("rules %s: %w", scenario.Rules, d)
		}
	}

	arena, err := world.LoadFixture(scenario.World)
	if err != nil {
		return nil, fmt.Errorf("failed to load world: %w", err)
	}

	n := 0
	st, err := store.Open(":memory:", store.WithIDs(func() string {
		n++
		return fmt.Sprintf("firing-%d", n)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	scripts := scenario.Scripts == nil || *scenario.Scripts
	reg := engine.NewRegistry()
	compiler.Install(compiled, reg, effect.NewFactory(effect.WithScripts(scripts)))

	opts := []engine.Option{
		engine.WithRecorder(st),
		engine.WithChainIDs(testutil.NewSequentialChainIDs("scenario")),
		engine.WithClock(engine.NewClock()),
	}
	if scenario.MaxChainSteps > 0 {
		opts = append(opts, engine.WithMaxChainSteps(scenario.MaxChainSteps))
	}

	return &Harness{
		store:      st,
		arena:      arena,
		registry:   reg,
		dispatcher: engine.NewDispatcher(reg, arena, opts...),
	}, nil
}

// executeStep fires one step and appends its firings to the trace.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	p := engine.Pair(world.ID(step.Me), world.ID(step.They))

	var firings []engine.FiringResult
	if step.Host != "" {
		kind, _ := h.registry.Lookup(step.Fire)
		var err error
		firings, err = h.dispatcher.FireFor(ctx, step.Host, kind, p)
		if err != nil {
			return err
		}
	} else {
		firings = h.dispatcher.FireNamed(ctx, step.Fire, p)
	}

	events := make([]TraceEvent, len(firings))
	for i, f := range firings {
		events[i] = traceEvent(index, f)
	}
	result.Trace = append(result.Trace, events...)

	if step.Expect != nil {
		if msg := checkExpect(index, step.Expect, events); msg != "" {
			result.AddError(msg)
		}
	}

	slog.Debug("scenario step fired", "step", index, "kind", step.Fire, "firings", len(firings))
	return nil
}

// checkExpect compares a step's firings against its expect list.
func checkExpect(index int, expect []ExpectFiring, events []TraceEvent) string {
	if len(expect) != len(events) {
		return fmt.Sprintf("step %d: expected %d firings, got %d: %s",
			index, len(expect), len(events), summarize(events))
	}
	for i, e := range expect {
		got := events[i]
		if got.RuleSet != e.RuleSet || got.Outcome != e.Outcome {
			return fmt.Sprintf("step %d firing %d: expected %s/%s, got %s/%s",
				index, i, e.RuleSet, e.Outcome, got.RuleSet, got.Outcome)
		}
		if e.AbortedAt != "" && got.AbortedAt != e.AbortedAt {
			return fmt.Sprintf("step %d firing %d: expected abort at %s, got %q",
				index, i, e.AbortedAt, got.AbortedAt)
		}
	}
	return ""
}

func traceEvent(step int, f engine.FiringResult) TraceEvent {
	participants := make(map[string]int64)
	for _, s := range f.Participants.Scopes() {
		id, _ := f.Participants.Get(s)
		participants[s.String()] = int64(id)
	}
	ev := TraceEvent{
		Step:         step,
		ChainID:      f.ChainID,
		Seq:          f.Seq,
		ParentSeq:    f.ParentSeq,
		Kind:         f.Kind,
		Host:         f.Host,
		RuleSet:      f.RuleSet,
		Participants: participants,
		Outcome:      string(f.Outcome),
		AbortedAt:    f.AbortedAt,
	}
	if f.Err != nil {
		ev.Error = f.Err.Error()
	}
	for _, e := range f.Effects {
		ev.Effects = append(ev.Effects, TraceEffect{
			Component: e.Component,
			Via:       e.Via.String(),
			Target:    int64(e.Target),
			Error:     e.Error,
		})
	}
	return ev
}

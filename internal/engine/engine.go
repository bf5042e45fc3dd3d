package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

// Outcome is how one rule set firing ended.
type Outcome string

const (
	// OutcomeExecuted means every check passed and the effects ran.
	OutcomeExecuted Outcome = "executed"
	// OutcomeAborted means a check failed; no effect ran.
	OutcomeAborted Outcome = "aborted"
	// OutcomeRefused means the chain guard stopped the firing before checks.
	OutcomeRefused Outcome = "refused"
)

// EffectRecord is one effect invocation inside an executed firing.
type EffectRecord struct {
	Component int
	Via       ir.Target
	Target    world.ID
	Error     string
}

// FiringResult describes one rule set firing. Results are returned in the
// order firings started, so a chained firing follows the firing whose
// effect caused it.
type FiringResult struct {
	ChainID      string
	Seq          int64
	ParentSeq    int64 // 0 for a root firing
	Kind         string
	Host         string
	RuleSet      string
	RuleSetHash  string
	Participants Participants
	Outcome      Outcome
	// AbortedAt is the target of the failing component when aborted.
	AbortedAt string
	Effects   []EffectRecord
	Err       error
}

// Recorder persists firings. Errors are logged and never stop dispatch.
type Recorder interface {
	RecordFiring(ctx context.Context, r FiringResult) error
}

// Observer is notified of every firing after its chain completes.
type Observer interface {
	ObserveFiring(r FiringResult)
}

// DefaultMaxChainSteps is the default quota of firings per root Fire.
const DefaultMaxChainSteps = 64

// Dispatcher fires event kinds against the rule sets in a Registry.
//
// Dispatch is synchronous: Fire returns after every rule set, and every
// firing chained from their effects, has finished. A Dispatcher must be
// driven from one goroutine.
type Dispatcher struct {
	reg      *Registry
	world    world.MutableWorld
	clock    *Clock
	ids      ChainIDGenerator
	cycles   *CycleDetector
	maxSteps int
	recorder Recorder
	observer Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder persists every firing.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithObserver reports every firing, e.g. to metrics.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// WithMaxChainSteps sets the per-chain firing quota.
func WithMaxChainSteps(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxSteps = n
		}
	}
}

// WithChainIDs replaces the UUIDv7 chain ID generator.
func WithChainIDs(g ChainIDGenerator) Option {
	return func(d *Dispatcher) { d.ids = g }
}

// WithClock continues sequence numbers from an existing clock.
func WithClock(c *Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// NewDispatcher creates a dispatcher over reg acting on w.
func NewDispatcher(reg *Registry, w world.MutableWorld, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:      reg,
		world:    w,
		clock:    NewClock(),
		ids:      UUIDv7Generator{},
		cycles:   NewCycleDetector(),
		maxSteps: DefaultMaxChainSteps,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher reads.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Clock returns the dispatcher's logical clock.
func (d *Dispatcher) Clock() *Clock { return d.clock }

type chain struct {
	id      string
	quota   *QuotaEnforcer
	halted  bool
	results []FiringResult
}

// Fire runs every loaded rule set listening to kind, in load order.
func (d *Dispatcher) Fire(ctx context.Context, kind *EventKind, p Participants) []FiringResult {
	if kind == nil {
		return nil
	}
	return d.root(ctx, kind, "", kind.handlers, p)
}

// FireNamed is Fire by kind name. A name that was never interned has no
// listeners and fires nothing.
func (d *Dispatcher) FireNamed(ctx context.Context, name string, p Participants) []FiringResult {
	kind, ok := d.reg.Lookup(name)
	if !ok {
		slog.Debug("fire: unknown event kind", "kind", name)
		return nil
	}
	return d.Fire(ctx, kind, p)
}

// FireFor runs only the rule sets bound to host for kind, in binding order.
func (d *Dispatcher) FireFor(ctx context.Context, host string, kind *EventKind, p Participants) ([]FiringResult, error) {
	h, ok := d.reg.FindHost(host)
	if !ok {
		return nil, &RuntimeError{Code: ErrCodeUnknownHost, Message: "no rule sets bound to host " + host}
	}
	if kind == nil {
		return nil, nil
	}
	return d.root(ctx, kind, h.name, h.byKind[kind], p), nil
}

func (d *Dispatcher) root(ctx context.Context, kind *EventKind, host string, handlers []*RuleSet, p Participants) []FiringResult {
	ch := &chain{id: d.ids.Generate(), quota: NewQuotaEnforcer(d.maxSteps)}
	defer d.cycles.Clear(ch.id)

	d.dispatch(ctx, ch, kind, host, handlers, p, 0)

	for _, r := range ch.results {
		if d.recorder != nil {
			if err := d.recorder.RecordFiring(ctx, r); err != nil {
				slog.Error("record firing failed", "chain", r.ChainID, "seq", r.Seq, "error", err)
			}
		}
		if d.observer != nil {
			d.observer.ObserveFiring(r)
		}
	}
	return ch.results
}

// dispatch fires handlers in order inside ch. Chained firings re-enter
// through Execution.Fire.
func (d *Dispatcher) dispatch(ctx context.Context, ch *chain, kind *EventKind, host string, handlers []*RuleSet, p Participants, parent int64) {
	// Snapshot: a handler list must not change under an in-flight firing.
	handlers = append([]*RuleSet(nil), handlers...)
	p = p.Clone()

	for _, rs := range handlers {
		if ch.halted {
			return
		}
		if err := ctx.Err(); err != nil {
			slog.Warn("dispatch cancelled", "chain", ch.id, "kind", kind.name, "error", err)
			ch.halted = true
			return
		}
		if !rs.loaded || rs.inert {
			continue
		}
		d.fireOne(ctx, ch, kind, host, rs, p, parent)
	}
}

func (d *Dispatcher) fireOne(ctx context.Context, ch *chain, kind *EventKind, host string, rs *RuleSet, p Participants, parent int64) {
	res := FiringResult{
		ChainID:      ch.id,
		Seq:          d.clock.Next(),
		ParentSeq:    parent,
		Kind:         kind.name,
		Host:         host,
		RuleSet:      rs.name,
		RuleSetHash:  rs.hash,
		Participants: p,
	}

	pHash, err := ir.ParticipantsHash(p.Canonical())
	if err != nil {
		slog.Error("participants hash failed", "ruleset", rs.name, "error", err)
		return
	}
	if d.cycles.WouldCycle(ch.id, rs.name, pHash) {
		res.Outcome = OutcomeRefused
		res.Err = NewCycleError(ch.id, rs.name, pHash)
		slog.Warn("firing refused", "chain", ch.id, "ruleset", rs.name, "kind", kind.name, "error", res.Err)
		ch.results = append(ch.results, res)
		return
	}
	if err := ch.quota.Check(ch.id); err != nil {
		res.Outcome = OutcomeRefused
		res.Err = NewQuotaError(ch.id, rs.name, ch.quota.Current(), ch.quota.MaxSteps())
		slog.Warn("chain halted", "chain", ch.id, "ruleset", rs.name, "kind", kind.name, "error", err)
		ch.results = append(ch.results, res)
		ch.halted = true
		return
	}
	d.cycles.Record(ch.id, rs.name, pHash)

	// Reserve the slot so chained firings land after this one.
	idx := len(ch.results)
	ch.results = append(ch.results, res)

	f := rs.Begin(d.world, p)
	if !f.Check() {
		res.Outcome = OutcomeAborted
		if c, ok := f.AbortedAt(); ok {
			res.AbortedAt = c.target.String()
		}
		slog.Debug("firing aborted", "chain", ch.id, "ruleset", rs.name, "kind", kind.name, "at", res.AbortedAt)
		ch.results[idx] = res
		return
	}

	var effects []EffectRecord
	execErr := f.Execute(func(c *Component, raw world.ID) error {
		x := &Execution{
			Ctx:          ctx,
			World:        d.world,
			Participants: p,
			Kind:         kind,
			RuleSet:      rs,
			ChainID:      ch.id,
			dispatcher:   d,
			chain:        ch,
			parent:       res.Seq,
		}
		ran, err := c.ExecuteEffects(x, raw)
		if !ran && err == nil {
			return nil
		}
		rec := EffectRecord{Component: c.index, Via: c.target, Target: x.Target}
		if err != nil {
			rec.Error = err.Error()
			err = NewEffectError(ch.id, rs.name, c.index, err)
			slog.Warn("effect failed", "chain", ch.id, "ruleset", rs.name, "component", c.index, "error", err)
		}
		effects = append(effects, rec)
		return err
	})
	res.Outcome = OutcomeExecuted
	res.Effects = effects
	res.Err = execErr
	ch.results[idx] = res
	slog.Debug("firing executed", "chain", ch.id, "ruleset", rs.name, "kind", kind.name, "effects", len(effects))
}

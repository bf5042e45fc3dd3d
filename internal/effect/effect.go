// Package effect builds the runtime effects a rule set component executes.
//
// An Effect group is a list of optional parts. Parts run in a fixed order
// (attach, remove, HP, veterancy, owner, script, chained event) against the
// component's true target. The first failing part stops the rest of that
// effect; the dispatcher records the error and moves on to the next
// component.
package effect

import (
	"fmt"

	"github.com/roach88/evrule/internal/engine"
	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

// Factory implements engine.EffectFactory for the built-in parts.
type Factory struct {
	scripts bool
}

// Option configures a Factory.
type Option func(*Factory)

// WithScripts enables or disables Lua script parts. Disabled scripts fail
// at build time so the component keeps only its filters.
func WithScripts(enabled bool) Option {
	return func(f *Factory) { f.scripts = enabled }
}

// NewFactory returns a factory with scripts enabled.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{scripts: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// part is one step of a composite effect.
type part struct {
	name string
	run  func(x *engine.Execution) error
}

// Composite runs its parts in order.
type Composite struct {
	parts []part
}

// Parts returns the part names in execution order.
func (c *Composite) Parts() []string {
	names := make([]string, len(c.parts))
	for i, p := range c.parts {
		names[i] = p.name
	}
	return names
}

// Execute implements engine.Effect.
func (c *Composite) Execute(x *engine.Execution) error {
	for _, p := range c.parts {
		if err := p.run(x); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}
	return nil
}

// Build implements engine.EffectFactory.
func (f *Factory) Build(spec *ir.Effect) (engine.Effect, error) {
	if spec == nil || !spec.IsDefined() {
		return nil, fmt.Errorf("empty effect")
	}
	c := &Composite{}

	if len(spec.AttachTypes) > 0 {
		c.parts = append(c.parts, attachPart(spec.AttachTypes, spec.Durations()))
	}
	if len(spec.RemoveEffects) > 0 {
		c.parts = append(c.parts, removePart(spec.RemoveEffects))
	}
	if delta, ok := spec.HPChange.Get(); ok {
		c.parts = append(c.parts, part{name: "HP.Change", run: func(x *engine.Execution) error {
			return x.World.AdjustHealth(x.Target, delta)
		}})
	}
	if rank, ok := spec.VeterancySet.Get(); ok {
		c.parts = append(c.parts, part{name: "Veterancy.Set", run: func(x *engine.Execution) error {
			return x.World.SetRank(x.Target, rank)
		}})
	}
	if scope, ok := spec.OwnerTransfer.Get(); ok {
		c.parts = append(c.parts, ownerPart(scope))
	}
	if src, ok := spec.Script.Get(); ok {
		if !f.scripts {
			return nil, fmt.Errorf("script effects are disabled")
		}
		s, err := CompileScript(src)
		if err != nil {
			return nil, err
		}
		c.parts = append(c.parts, part{name: "Script", run: s.Run})
	}
	if kind, ok := spec.FireEvent.Get(); ok {
		c.parts = append(c.parts, firePart(kind))
	}
	return c, nil
}

func attachPart(types []string, durations []int64) part {
	return part{name: "AttachEffect", run: func(x *engine.Execution) error {
		for i, name := range types {
			if err := x.World.AttachEffect(x.Target, name, durations[i]); err != nil {
				return err
			}
		}
		return nil
	}}
}

func removePart(names []string) part {
	return part{name: "RemoveEffects", run: func(x *engine.Execution) error {
		for _, name := range names {
			if err := x.World.RemoveEffect(x.Target, name); err != nil {
				return err
			}
		}
		return nil
	}}
}

// ownerPart hands the true target to the faction owning the participant in
// scope. An empty slot or an unowned participant is a no-op.
func ownerPart(scope ir.Scope) part {
	return part{name: "Owner.Transfer", run: func(x *engine.Execution) error {
		from, ok := x.Participants.Get(scope)
		if !ok {
			return nil
		}
		owner, ok := world.OwnerOf(x.World, from)
		if !ok {
			return nil
		}
		return x.World.SetOwner(x.Target, owner)
	}}
}

// firePart chains kind with the true target as Me and the original Me as
// They.
func firePart(kind string) part {
	return part{name: "Fire.Event", run: func(x *engine.Execution) error {
		me, _ := x.Participants.Get(ir.ScopeMe)
		x.Fire(kind, engine.Pair(x.Target, me))
		return nil
	}}
}

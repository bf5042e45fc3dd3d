package engine

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

// RuleSet is a loaded EventHandlerType: the kinds it listens to and its
// components in load order. It is immutable once loaded.
type RuleSet struct {
	name       string
	loaded     bool
	inert      bool
	hash       string
	kinds      []*EventKind
	components []*Component
	byScope    map[ir.Scope][]*Component
}

// Name returns the rule set name.
func (rs *RuleSet) Name() string { return rs.name }

// Loaded reports whether Load has run.
func (rs *RuleSet) Loaded() bool { return rs.loaded }

// Inert reports whether the rule set is the "none" sentinel.
func (rs *RuleSet) Inert() bool { return rs.inert }

// Hash is the content hash of the compiled configuration it was loaded from.
func (rs *RuleSet) Hash() string { return rs.hash }

// Kinds returns the kinds the rule set listens to.
func (rs *RuleSet) Kinds() []*EventKind { return slices.Clone(rs.kinds) }

// Components returns the stored components in load order.
func (rs *RuleSet) Components() []*Component { return slices.Clone(rs.components) }

// Load populates the rule set from its compiled form. It runs at most once;
// later calls are no-ops, so kinds are never registered twice and
// components never duplicated. The "none" sentinel loads inert.
//
// Components with nothing declared are dropped. An effect the factory
// cannot build is logged and the component keeps only its filters.
func (rs *RuleSet) Load(spec ir.RuleSet, reg *Registry, factory EffectFactory) {
	if rs.loaded {
		return
	}
	rs.loaded = true
	rs.byScope = make(map[ir.Scope][]*Component)

	if strings.EqualFold(strings.TrimSpace(rs.name), ir.NoneName) {
		rs.inert = true
		return
	}

	hash, err := ir.RuleSetHash(spec)
	if err != nil {
		slog.Warn("rule set hash failed", "ruleset", rs.name, "error", err)
	}
	rs.hash = hash

	for _, name := range spec.EventTypes {
		kind := reg.Intern(name)
		if slices.Contains(rs.kinds, kind) {
			continue
		}
		rs.kinds = append(rs.kinds, kind)
		kind.addHandler(rs)
	}

	for _, cs := range spec.Components {
		var effect Effect
		if cs.Effect != nil && cs.Effect.IsDefined() {
			if factory == nil {
				slog.Warn("no effect factory, effect dropped", "ruleset", rs.name, "target", cs.Target.String())
			} else if effect, err = factory.Build(cs.Effect); err != nil {
				slog.Warn("effect dropped", "ruleset", rs.name, "target", cs.Target.String(), "error", err)
				effect = nil
			}
		}
		c, ok := NewComponent(cs, len(rs.components), effect)
		if !ok {
			slog.Debug("undefined component dropped", "ruleset", rs.name, "target", cs.Target.String())
			continue
		}
		rs.components = append(rs.components, c)
		rs.byScope[c.target.Scope] = append(rs.byScope[c.target.Scope], c)
	}

	slog.Debug("rule set loaded",
		"ruleset", rs.name,
		"kinds", len(rs.kinds),
		"components", len(rs.components),
	)
}

// HandleEvent runs the two-phase protocol outside any dispatcher: no chain
// guard, no recording. It reports whether the checking phase passed.
func (rs *RuleSet) HandleEvent(ctx context.Context, w world.MutableWorld, p Participants) bool {
	if !rs.loaded || rs.inert {
		return false
	}
	f := rs.Begin(w, p)
	if !f.Check() {
		return false
	}
	_ = f.Execute(func(c *Component, raw world.ID) error {
		x := &Execution{Ctx: ctx, World: w, Participants: p, RuleSet: rs}
		if _, err := c.ExecuteEffects(x, raw); err != nil {
			slog.Warn("effect failed", "ruleset", rs.name, "component", c.index, "error", err)
		}
		return nil
	})
	return true
}

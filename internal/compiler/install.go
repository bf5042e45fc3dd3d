package compiler

import (
	"log/slog"

	"github.com/roach88/evrule/internal/engine"
	"github.com/roach88/evrule/internal/ir"
)

// Install loads a compiled package into reg.
//
// A rule set is loaded the first time a host binds it. Sections no host
// binds are never loaded, so they never listen to anything. A package with
// no host section loads every rule set; this is the usual shape for tests
// and for the fire command without --host.
//
// A host binding an undefined name gets an empty rule set, matching a
// missing section in the game's configuration.
func Install(res *Result, reg *engine.Registry, factory engine.EffectFactory) {
	specs := make(map[string]ir.RuleSet, len(res.RuleSets))
	for _, rs := range res.RuleSets {
		specs[fold(rs.Name)] = rs
	}

	load := func(name string) *engine.RuleSet {
		rs := reg.RuleSet(name)
		if rs.Loaded() {
			return rs
		}
		spec, ok := specs[fold(name)]
		if !ok {
			slog.Warn("host binds undefined rule set", "ruleset", name)
			spec = ir.RuleSet{Name: name}
		}
		rs.Load(spec, reg, factory)
		return rs
	}

	if len(res.Hosts) == 0 {
		for _, spec := range res.RuleSets {
			load(spec.Name)
		}
		return
	}

	for _, h := range res.Hosts {
		host := reg.Host(h.Name)
		for _, name := range h.RuleSets {
			host.Bind(load(name))
		}
	}
}

package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/evrule/internal/ir"
)

// CompileRuleSet reads one EventHandlerTypes section.
//
// Components are read in load order: for each scope (Me, They) the direct
// triple first, then one triple per loadable relation. A component with no
// defined filter, negFilter or effect is dropped. Bad values are reported as
// diagnostics and leave the affected check unset; they never abort the
// section.
func CompileRuleSet(name string, v cue.Value) (ir.RuleSet, []ValidationError, error) {
	if err := v.Err(); err != nil {
		return ir.RuleSet{}, nil, cueError(err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return ir.RuleSet{}, nil, &CompileError{
			Field:   "EventHandlerTypes." + name,
			Message: "rule set section must be a struct",
			Pos:     v.Pos(),
		}
	}

	rs := ir.RuleSet{Name: name}
	if strings.EqualFold(name, ir.NoneName) {
		return rs, nil, nil
	}

	r := newReader(name, v)
	rs.EventTypes = dedupe(r.numbered("EventType"))

	for _, scope := range ir.Scopes {
		targets := []ir.Target{{Scope: scope}}
		for _, ext := range ir.LoadableExtendedScopes {
			targets = append(targets, ir.Target{Scope: scope, Extended: ext})
		}
		for _, t := range targets {
			c := compileComponent(r, t)
			if !c.IsDefined() {
				continue
			}
			rs.Components = append(rs.Components, c)
		}
	}

	r.leftovers()
	return rs, r.diags, nil
}

func compileComponent(r *reader, t ir.Target) ir.Component {
	prefix := t.KeyPrefix()
	c := ir.Component{Target: t}

	if f := compileFilter(r, prefix+".Filter"); f.IsDefined() {
		c.Filter = f
	}
	if f := compileFilter(r, prefix+".NegFilter"); f.IsDefined() {
		c.NegFilter = f
	}
	if e := compileEffect(r, prefix+".Effect"); e.IsDefined() {
		c.Effect = e
	}
	return c
}

func compileFilter(r *reader, prefix string) *ir.Filter {
	f := &ir.Filter{}
	key := func(name string) string { return prefix + "." + name }

	if s, ok := r.str(key("Abstract")); ok {
		if t, err := ir.ParseAffectedTarget(s); err != nil {
			r.report(ErrUnknownFlag, key("Abstract"), err.Error())
		} else {
			f.Abstract = ir.Some(t)
		}
	}
	f.IsInAir = optBool(r, key("IsInAir"))
	f.TechnoTypes = r.list(key("TechnoTypes"))
	f.AttachedEffects = r.list(key("AttachedEffects"))
	f.ShieldTypes = r.list(key("ShieldTypes"))
	if s, ok := r.str(key("Veterancy")); ok {
		if v, err := ir.ParseAffectedVeterancy(s); err != nil {
			r.report(ErrUnknownFlag, key("Veterancy"), err.Error())
		} else {
			f.Veterancy = ir.Some(v)
		}
	}
	if s, ok := r.str(key("HPPercentage")); ok {
		if th, err := ir.ParseHPThreshold(s); err != nil {
			r.report(ErrBadThreshold, key("HPPercentage"), err.Error())
		} else {
			f.HPPercentage = ir.Some(th)
		}
	}
	f.IsPassenger = optBool(r, key("IsPassenger"))
	f.IsParasited = optBool(r, key("IsParasited"))
	f.IsParasiting = optBool(r, key("IsParasiting"))
	f.IsBunkered = optBool(r, key("IsBunkered"))
	f.IsMindControlled = optBool(r, key("IsMindControlled"))
	f.IsMindControlledPerma = optBool(r, key("IsMindControlled.Perma"))
	f.MindControllingAny = optBool(r, key("MindControlling.Any"))
	f.MindControllingType = r.list(key("MindControlling.Type"))
	f.PassengersAny = optBool(r, key("Passengers.Any"))
	f.PassengersType = r.list(key("Passengers.Type"))
	f.UpgradesAny = optBool(r, key("Upgrades.Any"))
	f.UpgradesType = r.list(key("Upgrades.Type"))

	if s, ok := r.str(key("House")); ok {
		if h, err := ir.ParseAffectedHouse(s); err != nil {
			r.report(ErrUnknownFlag, key("House"), err.Error())
		} else {
			f.House = ir.Some(h)
		}
	}
	f.Sides = r.list(key("Sides"))
	f.Countries = r.list(key("Countries"))
	f.Buildings = r.list(key("Buildings"))
	f.IsHuman = optBool(r, key("IsHuman"))
	f.IsAI = optBool(r, key("IsAI"))

	f.Finalize()
	return f
}

func compileEffect(r *reader, prefix string) *ir.Effect {
	e := &ir.Effect{}
	key := func(name string) string { return prefix + "." + name }

	e.AttachTypes = r.list(key("AttachEffect.Types"))
	e.AttachDurations = r.intList(key("AttachEffect.Durations"))
	if n, m := len(e.AttachTypes), len(e.AttachDurations); m > 0 && n != m {
		msg := fmt.Sprintf("%d durations for %d types; missing entries use the type default, extra entries are dropped", m, n)
		r.warn(ErrParallelLists, key("AttachEffect.Durations"), msg)
		slog.Warn("parallel list length mismatch",
			"ruleset", r.section,
			"field", key("AttachEffect.Durations"),
			"types", n,
			"durations", m)
		e.AttachDurations = e.Durations()
	}
	e.RemoveEffects = r.list(key("RemoveEffects"))
	if n, ok := r.integer(key("HP.Change")); ok {
		e.HPChange = ir.Some(n)
	}
	if s, ok := r.str(key("Veterancy.Set")); ok {
		if rank, err := ir.ParseRank(s); err != nil {
			r.report(ErrUnknownRank, key("Veterancy.Set"), err.Error())
		} else {
			e.VeterancySet = ir.Some(rank)
		}
	}
	if s, ok := r.str(key("Owner.Transfer")); ok {
		if scope, err := ir.ParseScope(s); err != nil {
			r.report(ErrUnknownScope, key("Owner.Transfer"), err.Error())
		} else {
			e.OwnerTransfer = ir.Some(scope)
		}
	}
	if s, ok := r.str(key("Fire.Event")); ok && s != "" {
		e.FireEvent = ir.Some(s)
	}
	if s, ok := r.str(key("Script")); ok && s != "" {
		e.Script = ir.Some(s)
	}
	return e
}

func optBool(r *reader, key string) ir.Opt[bool] {
	if b, ok := r.boolean(key); ok {
		return ir.Some(b)
	}
	return ir.None[bool]()
}

// dedupe keeps the first occurrence of each name, compared
// case-insensitively.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		k := fold(n)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}

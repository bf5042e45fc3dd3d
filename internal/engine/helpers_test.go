package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

// effectCall is one observed invocation of a test effect.
type effectCall struct {
	RuleSet string
	Target  world.ID
	Via     ir.Target
}

// recordingFactory builds effects that log their invocations. The Script
// field doubles as a control knob: "broken" fails to build, "fail" fails at
// execution. FireEvent chains with Me = true target, They = original Me.
func recordingFactory(calls *[]effectCall) EffectFactory {
	return EffectFactoryFunc(func(spec *ir.Effect) (Effect, error) {
		if s, ok := spec.Script.Get(); ok && s == "broken" {
			return nil, errors.New("broken script")
		}
		return EffectFunc(func(x *Execution) error {
			*calls = append(*calls, effectCall{RuleSet: x.RuleSet.Name(), Target: x.Target, Via: x.Via})
			if d, ok := spec.HPChange.Get(); ok {
				if err := x.World.AdjustHealth(x.Target, d); err != nil {
					return err
				}
			}
			if s, ok := spec.Script.Get(); ok && s == "fail" {
				return errors.New("effect exploded")
			}
			if name, ok := spec.FireEvent.Get(); ok {
				me, _ := x.Participants.Get(ir.ScopeMe)
				x.Fire(name, Pair(x.Target, me))
			}
			return nil
		}), nil
	})
}

// loadRuleSet allocates and loads spec into reg.
func loadRuleSet(t *testing.T, reg *Registry, calls *[]effectCall, spec ir.RuleSet) *RuleSet {
	t.Helper()
	if calls == nil {
		calls = &[]effectCall{}
	}
	rs := reg.RuleSet(spec.Name)
	rs.Load(spec, reg, recordingFactory(calls))
	require.True(t, rs.Loaded())
	return rs
}

func effectOnly(scope ir.Scope) ir.Component {
	return ir.Component{
		Target: ir.Target{Scope: scope},
		Effect: &ir.Effect{AttachTypes: []string{"Marked"}},
	}
}

func hpEffect(target ir.Target, delta int64) ir.Component {
	return ir.Component{
		Target: target,
		Effect: &ir.Effect{HPChange: ir.Some(delta)},
	}
}

func filterOnly(target ir.Target, f ir.Filter) ir.Component {
	return ir.Component{Target: target, Filter: &f}
}

func atMe() ir.Target   { return ir.Target{Scope: ir.ScopeMe} }
func atThey() ir.Target { return ir.Target{Scope: ir.ScopeThey} }

// duelArena builds two hostile houses with one actor each:
//
//	house 1 "Allies"  human, side GDI      owns me   (Tank, 100/100)
//	house 2 "Soviets" AI,    side Nod      owns they (Conscript, 50/100)
func duelArena(t *testing.T) (*world.Arena, world.ID, world.ID) {
	t.Helper()
	a := world.NewArena()
	h1 := a.AddHouse(world.House{Name: "Allies", SideName: "GDI", Country: "Americans", IsHuman: true})
	h2 := a.AddHouse(world.House{Name: "Soviets", SideName: "Nod", Country: "Russians"})
	meID := a.AddUnit(world.Unit{Kind: world.KindUnit, Type: "Tank", OwnerID: h1, HP: 100, MaxHP: 100})
	theyID := a.AddUnit(world.Unit{Kind: world.KindInfantry, Type: "Conscript", OwnerID: h2, HP: 50, MaxHP: 100})
	require.NoError(t, a.Validate())
	return a, meID, theyID
}

func houseOf(t *testing.T, a *world.Arena, id world.ID) world.ID {
	t.Helper()
	owner, ok := world.OwnerOf(a, id)
	require.True(t, ok)
	return owner
}

func health(t *testing.T, a *world.Arena, id world.ID) int64 {
	t.Helper()
	u, ok := a.Unit(id)
	require.True(t, ok)
	return u.HP
}

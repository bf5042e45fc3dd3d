package effect

import (
	"fmt"
	"math"

	"github.com/Shopify/go-lua"

	"github.com/roach88/evrule/internal/engine"
	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

// Script is a Lua chunk run as an effect part. Each run gets a fresh state
// with the base, string, table and math libraries and an "evrule" table:
//
//	evrule.target()                   true target id
//	evrule.me(), evrule.they()        participant ids or nil
//	evrule.kind(), evrule.ruleset()   firing context
//	evrule.type_of(id)                type name or nil
//	evrule.owner(id)                  owning faction id or nil
//	evrule.health(id)                 current, max
//	evrule.attach(id, name [, dur])   attach a status effect
//	evrule.remove(id, name)           remove a status effect
//	evrule.adjust_hp(id, delta)       change health (clamped)
//	evrule.set_owner(id, faction)     change owner
//	evrule.fire(kind, me [, they])    chain an event
type Script struct {
	src string
}

// CompileScript checks that src parses.
func CompileScript(src string) (*Script, error) {
	l := lua.NewState()
	if err := lua.LoadBuffer(l, src, "=effect", "t"); err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}
	return &Script{src: src}, nil
}

// Run executes the script against x.
func (s *Script) Run(x *engine.Execution) error {
	l := lua.NewState()
	for _, lib := range []lua.RegistryFunction{
		{Name: "_G", Function: lua.BaseOpen},
		{Name: "string", Function: lua.StringOpen},
		{Name: "table", Function: lua.TableOpen},
		{Name: "math", Function: lua.MathOpen},
	} {
		lua.Require(l, lib.Name, lib.Function, true)
		l.Pop(1)
	}

	l.NewTable()
	lua.SetFunctions(l, bindings(x), 0)
	l.SetGlobal("evrule")

	if err := lua.LoadBuffer(l, s.src, "=effect", "t"); err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	return nil
}

func pushID(l *lua.State, id world.ID, ok bool) {
	if !ok {
		l.PushNil()
		return
	}
	l.PushInteger(int(id))
}

func checkID(l *lua.State, index int) world.ID {
	n := lua.CheckInteger(l, index)
	if n <= 0 {
		lua.ArgumentError(l, index, "actor id must be positive")
	}
	if int64(n) > math.MaxUint32 {
		lua.ArgumentError(l, index, "actor id out of range")
	}
	return world.ID(n)
}

func raise(l *lua.State, err error) {
	if err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
}

func bindings(x *engine.Execution) []lua.RegistryFunction {
	return []lua.RegistryFunction{
		{Name: "target", Function: func(l *lua.State) int {
			l.PushInteger(int(x.Target))
			return 1
		}},
		{Name: "me", Function: func(l *lua.State) int {
			id, ok := x.Participants.Get(ir.ScopeMe)
			pushID(l, id, ok)
			return 1
		}},
		{Name: "they", Function: func(l *lua.State) int {
			id, ok := x.Participants.Get(ir.ScopeThey)
			pushID(l, id, ok)
			return 1
		}},
		{Name: "kind", Function: func(l *lua.State) int {
			if x.Kind == nil {
				l.PushNil()
				return 1
			}
			l.PushString(x.Kind.Name())
			return 1
		}},
		{Name: "ruleset", Function: func(l *lua.State) int {
			if x.RuleSet == nil {
				l.PushNil()
				return 1
			}
			l.PushString(x.RuleSet.Name())
			return 1
		}},
		{Name: "type_of", Function: func(l *lua.State) int {
			a, ok := x.World.Actor(checkID(l, 1))
			if !ok {
				l.PushNil()
				return 1
			}
			l.PushString(a.TypeName())
			return 1
		}},
		{Name: "owner", Function: func(l *lua.State) int {
			id, ok := world.OwnerOf(x.World, checkID(l, 1))
			pushID(l, id, ok)
			return 1
		}},
		{Name: "health", Function: func(l *lua.State) int {
			a, ok := x.World.Actor(checkID(l, 1))
			if !ok {
				l.PushNil()
				return 1
			}
			cur, maxHP := a.Health()
			l.PushInteger(int(cur))
			l.PushInteger(int(maxHP))
			return 2
		}},
		{Name: "attach", Function: func(l *lua.State) int {
			id := checkID(l, 1)
			name := lua.CheckString(l, 2)
			dur := lua.OptInteger(l, 3, int(ir.DefaultDuration))
			raise(l, x.World.AttachEffect(id, name, int64(dur)))
			return 0
		}},
		{Name: "remove", Function: func(l *lua.State) int {
			raise(l, x.World.RemoveEffect(checkID(l, 1), lua.CheckString(l, 2)))
			return 0
		}},
		{Name: "adjust_hp", Function: func(l *lua.State) int {
			raise(l, x.World.AdjustHealth(checkID(l, 1), int64(lua.CheckInteger(l, 2))))
			return 0
		}},
		{Name: "set_owner", Function: func(l *lua.State) int {
			raise(l, x.World.SetOwner(checkID(l, 1), checkID(l, 2)))
			return 0
		}},
		{Name: "fire", Function: func(l *lua.State) int {
			kind := lua.CheckString(l, 1)
			me := checkID(l, 2)
			they := world.NoID
			if !l.IsNoneOrNil(3) {
				they = checkID(l, 3)
			}
			results := x.Fire(kind, engine.Pair(me, they))
			l.PushInteger(len(results))
			return 1
		}},
	}
}

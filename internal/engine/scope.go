package engine

import (
	"fmt"

	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

// ResolveTrueTarget walks at most one relation hop from raw.
//
// Direct returns raw unchanged, absent or not. For a unit-like actor every
// extended scope follows the matching relation. For anything else only Owner
// is meaningful: a faction resolves to itself, another entry to its owner.
// Every other tag on a non unit-like target yields absent.
func ResolveTrueTarget(w world.World, raw world.ID, ext ir.ExtendedScope) (world.ID, bool) {
	if ext == ir.Direct {
		return raw, raw != world.NoID
	}
	if raw == world.NoID {
		return world.NoID, false
	}

	actor, ok := w.Actor(raw)
	if !ok || !actor.UnitLike() {
		if ext == ir.Owner {
			return world.OwnerOf(w, raw)
		}
		return world.NoID, false
	}

	switch ext {
	case ir.Owner:
		return actor.Owner()
	case ir.Transport:
		if id, ok := actor.Transporter(); ok {
			return id, true
		}
		return actor.HousingMe()
	case ir.Bunker:
		return actor.BunkerLink()
	case ir.MindController:
		return actor.MindControlledBy()
	case ir.Parasite:
		return actor.Parasite()
	case ir.Host:
		return actor.ParasiteHost()
	default:
		panic(fmt.Sprintf("engine: unhandled extended scope %d", int(ext)))
	}
}

// Participants maps a scope slot to the actor filling it for one firing.
// A missing key or NoID value is an empty slot.
type Participants map[ir.Scope]world.ID

// Pair builds the usual two-slot participant map. NoID leaves a slot empty.
func Pair(me, they world.ID) Participants {
	p := make(Participants, 2)
	if me != world.NoID {
		p[ir.ScopeMe] = me
	}
	if they != world.NoID {
		p[ir.ScopeThey] = they
	}
	return p
}

// Get returns the actor in slot s.
func (p Participants) Get(s ir.Scope) (world.ID, bool) {
	id, ok := p[s]
	return id, ok && id != world.NoID
}

// Scopes returns the occupied slots in ascending scope order.
func (p Participants) Scopes() []ir.Scope {
	out := make([]ir.Scope, 0, len(p))
	for _, s := range ir.Scopes {
		if _, ok := p.Get(s); ok {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns an independent copy.
func (p Participants) Clone() Participants {
	out := make(Participants, len(p))
	for s, id := range p {
		out[s] = id
	}
	return out
}

// Canonical renders the occupied slots for hashing and logging.
func (p Participants) Canonical() map[string]any {
	out := make(map[string]any, len(p))
	for _, s := range p.Scopes() {
		out[s.String()] = int64(p[s])
	}
	return out
}

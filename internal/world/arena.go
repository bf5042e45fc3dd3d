package world

import (
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/evrule/internal/ir"
)

// Unit is the stored state of one actor. Relation fields hold NoID when
// absent.
type Unit struct {
	id   ID
	Kind Kind
	Type string

	OwnerID ID

	TransporterID   ID
	HousingID       ID
	BunkerID        ID
	ControllerID    ID
	PermaControlled bool
	ParasiteID      ID
	HostID          ID

	Effects    map[string]int64
	Shield     string
	Veterancy  ir.Rank
	HP         int64
	MaxHP      int64
	Airborne   bool
	Water      bool
	Cargo      []ID
	Addons     []string
	Controlled []ID
}

// House is the stored state of one faction.
type House struct {
	id       ID
	Name     string
	SideName string
	Country  string
	IsHuman  bool
	AllyIDs  []ID
}

// Arena is the in-memory World. It is not safe for concurrent use; the
// engine is driven from a single goroutine.
type Arena struct {
	units  map[ID]*Unit
	houses map[ID]*House
	next   ID
}

// NewArena returns an empty arena. IDs are allocated from 1.
func NewArena() *Arena {
	return &Arena{
		units:  make(map[ID]*Unit),
		houses: make(map[ID]*House),
		next:   1,
	}
}

// AddHouse stores a faction and returns its ID.
func (a *Arena) AddHouse(h House) ID {
	id := a.alloc()
	h.id = id
	a.houses[id] = &h
	return id
}

// AddUnit stores an actor and returns its ID.
func (a *Arena) AddUnit(u Unit) ID {
	id := a.alloc()
	u.id = id
	if u.Effects == nil {
		u.Effects = make(map[string]int64)
	}
	a.units[id] = &u
	return id
}

// PutHouse stores a faction under a caller-chosen ID (fixtures).
func (a *Arena) PutHouse(id ID, h House) error {
	if err := a.claim(id); err != nil {
		return err
	}
	h.id = id
	a.houses[id] = &h
	return nil
}

// PutUnit stores an actor under a caller-chosen ID (fixtures).
func (a *Arena) PutUnit(id ID, u Unit) error {
	if err := a.claim(id); err != nil {
		return err
	}
	u.id = id
	if u.Effects == nil {
		u.Effects = make(map[string]int64)
	}
	a.units[id] = &u
	return nil
}

func (a *Arena) alloc() ID {
	for a.exists(a.next) {
		a.next++
	}
	id := a.next
	a.next++
	return id
}

func (a *Arena) claim(id ID) error {
	if id == NoID {
		return fmt.Errorf("id 0 is reserved")
	}
	if a.exists(id) {
		return fmt.Errorf("id %d already in use", id)
	}
	return nil
}

func (a *Arena) exists(id ID) bool {
	_, u := a.units[id]
	_, h := a.houses[id]
	return u || h
}

// Unit returns the stored actor for direct inspection in tests and fixtures.
func (a *Arena) Unit(id ID) (*Unit, bool) {
	u, ok := a.units[id]
	return u, ok
}

// House returns the stored faction for direct inspection in tests and
// fixtures.
func (a *Arena) House(id ID) (*House, bool) {
	h, ok := a.houses[id]
	return h, ok
}

// Actor implements World.
func (a *Arena) Actor(id ID) (Actor, bool) {
	u, ok := a.units[id]
	if !ok {
		return nil, false
	}
	return unitView{u: u}, true
}

// Faction implements World.
func (a *Arena) Faction(id ID) (Faction, bool) {
	h, ok := a.houses[id]
	if !ok {
		return nil, false
	}
	return houseView{h: h, arena: a}, true
}

// Validate checks that every relation points at an existing entry of the
// right family.
func (a *Arena) Validate() error {
	for _, id := range a.UnitIDs() {
		u := a.units[id]
		if u.OwnerID != NoID {
			if _, ok := a.houses[u.OwnerID]; !ok {
				return fmt.Errorf("actor %d: owner %d is not a faction", id, u.OwnerID)
			}
		}
		refs := map[string]ID{
			"transporter": u.TransporterID,
			"housing":     u.HousingID,
			"bunker":      u.BunkerID,
			"controller":  u.ControllerID,
			"parasite":    u.ParasiteID,
			"host":        u.HostID,
		}
		for _, name := range []string{"transporter", "housing", "bunker", "controller", "parasite", "host"} {
			ref := refs[name]
			if ref == NoID {
				continue
			}
			if _, ok := a.units[ref]; !ok {
				return fmt.Errorf("actor %d: %s %d is not an actor", id, name, ref)
			}
		}
		for _, list := range [][]ID{u.Cargo, u.Controlled} {
			for _, ref := range list {
				if _, ok := a.units[ref]; !ok {
					return fmt.Errorf("actor %d: related actor %d does not exist", id, ref)
				}
			}
		}
	}
	for _, id := range a.HouseIDs() {
		for _, ally := range a.houses[id].AllyIDs {
			if _, ok := a.houses[ally]; !ok {
				return fmt.Errorf("faction %d: ally %d is not a faction", id, ally)
			}
		}
	}
	return nil
}

// UnitIDs returns actor IDs in ascending order.
func (a *Arena) UnitIDs() []ID {
	ids := make([]ID, 0, len(a.units))
	for id := range a.units {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// HouseIDs returns faction IDs in ascending order.
func (a *Arena) HouseIDs() []ID {
	ids := make([]ID, 0, len(a.houses))
	for id := range a.houses {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AttachEffect implements Mutator. Re-attaching refreshes the duration.
func (a *Arena) AttachEffect(id ID, effect string, duration int64) error {
	u, err := a.mustUnit(id)
	if err != nil {
		return err
	}
	u.Effects[effect] = duration
	return nil
}

// RemoveEffect implements Mutator. Removing an absent effect is a no-op.
func (a *Arena) RemoveEffect(id ID, effect string) error {
	u, err := a.mustUnit(id)
	if err != nil {
		return err
	}
	delete(u.Effects, effect)
	return nil
}

// AdjustHealth implements Mutator, clamping to [0, max].
func (a *Arena) AdjustHealth(id ID, delta int64) error {
	u, err := a.mustUnit(id)
	if err != nil {
		return err
	}
	u.HP = min(max(u.HP+delta, 0), u.MaxHP)
	return nil
}

// SetRank implements Mutator.
func (a *Arena) SetRank(id ID, rank ir.Rank) error {
	u, err := a.mustUnit(id)
	if err != nil {
		return err
	}
	u.Veterancy = rank
	return nil
}

// SetOwner implements Mutator.
func (a *Arena) SetOwner(id ID, owner ID) error {
	u, err := a.mustUnit(id)
	if err != nil {
		return err
	}
	if _, ok := a.houses[owner]; !ok {
		return fmt.Errorf("set owner of %d: %d is not a faction", id, owner)
	}
	u.OwnerID = owner
	return nil
}

func (a *Arena) mustUnit(id ID) (*Unit, error) {
	u, ok := a.units[id]
	if !ok {
		return nil, fmt.Errorf("actor %d not found", id)
	}
	return u, nil
}

type unitView struct{ u *Unit }

func ref(id ID) (ID, bool) { return id, id != NoID }

func (v unitView) ID() ID         { return v.u.id }
func (v unitView) Kind() Kind     { return v.u.Kind }
func (v unitView) UnitLike() bool { return v.u.Kind.UnitLike() }

func (v unitView) Owner() (ID, bool)            { return ref(v.u.OwnerID) }
func (v unitView) Transporter() (ID, bool)      { return ref(v.u.TransporterID) }
func (v unitView) HousingMe() (ID, bool)        { return ref(v.u.HousingID) }
func (v unitView) BunkerLink() (ID, bool)       { return ref(v.u.BunkerID) }
func (v unitView) MindControlledBy() (ID, bool) { return ref(v.u.ControllerID) }
func (v unitView) Parasite() (ID, bool)         { return ref(v.u.ParasiteID) }
func (v unitView) ParasiteHost() (ID, bool)     { return ref(v.u.HostID) }

func (v unitView) MindControlledPermanently() bool {
	return v.u.PermaControlled && v.u.ControllerID == NoID
}

func (v unitView) TypeName() string { return v.u.Type }

func (v unitView) StatusEffects() []string {
	names := make([]string, 0, len(v.u.Effects))
	for name := range v.u.Effects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v unitView) ShieldType() (string, bool) { return v.u.Shield, v.u.Shield != "" }
func (v unitView) Rank() ir.Rank              { return v.u.Veterancy }
func (v unitView) Health() (int64, int64)     { return v.u.HP, v.u.MaxHP }
func (v unitView) InAir() bool                { return v.u.Airborne }
func (v unitView) OnWater() bool              { return v.u.Water }
func (v unitView) Passengers() []ID           { return slices.Clone(v.u.Cargo) }
func (v unitView) Upgrades() []string         { return slices.Clone(v.u.Addons) }
func (v unitView) Controlling() []ID          { return slices.Clone(v.u.Controlled) }

type houseView struct {
	h     *House
	arena *Arena
}

func (v houseView) ID() ID          { return v.h.id }
func (v houseView) Side() string    { return v.h.SideName }
func (v houseView) Country() string { return v.h.Country }
func (v houseView) Human() bool     { return v.h.IsHuman }

func (v houseView) AlliedWith(other ID) bool {
	if other == v.h.id {
		return true
	}
	return slices.Contains(v.h.AllyIDs, other)
}

func (v houseView) Buildings() []ID {
	var out []ID
	for _, id := range v.arena.UnitIDs() {
		u := v.arena.units[id]
		if u.Kind == KindBuilding && u.OwnerID == v.h.id {
			out = append(out, id)
		}
	}
	return out
}

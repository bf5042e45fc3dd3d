package world

import (
	"fmt"

	"github.com/roach88/evrule/internal/ir"
)

// ID is a stable arena handle. The zero ID is never allocated and denotes an
// empty participant slot.
type ID uint32

// NoID is the empty handle.
const NoID ID = 0

// Kind classifies an arena entry.
type Kind int

const (
	KindInfantry Kind = iota + 1
	KindUnit
	KindAircraft
	KindBuilding
	// KindObject is an owned, non unit-like entry (terrain object, projectile).
	KindObject
)

// String returns the fixture name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInfantry:
		return "infantry"
	case KindUnit:
		return "unit"
	case KindAircraft:
		return "aircraft"
	case KindBuilding:
		return "building"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a fixture name into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindInfantry, KindUnit, KindAircraft, KindBuilding, KindObject} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown actor kind %q", s)
}

// UnitLike reports whether entries of this kind carry the full actor surface.
func (k Kind) UnitLike() bool {
	switch k {
	case KindInfantry, KindUnit, KindAircraft, KindBuilding:
		return true
	default:
		return false
	}
}

// Actor is the read-only capability surface of one arena entry.
//
// Relation getters return false when the relation is absent. Non unit-like
// actors answer Owner and zero values for everything else.
type Actor interface {
	ID() ID
	Kind() Kind
	UnitLike() bool
	Owner() (ID, bool)

	Transporter() (ID, bool)
	HousingMe() (ID, bool)
	BunkerLink() (ID, bool)
	MindControlledBy() (ID, bool)
	// MindControlledPermanently is true when the actor was captured by a
	// unit whose control no longer depends on a live controller.
	MindControlledPermanently() bool
	Parasite() (ID, bool)
	ParasiteHost() (ID, bool)

	TypeName() string
	StatusEffects() []string
	ShieldType() (string, bool)
	Rank() ir.Rank
	Health() (current, max int64)
	InAir() bool
	OnWater() bool
	Passengers() []ID
	Upgrades() []string
	Controlling() []ID
}

// Faction is the read-only capability surface of a house.
type Faction interface {
	ID() ID
	Side() string
	Country() string
	// Buildings lists owned buildings in ID order.
	Buildings() []ID
	Human() bool
	AlliedWith(other ID) bool
}

// World resolves IDs to actors and factions. A lookup of an unknown ID, or
// of an ID of the other family, returns false.
type World interface {
	Actor(id ID) (Actor, bool)
	Faction(id ID) (Faction, bool)
}

// Mutator is the write surface used by effects.
type Mutator interface {
	AttachEffect(id ID, effect string, duration int64) error
	RemoveEffect(id ID, effect string) error
	AdjustHealth(id ID, delta int64) error
	SetRank(id ID, rank ir.Rank) error
	SetOwner(id ID, owner ID) error
}

// MutableWorld is a World that effects can change.
type MutableWorld interface {
	World
	Mutator
}

// OwnerOf returns the owning faction of any arena entry. A faction owns
// itself.
func OwnerOf(w World, id ID) (ID, bool) {
	if id == NoID {
		return NoID, false
	}
	if _, ok := w.Faction(id); ok {
		return id, true
	}
	a, ok := w.Actor(id)
	if !ok {
		return NoID, false
	}
	return a.Owner()
}

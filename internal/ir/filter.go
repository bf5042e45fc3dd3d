package ir

import "slices"

// Filter is the compiled predicate set of one Filter or NegFilter group.
//
// Every field is independently optional: scalar checks use Opt, list checks
// are declared when non-empty. The two Has* flags are computed once by
// Finalize and must not be recomputed at evaluation time.
type Filter struct {
	// Actor-level checks.
	Abstract              Opt[AffectedTarget]    `json:"abstract,omitzero"`
	IsInAir               Opt[bool]              `json:"is_in_air,omitzero"`
	TechnoTypes           []string               `json:"techno_types,omitempty"`
	AttachedEffects       []string               `json:"attached_effects,omitempty"`
	ShieldTypes           []string               `json:"shield_types,omitempty"`
	Veterancy             Opt[AffectedVeterancy] `json:"veterancy,omitzero"`
	HPPercentage          Opt[HPThreshold]       `json:"hp_percentage,omitzero"`
	IsPassenger           Opt[bool]              `json:"is_passenger,omitzero"`
	IsParasited           Opt[bool]              `json:"is_parasited,omitzero"`
	IsParasiting          Opt[bool]              `json:"is_parasiting,omitzero"`
	IsBunkered            Opt[bool]              `json:"is_bunkered,omitzero"`
	IsMindControlled      Opt[bool]              `json:"is_mind_controlled,omitzero"`
	IsMindControlledPerma Opt[bool]              `json:"is_mind_controlled_perma,omitzero"`
	MindControllingAny    Opt[bool]              `json:"mind_controlling_any,omitzero"`
	MindControllingType   []string               `json:"mind_controlling_type,omitempty"`
	PassengersAny         Opt[bool]              `json:"passengers_any,omitzero"`
	PassengersType        []string               `json:"passengers_type,omitempty"`
	UpgradesAny           Opt[bool]              `json:"upgrades_any,omitzero"`
	UpgradesType          []string               `json:"upgrades_type,omitempty"`

	// Faction-level checks.
	House     Opt[AffectedHouse] `json:"house,omitzero"`
	Sides     []string           `json:"sides,omitempty"`
	Countries []string           `json:"countries,omitempty"`
	Buildings []string           `json:"buildings,omitempty"`
	IsHuman   Opt[bool]          `json:"is_human,omitzero"`
	IsAI      Opt[bool]          `json:"is_ai,omitzero"`

	HasActorChecks   bool `json:"-"`
	HasFactionChecks bool `json:"-"`
}

// Finalize precomputes which check families are declared.
func (f *Filter) Finalize() {
	f.HasActorChecks = f.Abstract.IsSet() ||
		f.IsInAir.IsSet() ||
		len(f.TechnoTypes) > 0 ||
		len(f.AttachedEffects) > 0 ||
		len(f.ShieldTypes) > 0 ||
		f.Veterancy.IsSet() ||
		f.HPPercentage.IsSet() ||
		f.IsPassenger.IsSet() ||
		f.IsParasited.IsSet() ||
		f.IsParasiting.IsSet() ||
		f.IsBunkered.IsSet() ||
		f.IsMindControlled.IsSet() ||
		f.IsMindControlledPerma.IsSet() ||
		f.MindControllingAny.IsSet() ||
		len(f.MindControllingType) > 0 ||
		f.PassengersAny.IsSet() ||
		len(f.PassengersType) > 0 ||
		f.UpgradesAny.IsSet() ||
		len(f.UpgradesType) > 0

	f.HasFactionChecks = f.House.IsSet() ||
		len(f.Sides) > 0 ||
		len(f.Countries) > 0 ||
		len(f.Buildings) > 0 ||
		f.IsHuman.IsSet() ||
		f.IsAI.IsSet()
}

// IsDefined reports whether any check is declared. Call Finalize first.
func (f *Filter) IsDefined() bool {
	return f.HasActorChecks || f.HasFactionChecks
}

// Clone returns a deep copy so no two components share list storage.
func (f *Filter) Clone() *Filter {
	if f == nil {
		return nil
	}
	out := *f
	out.TechnoTypes = slices.Clone(f.TechnoTypes)
	out.AttachedEffects = slices.Clone(f.AttachedEffects)
	out.ShieldTypes = slices.Clone(f.ShieldTypes)
	out.MindControllingType = slices.Clone(f.MindControllingType)
	out.PassengersType = slices.Clone(f.PassengersType)
	out.UpgradesType = slices.Clone(f.UpgradesType)
	out.Sides = slices.Clone(f.Sides)
	out.Countries = slices.Clone(f.Countries)
	out.Buildings = slices.Clone(f.Buildings)
	return &out
}

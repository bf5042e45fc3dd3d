package engine

import (
	"slices"
	"strings"

	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

// CheckFilter evaluates f against target on behalf of house.
//
// Every declared check computes its outcome and fails the filter when
// negate == outcome. With negate=false all declared checks must hold; with
// negate=true all of them must not. Undeclared checks are skipped, so an
// empty filter passes either way.
//
// Actor checks need a unit-like target and faction checks need a resolvable
// owning faction; otherwise the filter fails closed.
func CheckFilter(w world.World, f *ir.Filter, house, target world.ID, negate bool) bool {
	if f == nil {
		return true
	}
	if f.HasActorChecks {
		actor, ok := w.Actor(target)
		if !ok || !actor.UnitLike() {
			return false
		}
		if !checkActor(w, f, actor, negate) {
			return false
		}
	}
	if f.HasFactionChecks {
		ownerID, ok := world.OwnerOf(w, target)
		if !ok {
			return false
		}
		owner, ok := w.Faction(ownerID)
		if !ok {
			return false
		}
		if !checkFaction(w, f, house, owner, negate) {
			return false
		}
	}
	return true
}

// fails applies the per-check negate rule.
func fails(negate, outcome bool) bool { return negate == outcome }

func checkActor(w world.World, f *ir.Filter, a world.Actor, negate bool) bool {
	if v, ok := f.Abstract.Get(); ok {
		if fails(negate, abstractMatches(v, a)) {
			return false
		}
	}
	if v, ok := f.IsInAir.Get(); ok {
		if fails(negate, a.InAir() == v) {
			return false
		}
	}
	if len(f.TechnoTypes) > 0 {
		if fails(negate, containsFold(f.TechnoTypes, a.TypeName())) {
			return false
		}
	}
	if len(f.AttachedEffects) > 0 {
		if fails(negate, anyFold(f.AttachedEffects, a.StatusEffects())) {
			return false
		}
	}
	if len(f.ShieldTypes) > 0 {
		shield, has := a.ShieldType()
		if fails(negate, has && containsFold(f.ShieldTypes, shield)) {
			return false
		}
	}
	if v, ok := f.Veterancy.Get(); ok {
		if fails(negate, v.Allows(a.Rank())) {
			return false
		}
	}
	if v, ok := f.HPPercentage.Get(); ok {
		if fails(negate, v.Satisfied(a.Health())) {
			return false
		}
	}
	if v, ok := f.IsPassenger.Get(); ok {
		_, carried := a.Transporter()
		_, housed := a.HousingMe()
		if fails(negate, (carried || housed) == v) {
			return false
		}
	}
	if v, ok := f.IsParasited.Get(); ok {
		_, has := a.Parasite()
		if fails(negate, has == v) {
			return false
		}
	}
	if v, ok := f.IsParasiting.Get(); ok {
		_, has := a.ParasiteHost()
		if fails(negate, has == v) {
			return false
		}
	}
	if v, ok := f.IsBunkered.Get(); ok {
		_, has := a.BunkerLink()
		if fails(negate, has == v) {
			return false
		}
	}
	if v, ok := f.IsMindControlled.Get(); ok {
		_, has := a.MindControlledBy()
		if fails(negate, (has || a.MindControlledPermanently()) == v) {
			return false
		}
	}
	if v, ok := f.IsMindControlledPerma.Get(); ok {
		if fails(negate, a.MindControlledPermanently() == v) {
			return false
		}
	}

	if f.MindControllingAny.IsSet() || len(f.MindControllingType) > 0 {
		if !checkRelated(w, negate, a.Controlling(), f.MindControllingAny, f.MindControllingType) {
			return false
		}
	}
	if f.PassengersAny.IsSet() || len(f.PassengersType) > 0 {
		if !checkRelated(w, negate, a.Passengers(), f.PassengersAny, f.PassengersType) {
			return false
		}
	}
	if f.UpgradesAny.IsSet() || len(f.UpgradesType) > 0 {
		var upgrades []string
		if a.Kind() == world.KindBuilding {
			upgrades = a.Upgrades()
		}
		if v, ok := f.UpgradesAny.Get(); ok {
			if fails(negate, (len(upgrades) > 0) == v) {
				return false
			}
		}
		if len(f.UpgradesType) > 0 {
			if fails(negate, anyFold(f.UpgradesType, upgrades)) {
				return false
			}
		}
	}
	return true
}

// checkRelated evaluates an Any/Type pair over one related-actor list. The
// two halves share the scan but apply the negate rule independently.
func checkRelated(w world.World, negate bool, related []world.ID, anyCheck ir.Opt[bool], types []string) bool {
	if v, ok := anyCheck.Get(); ok {
		if fails(negate, (len(related) > 0) == v) {
			return false
		}
	}
	if len(types) > 0 {
		matched := false
		for _, id := range related {
			if r, ok := w.Actor(id); ok && containsFold(types, r.TypeName()) {
				matched = true
				break
			}
		}
		if fails(negate, matched) {
			return false
		}
	}
	return true
}

// abstractMatches checks the cell part and the content part separately. A
// part with no bits configured passes.
func abstractMatches(t ir.AffectedTarget, a world.Actor) bool {
	if t.Has(ir.TargetAllCells) {
		cell := ir.TargetLand
		if a.OnWater() {
			cell = ir.TargetWater
		}
		if !t.Has(cell) {
			return false
		}
	}
	if t.Has(ir.TargetContents) {
		var content ir.AffectedTarget
		switch a.Kind() {
		case world.KindInfantry:
			content = ir.TargetInfantry
		case world.KindUnit, world.KindAircraft:
			content = ir.TargetUnits
		case world.KindBuilding:
			content = ir.TargetBuildings
		}
		if !t.Has(content) {
			return false
		}
	}
	return true
}

func checkFaction(w world.World, f *ir.Filter, house world.ID, owner world.Faction, negate bool) bool {
	if v, ok := f.House.Get(); ok {
		if fails(negate, CanTargetHouse(w, v, house, owner.ID())) {
			return false
		}
	}
	if len(f.Sides) > 0 {
		if fails(negate, containsFold(f.Sides, owner.Side())) {
			return false
		}
	}
	if len(f.Countries) > 0 {
		if fails(negate, containsFold(f.Countries, owner.Country())) {
			return false
		}
	}
	if len(f.Buildings) > 0 {
		if fails(negate, ownsBuilding(w, owner, f.Buildings)) {
			return false
		}
	}
	if v, ok := f.IsHuman.Get(); ok {
		if fails(negate, owner.Human() == v) {
			return false
		}
	}
	if v, ok := f.IsAI.Get(); ok {
		if fails(negate, !owner.Human() == v) {
			return false
		}
	}
	return true
}

// ownsBuilding matches a building's own type or any upgrade attached to it.
func ownsBuilding(w world.World, owner world.Faction, types []string) bool {
	for _, id := range owner.Buildings() {
		b, ok := w.Actor(id)
		if !ok {
			continue
		}
		if containsFold(types, b.TypeName()) || anyFold(types, b.Upgrades()) {
			return true
		}
	}
	return false
}

// CanTargetHouse applies an AffectedHouse policy from house's point of view.
// An absent house is treated as an enemy of everyone.
func CanTargetHouse(w world.World, policy ir.AffectedHouse, house, target world.ID) bool {
	if policy == ir.HouseAll {
		return true
	}
	if house != world.NoID && house == target {
		return policy.Has(ir.HouseOwner)
	}
	if house != world.NoID {
		if h, ok := w.Faction(house); ok && h.AlliedWith(target) {
			return policy.Has(ir.HouseAllies)
		}
	}
	return policy.Has(ir.HouseEnemies)
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(item string) bool {
		return strings.EqualFold(item, s)
	})
}

func anyFold(list, values []string) bool {
	for _, v := range values {
		if containsFold(list, v) {
			return true
		}
	}
	return false
}

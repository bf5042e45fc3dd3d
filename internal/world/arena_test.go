package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evrule/internal/ir"
)

func TestArena_RelationsAreIDLookups(t *testing.T) {
	a := NewArena()
	house := a.AddHouse(House{Name: "Allies", SideName: "GDI"})
	ifv := a.AddUnit(Unit{Kind: KindUnit, Type: "IFV", OwnerID: house})
	gi := a.AddUnit(Unit{Kind: KindInfantry, Type: "GI", OwnerID: house, TransporterID: ifv})
	a.units[ifv].Cargo = []ID{gi}

	actor, ok := a.Actor(gi)
	require.True(t, ok)
	tr, ok := actor.Transporter()
	assert.True(t, ok)
	assert.Equal(t, ifv, tr)

	_, ok = actor.Parasite()
	assert.False(t, ok, "absent relation reports false")

	carrier, ok := a.Actor(ifv)
	require.True(t, ok)
	assert.Equal(t, []ID{gi}, carrier.Passengers())

	_, ok = a.Actor(house)
	assert.False(t, ok, "factions are not actors")
	_, ok = a.Faction(gi)
	assert.False(t, ok, "actors are not factions")
}

func TestOwnerOf(t *testing.T) {
	a := NewArena()
	house := a.AddHouse(House{Name: "Soviet"})
	unit := a.AddUnit(Unit{Kind: KindUnit, OwnerID: house})
	orphan := a.AddUnit(Unit{Kind: KindObject})

	got, ok := OwnerOf(a, unit)
	assert.True(t, ok)
	assert.Equal(t, house, got)

	got, ok = OwnerOf(a, house)
	assert.True(t, ok, "a faction owns itself")
	assert.Equal(t, house, got)

	_, ok = OwnerOf(a, orphan)
	assert.False(t, ok)
	_, ok = OwnerOf(a, NoID)
	assert.False(t, ok)
}

func TestHouseView_BuildingsAndAlliance(t *testing.T) {
	a := NewArena()
	h1 := a.AddHouse(House{Name: "A"})
	h2 := a.AddHouse(House{Name: "B", AllyIDs: []ID{h1}})
	b1 := a.AddUnit(Unit{Kind: KindBuilding, Type: "GAPILE", OwnerID: h2})
	a.AddUnit(Unit{Kind: KindUnit, Type: "MTNK", OwnerID: h2})
	a.AddUnit(Unit{Kind: KindBuilding, Type: "NAHAND", OwnerID: h1})

	f, ok := a.Faction(h2)
	require.True(t, ok)
	assert.Equal(t, []ID{b1}, f.Buildings())
	assert.True(t, f.AlliedWith(h1))
	assert.True(t, f.AlliedWith(h2))

	other, _ := a.Faction(h1)
	assert.False(t, other.AlliedWith(h2), "alliance is one-directional in storage")
}

func TestArena_Mutations(t *testing.T) {
	a := NewArena()
	h1 := a.AddHouse(House{})
	h2 := a.AddHouse(House{})
	u := a.AddUnit(Unit{Kind: KindUnit, OwnerID: h1, HP: 50, MaxHP: 100})

	require.NoError(t, a.AttachEffect(u, "Rage", 300))
	require.NoError(t, a.AdjustHealth(u, 80))
	require.NoError(t, a.SetRank(u, ir.RankElite))
	require.NoError(t, a.SetOwner(u, h2))

	actor, _ := a.Actor(u)
	assert.Equal(t, []string{"Rage"}, actor.StatusEffects())
	cur, maxHP := actor.Health()
	assert.Equal(t, int64(100), cur, "health clamps at max")
	assert.Equal(t, int64(100), maxHP)
	assert.Equal(t, ir.RankElite, actor.Rank())
	owner, _ := actor.Owner()
	assert.Equal(t, h2, owner)

	require.NoError(t, a.RemoveEffect(u, "Rage"))
	assert.Empty(t, actor.StatusEffects())

	assert.Error(t, a.SetOwner(u, u), "owner must be a faction")
	assert.Error(t, a.AdjustHealth(999, 1))
}

func TestArena_PermanentMindControl(t *testing.T) {
	a := NewArena()
	yuri := a.AddUnit(Unit{Kind: KindInfantry})
	held := a.AddUnit(Unit{Kind: KindUnit, ControllerID: yuri, PermaControlled: true})
	freed := a.AddUnit(Unit{Kind: KindUnit, PermaControlled: true})

	heldView, _ := a.Actor(held)
	assert.False(t, heldView.MindControlledPermanently(), "a live controller means not permanent")
	freedView, _ := a.Actor(freed)
	assert.True(t, freedView.MindControlledPermanently())
}

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
factions:
  - id: 1
    side: GDI
    country: Americans
    human: true
actors:
  - id: 10
    kind: unit
    type: IFV
    owner: 1
    health: 200
    passengers: [11]
  - id: 11
    kind: infantry
    type: E1
    owner: 1
    health: 50
    max_health: 125
    rank: veteran
    transporter: 10
    effects:
      Rage: 100
`), 0o644))

	a, err := LoadFixture(path)
	require.NoError(t, err)

	gi, ok := a.Actor(11)
	require.True(t, ok)
	assert.Equal(t, ir.RankVeteran, gi.Rank())
	cur, maxHP := gi.Health()
	assert.Equal(t, int64(50), cur)
	assert.Equal(t, int64(125), maxHP)

	ifv, _ := a.Actor(10)
	_, maxHP = ifv.Health()
	assert.Equal(t, int64(200), maxHP, "max health defaults to health")
}

func TestLoadFixture_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "actors:\n  - id: 1\n    kind: unit\n    colour: red\n"},
		{"bad kind", "actors:\n  - id: 1\n    kind: tree\n"},
		{"dangling relation", "actors:\n  - id: 1\n    kind: unit\n    transporter: 9\n"},
		{"owner not a faction", "actors:\n  - id: 1\n    kind: unit\n  - id: 2\n    kind: unit\n    owner: 1\n"},
		{"duplicate id", "factions:\n  - id: 1\nactors:\n  - id: 1\n    kind: unit\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "w.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := LoadFixture(path)
			assert.Error(t, err)
		})
	}
}

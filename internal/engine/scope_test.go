package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

func TestResolveTrueTarget(t *testing.T) {
	n := newNegationArena(t)

	tests := []struct {
		name   string
		raw    world.ID
		ext    ir.ExtendedScope
		want   world.ID
		wantOK bool
	}{
		{"direct returns raw", n.tank, ir.Direct, n.tank, true},
		{"direct absent stays absent", world.NoID, ir.Direct, world.NoID, false},
		{"absent with relation", world.NoID, ir.Transport, world.NoID, false},

		{"owner of unit", n.tank, ir.Owner, n.house, true},
		{"transport carried", n.rider, ir.Transport, n.ifv, true},
		{"transport falls back to housing", n.housed, ir.Transport, n.ifv, true},
		{"transport none", n.tank, ir.Transport, world.NoID, false},
		{"bunker", n.tank, ir.Bunker, n.bunker, true},
		{"bunker none", n.ifv, ir.Bunker, world.NoID, false},
		{"mind controller", n.thrall, ir.MindController, n.mind, true},
		{"mind controller perma has none", n.perma, ir.MindController, world.NoID, false},
		{"parasite", n.ship, ir.Parasite, n.squid, true},
		{"host", n.squid, ir.Host, n.ship, true},
		{"host none", n.ship, ir.Host, world.NoID, false},

		{"faction owner is itself", n.house, ir.Owner, n.house, true},
		{"faction transport is absent", n.house, ir.Transport, world.NoID, false},
		{"faction parasite is absent", n.house, ir.Parasite, world.NoID, false},
		{"object owner absent when unowned", n.neutral, ir.Owner, world.NoID, false},
		{"object bunker is absent", n.neutral, ir.Bunker, world.NoID, false},
		{"unknown id owner", 9999, ir.Owner, world.NoID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveTrueTarget(n, tt.raw, tt.ext)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveTrueTarget_OwnedObject(t *testing.T) {
	a := world.NewArena()
	h := a.AddHouse(world.House{Name: "A"})
	crate := a.AddUnit(world.Unit{Kind: world.KindObject, Type: "Crate", OwnerID: h})

	got, ok := ResolveTrueTarget(a, crate, ir.Owner)
	assert.True(t, ok)
	assert.Equal(t, h, got)

	_, ok = ResolveTrueTarget(a, crate, ir.Host)
	assert.False(t, ok)
}

func TestResolveTrueTarget_UnknownRelationPanics(t *testing.T) {
	a, meID, _ := duelArena(t)
	assert.Panics(t, func() { ResolveTrueTarget(a, meID, ir.ExtendedScope(42)) })
}

func TestParticipants(t *testing.T) {
	p := Pair(7, world.NoID)
	assert.Equal(t, []ir.Scope{ir.ScopeMe}, p.Scopes())

	_, ok := p.Get(ir.ScopeThey)
	assert.False(t, ok)

	p[ir.ScopeThey] = 3
	assert.Equal(t, []ir.Scope{ir.ScopeMe, ir.ScopeThey}, p.Scopes())
	assert.Equal(t, map[string]any{"Me": int64(7), "They": int64(3)}, p.Canonical())

	clone := p.Clone()
	clone[ir.ScopeMe] = 1
	assert.Equal(t, world.ID(7), p[ir.ScopeMe])

	// A slot explicitly holding NoID counts as empty.
	p[ir.ScopeMe] = world.NoID
	assert.Equal(t, []ir.Scope{ir.ScopeThey}, p.Scopes())
}

package world

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/evrule/internal/ir"
)

// Fixture is the YAML form of an arena. IDs are explicit so scenarios can
// refer to actors by number.
type Fixture struct {
	Factions []FactionFixture `yaml:"factions"`
	Actors   []ActorFixture   `yaml:"actors"`
}

// FactionFixture describes one house.
type FactionFixture struct {
	ID      ID     `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	Side    string `yaml:"side,omitempty"`
	Country string `yaml:"country,omitempty"`
	Human   bool   `yaml:"human,omitempty"`
	Allies  []ID   `yaml:"allies,omitempty"`
}

// ActorFixture describes one actor. Zero relation IDs mean "none".
type ActorFixture struct {
	ID        ID               `yaml:"id"`
	Kind      string           `yaml:"kind"`
	Type      string           `yaml:"type,omitempty"`
	Owner     ID               `yaml:"owner,omitempty"`
	Health    int64            `yaml:"health,omitempty"`
	MaxHealth int64            `yaml:"max_health,omitempty"`
	Rank      string           `yaml:"rank,omitempty"`
	InAir     bool             `yaml:"in_air,omitempty"`
	OnWater   bool             `yaml:"on_water,omitempty"`
	Effects   map[string]int64 `yaml:"effects,omitempty"`
	Shield    string           `yaml:"shield,omitempty"`

	Transporter      ID   `yaml:"transporter,omitempty"`
	Housing          ID   `yaml:"housing,omitempty"`
	Bunker           ID   `yaml:"bunker,omitempty"`
	MindControlledBy ID   `yaml:"mind_controlled_by,omitempty"`
	PermaControlled  bool `yaml:"perma_controlled,omitempty"`
	Parasite         ID   `yaml:"parasite,omitempty"`
	Host             ID   `yaml:"host,omitempty"`

	Passengers  []ID     `yaml:"passengers,omitempty"`
	Upgrades    []string `yaml:"upgrades,omitempty"`
	Controlling []ID     `yaml:"controlling,omitempty"`
}

// LoadFixture reads a YAML fixture file and builds a validated arena.
func LoadFixture(path string) (*Arena, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var fx Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	arena, err := fx.Build()
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return arena, nil
}

// Build converts the fixture into a validated arena.
func (fx Fixture) Build() (*Arena, error) {
	a := NewArena()
	for _, f := range fx.Factions {
		err := a.PutHouse(f.ID, House{
			Name:     f.Name,
			SideName: f.Side,
			Country:  f.Country,
			IsHuman:  f.Human,
			AllyIDs:  f.Allies,
		})
		if err != nil {
			return nil, fmt.Errorf("faction %d: %w", f.ID, err)
		}
	}
	for _, af := range fx.Actors {
		kind, err := ParseKind(af.Kind)
		if err != nil {
			return nil, fmt.Errorf("actor %d: %w", af.ID, err)
		}
		rank := ir.RankRookie
		if af.Rank != "" {
			if rank, err = ir.ParseRank(af.Rank); err != nil {
				return nil, fmt.Errorf("actor %d: %w", af.ID, err)
			}
		}
		maxHP := af.MaxHealth
		if maxHP == 0 {
			maxHP = af.Health
		}
		effects := make(map[string]int64, len(af.Effects))
		for name, d := range af.Effects {
			effects[name] = d
		}
		err = a.PutUnit(af.ID, Unit{
			Kind:            kind,
			Type:            af.Type,
			OwnerID:         af.Owner,
			TransporterID:   af.Transporter,
			HousingID:       af.Housing,
			BunkerID:        af.Bunker,
			ControllerID:    af.MindControlledBy,
			PermaControlled: af.PermaControlled,
			ParasiteID:      af.Parasite,
			HostID:          af.Host,
			Effects:         effects,
			Shield:          af.Shield,
			Veterancy:       rank,
			HP:              af.Health,
			MaxHP:           maxHP,
			Airborne:        af.InAir,
			Water:           af.OnWater,
			Cargo:           af.Passengers,
			Addons:          af.Upgrades,
			Controlled:      af.Controlling,
		})
		if err != nil {
			return nil, fmt.Errorf("actor %d: %w", af.ID, err)
		}
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Snapshot renders the mutable actor state in a form suitable for canonical
// JSON (golden files, final-state assertions).
func (a *Arena) Snapshot() map[string]any {
	actors := make([]any, 0, len(a.units))
	for _, id := range a.UnitIDs() {
		u := a.units[id]
		effects := make(map[string]any, len(u.Effects))
		for name, d := range u.Effects {
			effects[name] = d
		}
		actors = append(actors, map[string]any{
			"id":      int64(id),
			"type":    u.Type,
			"owner":   int64(u.OwnerID),
			"health":  u.HP,
			"rank":    u.Veterancy.String(),
			"effects": effects,
		})
	}
	return map[string]any{"actors": actors}
}

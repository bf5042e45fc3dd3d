package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AffectedTarget is a bit set of eligible terrain and object kinds used by
// the Abstract filter check.
type AffectedTarget uint16

const (
	TargetLand AffectedTarget = 1 << iota
	TargetWater
	TargetEmpty
	TargetInfantry
	TargetUnits
	TargetBuildings

	TargetNone     AffectedTarget = 0
	TargetAllCells                = TargetLand | TargetWater
	TargetContents                = TargetInfantry | TargetUnits | TargetBuildings
	TargetAll                     = TargetAllCells | TargetEmpty | TargetContents
)

var affectedTargetTokens = map[string]AffectedTarget{
	"none":      TargetNone,
	"land":      TargetLand,
	"water":     TargetWater,
	"empty":     TargetEmpty,
	"infantry":  TargetInfantry,
	"units":     TargetUnits,
	"buildings": TargetBuildings,
	"all":       TargetAll,
}

// ParseAffectedTarget parses a comma separated flag list such as "land,units".
func ParseAffectedTarget(s string) (AffectedTarget, error) {
	v, err := parseFlags(s, affectedTargetTokens)
	return AffectedTarget(v), err
}

// Has reports whether any bit of f is set.
func (t AffectedTarget) Has(f AffectedTarget) bool { return t&f != 0 }

// String renders the set as a canonical token list.
func (t AffectedTarget) String() string {
	return formatFlags(uint16(t), affectedTargetTokens, uint16(TargetAll))
}

// MarshalJSON encodes the token list.
func (t AffectedTarget) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// AffectedHouse is a bit set of house relationships used by the House check.
type AffectedHouse uint8

const (
	HouseOwner AffectedHouse = 1 << iota
	HouseAllies
	HouseEnemies

	HouseNone      AffectedHouse = 0
	HouseTeam                    = HouseOwner | HouseAllies
	HouseNotAllies               = HouseOwner | HouseEnemies
	HouseNotOwner                = HouseAllies | HouseEnemies
	HouseAll                     = HouseOwner | HouseAllies | HouseEnemies
)

var affectedHouseTokens = map[string]AffectedHouse{
	"none":      HouseNone,
	"owner":     HouseOwner,
	"self":      HouseOwner,
	"allies":    HouseAllies,
	"ally":      HouseAllies,
	"enemies":   HouseEnemies,
	"enemy":     HouseEnemies,
	"team":      HouseTeam,
	"notallies": HouseNotAllies,
	"notowner":  HouseNotOwner,
	"all":       HouseAll,
}

// ParseAffectedHouse parses a comma separated flag list such as "owner,allies".
func ParseAffectedHouse(s string) (AffectedHouse, error) {
	v, err := parseFlags(s, affectedHouseTokens)
	return AffectedHouse(v), err
}

// Has reports whether any bit of f is set.
func (h AffectedHouse) Has(f AffectedHouse) bool { return h&f != 0 }

// String renders the set as a canonical token list.
func (h AffectedHouse) String() string {
	canonical := map[string]AffectedHouse{"owner": HouseOwner, "allies": HouseAllies, "enemies": HouseEnemies}
	return formatFlags(uint16(h), canonical, uint16(HouseAll))
}

// MarshalJSON encodes the token list.
func (h AffectedHouse) MarshalJSON() ([]byte, error) { return json.Marshal(h.String()) }

// Rank is an actor's veterancy level.
type Rank int

const (
	RankRookie Rank = iota
	RankVeteran
	RankElite
)

// String returns the configuration name of the rank.
func (r Rank) String() string {
	switch r {
	case RankRookie:
		return "rookie"
	case RankVeteran:
		return "veteran"
	case RankElite:
		return "elite"
	default:
		return fmt.Sprintf("Rank(%d)", int(r))
	}
}

// ParseRank converts a configuration name into a Rank.
func ParseRank(s string) (Rank, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rookie":
		return RankRookie, nil
	case "veteran":
		return RankVeteran, nil
	case "elite":
		return RankElite, nil
	default:
		return 0, fmt.Errorf("unknown rank %q", s)
	}
}

// MarshalJSON encodes the rank by name.
func (r Rank) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

// UnmarshalJSON decodes a rank name.
func (r *Rank) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRank(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// AffectedVeterancy is a bit set of ranks used by the Veterancy check.
type AffectedVeterancy uint8

const (
	VeterancyRookie AffectedVeterancy = 1 << iota
	VeterancyVeteran
	VeterancyElite

	VeterancyNone AffectedVeterancy = 0
	VeterancyAll                    = VeterancyRookie | VeterancyVeteran | VeterancyElite
)

var affectedVeterancyTokens = map[string]AffectedVeterancy{
	"none":    VeterancyNone,
	"rookie":  VeterancyRookie,
	"veteran": VeterancyVeteran,
	"elite":   VeterancyElite,
	"all":     VeterancyAll,
}

// ParseAffectedVeterancy parses a comma separated rank list.
func ParseAffectedVeterancy(s string) (AffectedVeterancy, error) {
	v, err := parseFlags(s, affectedVeterancyTokens)
	return AffectedVeterancy(v), err
}

// Allows reports whether rank r is in the set.
func (v AffectedVeterancy) Allows(r Rank) bool {
	switch r {
	case RankRookie:
		return v&VeterancyRookie != 0
	case RankVeteran:
		return v&VeterancyVeteran != 0
	case RankElite:
		return v&VeterancyElite != 0
	default:
		return false
	}
}

// String renders the set as a canonical token list.
func (v AffectedVeterancy) String() string {
	return formatFlags(uint16(v), affectedVeterancyTokens, uint16(VeterancyAll))
}

// MarshalJSON encodes the token list.
func (v AffectedVeterancy) MarshalJSON() ([]byte, error) { return json.Marshal(v.String()) }

type flagValue interface {
	~uint8 | ~uint16
}

// parseFlags ORs together comma separated, case-insensitive tokens.
func parseFlags[T flagValue](s string, tokens map[string]T) (uint16, error) {
	var out uint16
	parts := strings.Split(s, ",")
	seen := 0
	for _, part := range parts {
		tok := strings.ToLower(strings.TrimSpace(part))
		if tok == "" {
			continue
		}
		v, ok := tokens[tok]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", strings.TrimSpace(part))
		}
		out |= uint16(v)
		seen++
	}
	if seen == 0 {
		return 0, fmt.Errorf("empty flag list")
	}
	return out, nil
}

// formatFlags renders single-bit tokens in ascending bit order.
func formatFlags[T flagValue](v uint16, tokens map[string]T, all uint16) string {
	if v == 0 {
		return "none"
	}
	if v == all {
		return "all"
	}
	var parts []string
	for bit := uint16(1); bit != 0 && bit <= all; bit <<= 1 {
		if v&bit == 0 {
			continue
		}
		for name, tv := range tokens {
			if uint16(tv) == bit && !isAlias(name) {
				parts = append(parts, name)
				break
			}
		}
	}
	return strings.Join(parts, ",")
}

func isAlias(name string) bool {
	return name == "self" || name == "ally" || name == "enemy"
}

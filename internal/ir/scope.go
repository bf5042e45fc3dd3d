package ir

import (
	"encoding/json"
	"fmt"
)

// Scope identifies which participant slot of a fired event a rule fragment
// examines. Values are ordered; participant iteration follows this order.
type Scope int

const (
	// ScopeMe is the primary actor of the event.
	ScopeMe Scope = iota
	// ScopeThey is the counterpart actor of the event.
	ScopeThey
)

// Scopes lists every canonical scope in iteration order.
var Scopes = []Scope{ScopeMe, ScopeThey}

// String returns the configuration name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeMe:
		return "Me"
	case ScopeThey:
		return "They"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope converts a configuration name into a Scope.
func ParseScope(name string) (Scope, error) {
	switch name {
	case "Me":
		return ScopeMe, nil
	case "They":
		return ScopeThey, nil
	default:
		return 0, fmt.Errorf("unknown scope %q: must be Me or They", name)
	}
}

// MarshalJSON encodes the scope by name.
func (s Scope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a scope name.
func (s *Scope) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseScope(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ExtendedScope is the one-hop relation applied to a participant before a
// rule fragment examines it. Direct is the explicit "no hop" variant.
type ExtendedScope int

const (
	Direct ExtendedScope = iota
	Owner
	Transport
	Bunker
	MindController
	Parasite
	Host
)

// LoadableExtendedScopes lists the relations read from configuration for
// every scope, in load order. Owner is resolvable but never configured.
var LoadableExtendedScopes = []ExtendedScope{Transport, Bunker, MindController, Parasite, Host}

// String returns the configuration name of the relation.
func (e ExtendedScope) String() string {
	switch e {
	case Direct:
		return ""
	case Owner:
		return "Owner"
	case Transport:
		return "Transport"
	case Bunker:
		return "Bunker"
	case MindController:
		return "MindController"
	case Parasite:
		return "Parasite"
	case Host:
		return "Host"
	default:
		return fmt.Sprintf("ExtendedScope(%d)", int(e))
	}
}

// ParseExtendedScope converts a configuration name into an ExtendedScope.
// The empty string is Direct.
func ParseExtendedScope(name string) (ExtendedScope, error) {
	for _, e := range []ExtendedScope{Direct, Owner, Transport, Bunker, MindController, Parasite, Host} {
		if e.String() == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown extended scope %q", name)
}

// MarshalJSON encodes the relation by name.
func (e ExtendedScope) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// UnmarshalJSON decodes a relation name.
func (e *ExtendedScope) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseExtendedScope(name)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Target is the Scope × ExtendedScope pair a component is bound to.
type Target struct {
	Scope    Scope         `json:"scope"`
	Extended ExtendedScope `json:"extended,omitzero"`
}

// KeyPrefix returns the configuration key prefix for the target:
// "Me", "They.Transport", ...
func (t Target) KeyPrefix() string {
	if t.Extended == Direct {
		return t.Scope.String()
	}
	return t.Scope.String() + "." + t.Extended.String()
}

// String implements fmt.Stringer.
func (t Target) String() string { return t.KeyPrefix() }

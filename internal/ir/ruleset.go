package ir

// NoneName is the rule set name that always loads to an empty, inert rule.
const NoneName = "none"

// DefaultDuration marks an attached effect whose duration comes from the
// effect type itself. It also pads a short Durations list.
const DefaultDuration int64 = -1

// Effect is the compiled action list of one Effect group. Each part is
// optional; declared parts run in field order.
type Effect struct {
	AttachTypes     []string    `json:"attach_types,omitempty"`
	AttachDurations []int64     `json:"attach_durations,omitempty"`
	RemoveEffects   []string    `json:"remove_effects,omitempty"`
	HPChange        Opt[int64]  `json:"hp_change,omitzero"`
	VeterancySet    Opt[Rank]   `json:"veterancy_set,omitzero"`
	OwnerTransfer   Opt[Scope]  `json:"owner_transfer,omitzero"`
	FireEvent       Opt[string] `json:"fire_event,omitzero"`
	Script          Opt[string] `json:"script,omitzero"`
}

// IsDefined reports whether any part of the effect is declared.
func (e *Effect) IsDefined() bool {
	return len(e.AttachTypes) > 0 ||
		len(e.RemoveEffects) > 0 ||
		e.HPChange.IsSet() ||
		e.VeterancySet.IsSet() ||
		e.OwnerTransfer.IsSet() ||
		e.FireEvent.IsSet() ||
		e.Script.IsSet()
}

// Durations returns one duration per attach type: a short list is padded
// with DefaultDuration and a long one truncated.
func (e *Effect) Durations() []int64 {
	out := make([]int64, len(e.AttachTypes))
	for i := range out {
		if i < len(e.AttachDurations) {
			out[i] = e.AttachDurations[i]
		} else {
			out[i] = DefaultDuration
		}
	}
	return out
}

// Component is one compiled rule fragment. Nil groups are undeclared.
type Component struct {
	Target    Target  `json:"target"`
	Filter    *Filter `json:"filter,omitempty"`
	NegFilter *Filter `json:"neg_filter,omitempty"`
	Effect    *Effect `json:"effect,omitempty"`
}

// IsDefined reports whether the component carries anything to evaluate.
func (c *Component) IsDefined() bool {
	return c.Filter != nil || c.NegFilter != nil || c.Effect != nil
}

// RuleSet is a compiled EventHandlerType section.
type RuleSet struct {
	Name       string      `json:"name"`
	EventTypes []string    `json:"event_types"`
	Components []Component `json:"components"`
}

// Host is a compiled host section: the rule set names bound to it, in
// configuration order.
type Host struct {
	Name     string   `json:"name"`
	RuleSets []string `json:"rule_sets"`
}

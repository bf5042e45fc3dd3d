package engine

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Well-known event kind names.
const (
	WhenCreated     = "WhenCreated"
	WhenCaptured    = "WhenCaptured"
	WhenCrush       = "WhenCrush"
	WhenCrushed     = "WhenCrushed"
	WhenInfiltrate  = "WhenInfiltrate"
	WhenInfiltrated = "WhenInfiltrated"
	BeforeLoad      = "BeforeLoad"
	AfterLoad       = "AfterLoad"
	WhenUnload      = "WhenUnload"
	BeforeBoard     = "BeforeBoard"
	AfterBoard      = "AfterBoard"
	WhenUnboard     = "WhenUnboard"
)

var wellKnownNames = []string{
	WhenCreated, WhenCaptured, WhenCrush, WhenCrushed,
	WhenInfiltrate, WhenInfiltrated, BeforeLoad, AfterLoad,
	WhenUnload, BeforeBoard, AfterBoard, WhenUnboard,
}

// WellKnownNames returns the built-in event kind names in declaration order.
func WellKnownNames() []string { return slices.Clone(wellKnownNames) }

// EventKind is an interned event identifier. Compare kinds by pointer.
type EventKind struct {
	name string

	// handlers are the rule sets listening to this kind, in load order.
	handlers []*RuleSet
}

// Name returns the name the kind was first interned with.
func (k *EventKind) Name() string { return k.name }

// String implements fmt.Stringer.
func (k *EventKind) String() string { return k.name }

// Handlers returns the rule sets listening to this kind in load order.
func (k *EventKind) Handlers() []*RuleSet { return slices.Clone(k.handlers) }

func (k *EventKind) addHandler(rs *RuleSet) {
	if slices.Contains(k.handlers, rs) {
		return
	}
	k.handlers = append(k.handlers, rs)
}

// Registry owns every interned EventKind, RuleSet and Host for one engine
// instance. Tests build their own; nothing in this package is global.
//
// Names are matched case-insensitively. A Registry is not safe for
// concurrent mutation; the dispatcher only reads it.
type Registry struct {
	fold     cases.Caser
	kinds    map[string]*EventKind
	order    []*EventKind
	ruleSets map[string]*RuleSet
	rsOrder  []*RuleSet
	hosts    map[string]*Host
	hOrder   []*Host
}

// NewRegistry returns a registry with the well-known kinds interned.
func NewRegistry() *Registry {
	r := &Registry{
		fold:     cases.Fold(),
		kinds:    make(map[string]*EventKind),
		ruleSets: make(map[string]*RuleSet),
		hosts:    make(map[string]*Host),
	}
	for _, name := range wellKnownNames {
		r.Intern(name)
	}
	return r
}

func (r *Registry) key(name string) string {
	return r.fold.String(strings.TrimSpace(name))
}

// Intern returns the kind for name, creating it on first use.
func (r *Registry) Intern(name string) *EventKind {
	k := r.key(name)
	if kind, ok := r.kinds[k]; ok {
		return kind
	}
	kind := &EventKind{name: strings.TrimSpace(name)}
	r.kinds[k] = kind
	r.order = append(r.order, kind)
	return kind
}

// Lookup returns an existing kind without interning.
func (r *Registry) Lookup(name string) (*EventKind, bool) {
	kind, ok := r.kinds[r.key(name)]
	return kind, ok
}

// WellKnown returns the built-in kinds in declaration order.
func (r *Registry) WellKnown() []*EventKind {
	out := make([]*EventKind, 0, len(wellKnownNames))
	for _, name := range wellKnownNames {
		out = append(out, r.kinds[r.key(name)])
	}
	return out
}

// Kinds returns every interned kind in interning order.
func (r *Registry) Kinds() []*EventKind { return slices.Clone(r.order) }

// RuleSet returns the rule set named name, allocating an unloaded one on
// first use. Allocation and loading are separate so rule sets can reference
// each other before all of them are loaded.
func (r *Registry) RuleSet(name string) *RuleSet {
	k := r.key(name)
	if rs, ok := r.ruleSets[k]; ok {
		return rs
	}
	rs := &RuleSet{name: strings.TrimSpace(name)}
	r.ruleSets[k] = rs
	r.rsOrder = append(r.rsOrder, rs)
	return rs
}

// FindRuleSet returns an existing rule set.
func (r *Registry) FindRuleSet(name string) (*RuleSet, bool) {
	rs, ok := r.ruleSets[r.key(name)]
	return rs, ok
}

// RuleSets returns every allocated rule set in allocation order.
func (r *Registry) RuleSets() []*RuleSet { return slices.Clone(r.rsOrder) }

// Host returns the host named name, allocating it on first use.
func (r *Registry) Host(name string) *Host {
	k := r.key(name)
	if h, ok := r.hosts[k]; ok {
		return h
	}
	h := &Host{name: strings.TrimSpace(name), byKind: make(map[*EventKind][]*RuleSet)}
	r.hosts[k] = h
	r.hOrder = append(r.hOrder, h)
	return h
}

// FindHost returns an existing host.
func (r *Registry) FindHost(name string) (*Host, bool) {
	h, ok := r.hosts[r.key(name)]
	return h, ok
}

// Hosts returns every host in allocation order.
func (r *Registry) Hosts() []*Host { return slices.Clone(r.hOrder) }

// Close drops every kind, rule set and host, then re-interns the
// well-known kinds so the registry is usable afterwards. Kinds obtained
// before Close are no longer dispatched.
func (r *Registry) Close() {
	for _, kind := range r.order {
		kind.handlers = nil
	}
	r.kinds = make(map[string]*EventKind)
	r.order = nil
	r.ruleSets = make(map[string]*RuleSet)
	r.rsOrder = nil
	r.hosts = make(map[string]*Host)
	r.hOrder = nil
	for _, name := range wellKnownNames {
		r.Intern(name)
	}
}

// Host is a named object type carrying its own rule set bindings, such as
// a TechnoType listing the EventHandlers it reacts with.
type Host struct {
	name     string
	ruleSets []*RuleSet
	byKind   map[*EventKind][]*RuleSet
}

// Name returns the host name.
func (h *Host) Name() string { return h.name }

// RuleSets returns the bound rule sets in configuration order.
func (h *Host) RuleSets() []*RuleSet { return slices.Clone(h.ruleSets) }

// Bind attaches a loaded rule set to the host and indexes it under every
// kind it listens to. Binding the same rule set twice is a no-op.
func (h *Host) Bind(rs *RuleSet) {
	if slices.Contains(h.ruleSets, rs) {
		return
	}
	h.ruleSets = append(h.ruleSets, rs)
	for _, kind := range rs.kinds {
		h.byKind[kind] = append(h.byKind[kind], rs)
	}
}

// For returns the host's rule sets listening to kind, in binding order.
func (h *Host) For(kind *EventKind) []*RuleSet { return slices.Clone(h.byKind[kind]) }

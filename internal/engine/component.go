package engine

import (
	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

// Component is one loaded rule fragment: a target slot, optional positive
// and negative filters, and an optional effect. It is immutable after
// NewComponent.
type Component struct {
	index     int
	target    ir.Target
	filter    *ir.Filter
	negFilter *ir.Filter
	effect    Effect
	hasEffect bool
}

// NewComponent builds a component from its compiled form. It reports false
// for a component with nothing declared, which must not be stored.
//
// Filters are deep-copied and finalized here so the Has* flags are computed
// once per load.
func NewComponent(spec ir.Component, index int, effect Effect) (*Component, bool) {
	c := &Component{index: index, target: spec.Target, effect: effect}
	if spec.Filter != nil {
		c.filter = spec.Filter.Clone()
		c.filter.Finalize()
	}
	if spec.NegFilter != nil {
		c.negFilter = spec.NegFilter.Clone()
		c.negFilter.Finalize()
	}
	c.hasEffect = effect != nil
	if c.filter == nil && c.negFilter == nil && !c.hasEffect {
		return nil, false
	}
	return c, true
}

// Index is the component's position in its rule set's load order.
func (c *Component) Index() int { return c.index }

// Target is the slot and relation the component examines.
func (c *Component) Target() ir.Target { return c.target }

// HasEffect reports whether the component acts when its rule set executes.
func (c *Component) HasEffect() bool { return c.hasEffect }

// CheckFilters resolves the true target and applies both filters. A
// declared filter needs a present true target; absent filters pass.
func (c *Component) CheckFilters(w world.World, house, raw world.ID) bool {
	if c.filter == nil && c.negFilter == nil {
		return true
	}
	target, ok := ResolveTrueTarget(w, raw, c.target.Extended)
	if !ok {
		return false
	}
	if c.filter != nil && !CheckFilter(w, c.filter, house, target, false) {
		return false
	}
	if c.negFilter != nil && !CheckFilter(w, c.negFilter, house, target, true) {
		return false
	}
	return true
}

// ExecuteEffects runs the effect against the resolved true target. It
// reports whether the effect ran; an absent target or missing effect is a
// silent no-op.
func (c *Component) ExecuteEffects(x *Execution, raw world.ID) (bool, error) {
	if !c.hasEffect {
		return false, nil
	}
	target, ok := ResolveTrueTarget(x.World, raw, c.target.Extended)
	if !ok {
		return false, nil
	}
	x.Target = target
	x.Via = c.target
	x.Component = c.index
	return true, c.effect.Execute(x)
}

package engine

import (
	"context"

	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

// Effect is the action half of a component. Execute is only called for a
// present true target, after every check of the rule set passed.
type Effect interface {
	Execute(x *Execution) error
}

// EffectFunc adapts a function to Effect.
type EffectFunc func(x *Execution) error

// Execute implements Effect.
func (f EffectFunc) Execute(x *Execution) error { return f(x) }

// EffectFactory builds runtime effects from compiled effect groups.
type EffectFactory interface {
	Build(spec *ir.Effect) (Effect, error)
}

// EffectFactoryFunc adapts a function to EffectFactory.
type EffectFactoryFunc func(spec *ir.Effect) (Effect, error)

// Build implements EffectFactory.
func (f EffectFactoryFunc) Build(spec *ir.Effect) (Effect, error) { return f(spec) }

// Execution is everything an effect may look at or act on for one
// invocation. It is only valid for the duration of Execute.
type Execution struct {
	Ctx          context.Context
	World        world.MutableWorld
	Participants Participants
	// Target is the resolved true target the effect acts on.
	Target    world.ID
	Via       ir.Target
	Kind      *EventKind
	RuleSet   *RuleSet
	Component int
	ChainID   string

	dispatcher *Dispatcher
	chain      *chain
	parent     int64
}

// Fire dispatches a chained event inside the current chain. Chained firings
// share the chain's cycle detector and step quota. An unknown kind name
// fires nothing.
func (x *Execution) Fire(kindName string, p Participants) []FiringResult {
	if x.dispatcher == nil {
		return nil
	}
	kind, ok := x.dispatcher.reg.Lookup(kindName)
	if !ok {
		return nil
	}
	start := len(x.chain.results)
	x.dispatcher.dispatch(x.Ctx, x.chain, kind, "", kind.handlers, p, x.parent)
	return append([]FiringResult(nil), x.chain.results[start:]...)
}

package engine

import (
	"fmt"

	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

// Phase is the state of one rule set firing.
//
//	Idle ──Check──▶ Checking ──all pass──▶ Executing ──Execute──▶ Done
//	                    │
//	                    └──any fails──▶ Aborted
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseChecking
	PhaseExecuting
	PhaseDone
	PhaseAborted
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseChecking:
		return "checking"
	case PhaseExecuting:
		return "executing"
	case PhaseDone:
		return "done"
	case PhaseAborted:
		return "aborted"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Firing drives one rule set through the two-phase protocol. Effects can
// only be reached through Execute, which refuses to run unless Check left
// the firing in PhaseExecuting.
type Firing struct {
	rs           *RuleSet
	w            world.World
	participants Participants
	house        world.ID
	phase        Phase
	abortedAt    *Component
}

// Begin starts a firing of rs. The house every faction check is made on
// behalf of is the owner of the Me participant, if any.
func (rs *RuleSet) Begin(w world.World, p Participants) *Firing {
	house := world.NoID
	if me, ok := p.Get(ir.ScopeMe); ok {
		if owner, ok := world.OwnerOf(w, me); ok {
			house = owner
		}
	}
	return &Firing{rs: rs, w: w, participants: p, house: house}
}

// Phase returns the current state.
func (f *Firing) Phase() Phase { return f.phase }

// House returns the faction filters are evaluated on behalf of.
func (f *Firing) House() world.ID { return f.house }

// AbortedAt returns the component whose check failed, if any.
func (f *Firing) AbortedAt() (*Component, bool) { return f.abortedAt, f.abortedAt != nil }

// Check runs the checking phase. Components whose scope has no participant
// are skipped. Check may only be called once.
func (f *Firing) Check() bool {
	if f.phase != PhaseIdle {
		return f.phase == PhaseExecuting || f.phase == PhaseDone
	}
	f.phase = PhaseChecking
	for _, scope := range f.participants.Scopes() {
		raw := f.participants[scope]
		for _, c := range f.rs.byScope[scope] {
			if !c.CheckFilters(f.w, f.house, raw) {
				f.phase = PhaseAborted
				f.abortedAt = c
				return false
			}
		}
	}
	f.phase = PhaseExecuting
	return true
}

// Execute runs the executing phase: every component with an effect, scope
// order first, then load order. run is called for each component with its
// raw participant; an error from run is collected and execution continues.
func (f *Firing) Execute(run func(c *Component, raw world.ID) error) error {
	if f.phase != PhaseExecuting {
		return fmt.Errorf("execute rule set %q: firing is %s, not %s", f.rs.name, f.phase, PhaseExecuting)
	}
	var first error
	for _, scope := range f.participants.Scopes() {
		raw := f.participants[scope]
		for _, c := range f.rs.byScope[scope] {
			if !c.hasEffect {
				continue
			}
			if err := run(c, raw); err != nil && first == nil {
				first = err
			}
		}
	}
	f.phase = PhaseDone
	return first
}

package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/evrule/internal/store"
	"github.com/roach88/evrule/internal/world"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", i+1, ev.Kind, ev.RuleSet, ev.Outcome)
		}
	}
	return buf.String()
}

func matchesOutcome(ev TraceEvent, outcome string) bool {
	return outcome == "" || ev.Outcome == outcome
}

// assertFired checks that the rule set fired at least once.
func assertFired(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.RuleSet == a.RuleSet && matchesOutcome(ev, a.Outcome) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertFired,
		Expected: fmt.Sprintf("rule set %s fired %s", a.RuleSet, outcomeText(a.Outcome)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertFireOrder checks that rule sets first fired in the given order.
// Other firings may come in between.
func assertFireOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if _, seen := positions[ev.RuleSet]; !seen {
			positions[ev.RuleSet] = i + 1
		}
	}

	for _, name := range a.RuleSets {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertFireOrder,
				Expected: fmt.Sprintf("all rule sets fired: %v", a.RuleSets),
				Actual:   fmt.Sprintf("missing rule set: %s", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.RuleSets); i++ {
		prev, curr := a.RuleSets[i-1], a.RuleSets[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertFireOrder,
				Expected: fmt.Sprintf("rule sets in order: %v", a.RuleSets),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertFireCount checks the exact number of firings of a rule set.
func assertFireCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.RuleSet == a.RuleSet && matchesOutcome(ev, a.Outcome) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertFireCount,
			Expected: fmt.Sprintf("%d firings of %s %s", a.Count, a.RuleSet, outcomeText(a.Outcome)),
			Actual:   fmt.Sprintf("%d firings", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertActorState checks the final state of one actor. Only the fields in
// Expect are compared:
//
//   - health, max_health, owner: integers
//   - rank, type: strings
//   - effects: map of effect name to remaining duration
//   - lacks_effects: list of effect names that must be absent
func assertActorState(w *world.Arena, a Assertion) error {
	u, ok := w.Unit(world.ID(a.Actor))
	if !ok {
		return &AssertionError{
			Type:     AssertActorState,
			Expected: fmt.Sprintf("actor %d", a.Actor),
			Actual:   "actor not found",
		}
	}

	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := a.Expect[key]
		var got any
		switch key {
		case "health":
			got = u.HP
		case "max_health":
			got = u.MaxHP
		case "owner":
			got = int64(u.OwnerID)
		case "rank":
			got = u.Veterancy.String()
		case "type":
			got = u.Type
		case "effects":
			if err := checkEffects(a.Actor, u.Effects, want); err != nil {
				return err
			}
			continue
		case "lacks_effects":
			if err := checkLacksEffects(a.Actor, u.Effects, want); err != nil {
				return err
			}
			continue
		default:
			return fmt.Errorf("actor_state: unknown field %q", key)
		}
		if !stateValuesEqual(want, got) {
			return &AssertionError{
				Type:     AssertActorState,
				Expected: fmt.Sprintf("actor %d %s = %v", a.Actor, key, want),
				Actual:   fmt.Sprintf("actor %d %s = %v", a.Actor, key, got),
			}
		}
	}
	return nil
}

func checkEffects(actor int64, have map[string]int64, want any) error {
	m, ok := want.(map[string]any)
	if !ok {
		return fmt.Errorf("actor_state: effects must be a map, got %T", want)
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d, present := have[name]
		if !present || !stateValuesEqual(m[name], d) {
			return &AssertionError{
				Type:     AssertActorState,
				Expected: fmt.Sprintf("actor %d effect %s duration %v", actor, name, m[name]),
				Actual:   fmt.Sprintf("effects %v", have),
			}
		}
	}
	return nil
}

func checkLacksEffects(actor int64, have map[string]int64, want any) error {
	list, ok := want.([]any)
	if !ok {
		return fmt.Errorf("actor_state: lacks_effects must be a list, got %T", want)
	}
	for _, v := range list {
		name := fmt.Sprint(v)
		if _, present := have[name]; present {
			return &AssertionError{
				Type:     AssertActorState,
				Expected: fmt.Sprintf("actor %d without effect %s", actor, name),
				Actual:   fmt.Sprintf("effects %v", have),
			}
		}
	}
	return nil
}

// assertLogCount counts firing log rows matching an AIP-160 filter.
func assertLogCount(ctx context.Context, st *store.Store, a Assertion) error {
	firings, err := st.ListFirings(ctx, a.Filter)
	if err != nil {
		return &AssertionError{
			Type:     AssertLogCount,
			Expected: fmt.Sprintf("query log with %q", a.Filter),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if len(firings) != a.Count {
		return &AssertionError{
			Type:     AssertLogCount,
			Expected: fmt.Sprintf("%d log rows matching %q", a.Count, a.Filter),
			Actual:   fmt.Sprintf("%d rows", len(firings)),
		}
	}
	return nil
}

func outcomeText(outcome string) string {
	if outcome == "" {
		return "(any outcome)"
	}
	return "(" + outcome + ")"
}

// stateValuesEqual compares a YAML-decoded expected value with an actual
// world value. YAML integers decode as int.
func stateValuesEqual(expected, actual any) bool {
	switch exp := expected.(type) {
	case int:
		n, ok := asInt64(actual)
		return ok && n == int64(exp)
	case int64:
		n, ok := asInt64(actual)
		return ok && n == exp
	case string:
		s, ok := actual.(string)
		return ok && s == exp
	case bool:
		b, ok := actual.(bool)
		return ok && b == exp
	default:
		return false
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func summarize(events []TraceEvent) string {
	parts := make([]string, len(events))
	for i, ev := range events {
		parts[i] = ev.RuleSet + "/" + ev.Outcome
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// AssertionContext provides the state assertions inspect.
type AssertionContext struct {
	Ctx   context.Context
	Store *store.Store
	World *world.Arena
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFired:
			err = assertFired(result.Trace, assertion)
		case AssertFireOrder:
			err = assertFireOrder(result.Trace, assertion)
		case AssertFireCount:
			err = assertFireCount(result.Trace, assertion)
		case AssertActorState:
			if actx == nil || actx.World == nil {
				err = fmt.Errorf("assertion[%d]: actor_state requires a world", i)
			} else {
				err = assertActorState(actx.World, assertion)
			}
		case AssertLogCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: log_count requires a store", i)
			} else {
				err = assertLogCount(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

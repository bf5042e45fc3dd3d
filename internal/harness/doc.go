// Package harness runs YAML event scenarios against the real dispatcher.
//
// A scenario names a CUE rules directory and a world fixture, fires a list
// of events and asserts on the resulting firings, the final world and the
// firing log.
//
// # Scenario Format
//
//	name: crush_weakens
//	description: "Crushing an infantry unit weakens the crusher"
//	rules: rules/crush
//	world: worlds/duel.yaml
//	steps:
//	  - fire: WhenCrush
//	    me: 1
//	    they: 2
//	    expect:
//	      - ruleset: Weaken
//	        outcome: executed
//	assertions:
//	  - type: fired
//	    ruleset: Weaken
//	  - type: actor_state
//	    actor: 1
//	    expect: { health: 75, effects: { Crushing: -1 } }
//	  - type: log_count
//	    filter: 'outcome = "aborted"'
//	    count: 0
//
// Paths are relative to the scenario file.
//
// # Assertion Types
//
//   - fired: a rule set fired (optionally with the given outcome)
//   - fire_order: rule sets first fired in the given order
//   - fire_count: a rule set fired exactly N times
//   - actor_state: subset match on an actor's final state
//   - log_count: the firing log holds N rows matching an AIP-160 filter
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory store, chain IDs scenario-1, scenario-2,
// ... (one per step), a logical clock starting at 1 and firing IDs
// firing-1, firing-2, ... so traces are byte-identical across runs and can
// be compared against golden files under testdata/golden.
package harness

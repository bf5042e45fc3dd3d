package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/evrule/internal/engine"
)

// Scenario defines an event scenario: a rules package, a world and a list
// of events to fire against it.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules is the CUE package directory holding the rule sets and hosts.
	Rules string `yaml:"rules"`

	// World is the YAML world fixture.
	World string `yaml:"world"`

	// MaxChainSteps overrides the chain quota. Zero keeps the default.
	MaxChainSteps int `yaml:"max_chain_steps,omitempty"`

	// Scripts disables Lua script effects when set to false.
	Scripts *bool `yaml:"scripts,omitempty"`

	// Steps are fired in order. Each step is one root chain.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace, the final world and the log.
	Assertions []Assertion `yaml:"assertions"`
}

// Step fires one event.
type Step struct {
	// Fire is the event kind name.
	Fire string `yaml:"fire"`

	// Host restricts dispatch to the rule sets bound to this host.
	Host string `yaml:"host,omitempty"`

	// Me and They are actor IDs. Zero leaves the slot empty.
	Me   int64 `yaml:"me,omitempty"`
	They int64 `yaml:"they,omitempty"`

	// Expect lists the firings this step must produce, in order. When nil
	// the step is not checked.
	Expect []ExpectFiring `yaml:"expect,omitempty"`
}

// ExpectFiring is one expected firing of a step.
type ExpectFiring struct {
	RuleSet   string `yaml:"ruleset"`
	Outcome   string `yaml:"outcome"`
	AbortedAt string `yaml:"aborted_at,omitempty"`
}

// Assertion validates the final trace, world or log.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// RuleSet is used by fired and fire_count.
	RuleSet string `yaml:"ruleset,omitempty"`

	// Outcome optionally narrows fired and fire_count.
	Outcome string `yaml:"outcome,omitempty"`

	// RuleSets is the expected order (fire_order).
	RuleSets []string `yaml:"rulesets,omitempty"`

	// Count is the expected number of matches (fire_count, log_count).
	Count int `yaml:"count,omitempty"`

	// Actor is the actor ID (actor_state).
	Actor int64 `yaml:"actor,omitempty"`

	// Expect holds expected actor fields (actor_state). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Filter is an AIP-160 filter over the firing log (log_count).
	Filter string `yaml:"filter,omitempty"`
}

// Assertion type constants.
const (
	AssertFired      = "fired"
	AssertFireOrder  = "fire_order"
	AssertFireCount  = "fire_count"
	AssertActorState = "actor_state"
	AssertLogCount   = "log_count"
)

var outcomes = map[string]bool{
	string(engine.OutcomeExecuted): true,
	string(engine.OutcomeAborted):  true,
	string(engine.OutcomeRefused):  true,
}

// LoadScenario reads and parses a scenario YAML file. Rules and world paths
// are resolved relative to the file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Rules = resolve(base, scenario.Rules)
	scenario.World = resolve(base, scenario.World)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Rules == "" {
		return fmt.Errorf("rules is required")
	}
	if s.World == "" {
		return fmt.Errorf("world is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.MaxChainSteps < 0 {
		return fmt.Errorf("max_chain_steps must be non-negative")
	}

	if _, err := os.Stat(s.Rules); err != nil {
		return fmt.Errorf("rules directory not found: %s", s.Rules)
	}
	if _, err := os.Stat(s.World); err != nil {
		return fmt.Errorf("world fixture not found: %s", s.World)
	}

	for i, step := range s.Steps {
		if step.Fire == "" {
			return fmt.Errorf("steps[%d]: fire is required", i)
		}
		if step.Me < 0 || step.They < 0 {
			return fmt.Errorf("steps[%d]: actor IDs must be non-negative", i)
		}
		for j, e := range step.Expect {
			if e.RuleSet == "" {
				return fmt.Errorf("steps[%d].expect[%d]: ruleset is required", i, j)
			}
			if !outcomes[e.Outcome] {
				return fmt.Errorf("steps[%d].expect[%d]: unknown outcome %q", i, j, e.Outcome)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Outcome != "" && !outcomes[a.Outcome] {
		return fmt.Errorf("assertions[%d]: unknown outcome %q", index, a.Outcome)
	}

	switch a.Type {
	case AssertFired:
		if a.RuleSet == "" {
			return fmt.Errorf("assertions[%d]: ruleset is required for fired", index)
		}
	case AssertFireOrder:
		if len(a.RuleSets) == 0 {
			return fmt.Errorf("assertions[%d]: rulesets list is required for fire_order", index)
		}
	case AssertFireCount:
		if a.RuleSet == "" {
			return fmt.Errorf("assertions[%d]: ruleset is required for fire_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for fire_count", index)
		}
	case AssertActorState:
		if a.Actor <= 0 {
			return fmt.Errorf("assertions[%d]: actor is required for actor_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for actor_state", index)
		}
	case AssertLogCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for log_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

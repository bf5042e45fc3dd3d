package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/evrule/internal/engine"
	"github.com/roach88/evrule/internal/ir"
	"github.com/roach88/evrule/internal/world"
)

// createTestStore creates a new store in a temp dir with predictable firing
// IDs: firing-1, firing-2, ...
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	n := 0
	s, err := Open(path, WithIDs(func() string {
		n++
		return fmt.Sprintf("firing-%d", n)
	}))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestFiring creates an executed firing with Me=1, They=2.
func createTestFiring(chainID, ruleSet string, seq int64) engine.FiringResult {
	return engine.FiringResult{
		ChainID:      chainID,
		Seq:          seq,
		Kind:         "WhenCrush",
		RuleSet:      ruleSet,
		RuleSetHash:  "test-hash",
		Participants: engine.Pair(world.ID(1), world.ID(2)),
		Outcome:      engine.OutcomeExecuted,
	}
}

func meEffect(component int, target world.ID, errText string) engine.EffectRecord {
	return engine.EffectRecord{
		Component: component,
		Via:       ir.Target{Scope: ir.ScopeMe},
		Target:    target,
		Error:     errText,
	}
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CycleDetector Unit Tests
// =============================================================================

func TestCycleDetector_NewCycleDetector(t *testing.T) {
	cd := NewCycleDetector()
	require.NotNil(t, cd)
	assert.Equal(t, 0, cd.HistorySize())
}

func TestCycleDetector_WouldCycle(t *testing.T) {
	cd := NewCycleDetector()

	assert.False(t, cd.WouldCycle("chain-1", "Retaliate", "hash-abc"), "first occurrence")

	cd.Record("chain-1", "Retaliate", "hash-abc")
	assert.True(t, cd.WouldCycle("chain-1", "Retaliate", "hash-abc"), "same pair after record")

	assert.False(t, cd.WouldCycle("chain-2", "Retaliate", "hash-abc"), "different chain")
	assert.False(t, cd.WouldCycle("chain-1", "Other", "hash-abc"), "different rule set")
	assert.False(t, cd.WouldCycle("chain-1", "Retaliate", "hash-def"), "different participants")
}

func TestCycleDetector_Clear(t *testing.T) {
	cd := NewCycleDetector()
	cd.Record("chain-1", "A", "h1")
	cd.Record("chain-1", "B", "h1")
	cd.Record("chain-2", "A", "h1")

	assert.Equal(t, 2, cd.HistorySize())
	assert.Equal(t, 2, cd.ChainHistorySize("chain-1"))
	assert.Equal(t, 1, cd.ChainHistorySize("chain-2"))

	cd.Clear("chain-1")

	assert.False(t, cd.WouldCycle("chain-1", "A", "h1"))
	assert.True(t, cd.WouldCycle("chain-2", "A", "h1"), "other chains untouched")
	assert.Equal(t, 1, cd.HistorySize())
	assert.Equal(t, 0, cd.ChainHistorySize("chain-1"))
}

// =============================================================================
// RuntimeError Tests
// =============================================================================

func TestNewCycleError(t *testing.T) {
	err := NewCycleError("chain-123", "Retaliate", "hash-abc")

	assert.Equal(t, ErrCodeChainCycle, err.Code)
	assert.Equal(t, "chain-123", err.ChainID)
	assert.Equal(t, "Retaliate", err.RuleSet)
	assert.Equal(t, "hash-abc", err.Details["participants_hash"])
	assert.Contains(t, err.Error(), "CHAIN_CYCLE")
	assert.Contains(t, err.Error(), "chain-123")
	assert.Contains(t, err.Error(), "Retaliate")
}

func TestIsCycleError(t *testing.T) {
	cycleErr := NewCycleError("chain-1", "A", "hash-1")
	quotaErr := NewQuotaError("chain-1", "A", 65, 64)

	assert.True(t, IsCycleError(cycleErr))
	assert.False(t, IsCycleError(quotaErr))
	assert.False(t, IsCycleError(nil))
	assert.False(t, IsCycleError(assert.AnError))
}

func TestIsQuotaError(t *testing.T) {
	cycleErr := NewCycleError("chain-1", "A", "hash-1")
	quotaErr := NewQuotaError("chain-1", "A", 65, 64)

	assert.False(t, IsQuotaError(cycleErr))
	assert.True(t, IsQuotaError(quotaErr))
	assert.False(t, IsQuotaError(nil))
	assert.False(t, IsQuotaError(assert.AnError))
	assert.Equal(t, "64", quotaErr.Details["max_steps"])
}

func TestRuntimeError_ErrorFormats(t *testing.T) {
	assert.Equal(t, "UNKNOWN_HOST: no host", (&RuntimeError{Code: ErrCodeUnknownHost, Message: "no host"}).Error())
	assert.Equal(t, "EFFECT_FAILED: boom (ruleset=R)",
		(&RuntimeError{Code: ErrCodeEffectFailed, Message: "boom", RuleSet: "R"}).Error())

	err := NewEffectError("c1", "R", 2, assert.AnError)
	assert.Equal(t, "2", err.Details["component"])
	assert.Contains(t, err.Error(), "chain=c1")
}

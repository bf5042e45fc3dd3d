package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a refusal or failure detected while dispatching.
//
// Runtime errors never abort the caller's Fire: they are logged, recorded on
// the FiringResult and counted. They include:
//   - Chain cycle: the same (rule set, participants) would fire twice in one chain
//   - Chain quota: one top-level Fire produced too many chained firings
//   - Effect failure: an effect returned an error while executing
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// ChainID is the firing ID of the top-level Fire the error belongs to.
	ChainID string

	// RuleSet names the affected rule set.
	RuleSet string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeChainCycle indicates the same (rule set, participants) would fire
	// twice within one chain.
	ErrCodeChainCycle RuntimeErrorCode = "CHAIN_CYCLE"

	// ErrCodeChainQuota indicates a chain exceeded the maximum number of firings.
	ErrCodeChainQuota RuntimeErrorCode = "CHAIN_QUOTA"

	// ErrCodeEffectFailed indicates an effect returned an error.
	ErrCodeEffectFailed RuntimeErrorCode = "EFFECT_FAILED"

	// ErrCodeUnknownHost indicates FireFor named a host with no bindings.
	ErrCodeUnknownHost RuntimeErrorCode = "UNKNOWN_HOST"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.ChainID != "" && e.RuleSet != "" {
		return fmt.Sprintf("%s: %s (chain=%s, ruleset=%s)", e.Code, e.Message, e.ChainID, e.RuleSet)
	}
	if e.RuleSet != "" {
		return fmt.Sprintf("%s: %s (ruleset=%s)", e.Code, e.Message, e.RuleSet)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCycleError returns true if the error is a chain cycle refusal.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeChainCycle
	}
	return false
}

// IsQuotaError returns true if the error is a chain quota refusal.
// Matches both RuntimeError with ErrCodeChainQuota and StepsExceededError.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeChainQuota
	}
	var se *StepsExceededError
	return errors.As(err, &se)
}

// NewCycleError creates a RuntimeError for a chain cycle.
func NewCycleError(chainID, ruleSet, participantsHash string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeChainCycle,
		Message: "rule set would fire for the same participants twice in one chain",
		ChainID: chainID,
		RuleSet: ruleSet,
		Details: map[string]string{"participants_hash": participantsHash},
	}
}

// NewQuotaError creates a RuntimeError for an exceeded chain quota.
func NewQuotaError(chainID, ruleSet string, steps, maxSteps int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeChainQuota,
		Message: fmt.Sprintf("chain exceeded max firings (%d > %d)", steps, maxSteps),
		ChainID: chainID,
		RuleSet: ruleSet,
		Details: map[string]string{
			"steps":     fmt.Sprintf("%d", steps),
			"max_steps": fmt.Sprintf("%d", maxSteps),
		},
	}
}

// NewEffectError wraps an effect failure.
func NewEffectError(chainID, ruleSet string, component int, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeEffectFailed,
		Message: err.Error(),
		ChainID: chainID,
		RuleSet: ruleSet,
		Details: map[string]string{"component": fmt.Sprintf("%d", component)},
	}
}

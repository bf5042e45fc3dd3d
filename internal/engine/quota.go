package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer bounds the number of firings in one chain. Cycle detection
// only catches repeats; the quota also ends long chains of distinct
// firings, so every root Fire terminates.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer returns a quota allowing maxSteps firings.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check counts one firing. The firing that takes the count past the limit
// gets a StepsExceededError, and so does every later one.
func (q *QuotaEnforcer) Check(chainID string) error {
	q.current++
	if q.current <= q.maxSteps {
		return nil
	}
	return &StepsExceededError{ChainID: chainID, Steps: q.current, Limit: q.maxSteps}
}

func (q *QuotaEnforcer) Current() int  { return q.current }
func (q *QuotaEnforcer) MaxSteps() int { return q.maxSteps }

// StepsExceededError halts the rest of a chain. A cycle refusal, by
// contrast, skips a single firing.
type StepsExceededError struct {
	ChainID string
	Steps   int
	Limit   int
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("chain %s: firing %d is over the quota of %d", e.ChainID, e.Steps, e.Limit)
}

// IsStepsExceededError reports whether err wraps a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}

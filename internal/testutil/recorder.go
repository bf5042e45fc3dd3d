package testutil

import (
	"context"
	"sync"

	"github.com/roach88/evrule/internal/engine"
)

// MemoryRecorder keeps recorded firings in memory. It implements both
// engine.Recorder and engine.Observer.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type MemoryRecorder struct {
	mu       sync.Mutex
	recorded []engine.FiringResult
	observed []engine.FiringResult
	// Err, when set, is returned from every RecordFiring call.
	Err error
}

// RecordFiring implements engine.Recorder.
func (m *MemoryRecorder) RecordFiring(_ context.Context, r engine.FiringResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, r)
	return m.Err
}

// ObserveFiring implements engine.Observer.
func (m *MemoryRecorder) ObserveFiring(r engine.FiringResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed = append(m.observed, r)
}

// Recorded returns a copy of the recorded firings in call order.
func (m *MemoryRecorder) Recorded() []engine.FiringResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.FiringResult(nil), m.recorded...)
}

// Observed returns a copy of the observed firings in call order.
func (m *MemoryRecorder) Observed() []engine.FiringResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.FiringResult(nil), m.observed...)
}

// RuleSets returns the rule set names of the recorded firings.
func (m *MemoryRecorder) RuleSets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.recorded))
	for i, r := range m.recorded {
		out[i] = r.RuleSet
	}
	return out
}

// Reset drops everything recorded so far.
func (m *MemoryRecorder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = nil
	m.observed = nil
}

// Package testutil holds deterministic test doubles for the dispatcher.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialChainIDs generates "<prefix>-1", "<prefix>-2", ... without limit.
//
// Unlike engine.FixedGenerator, which panics once its tokens run out, this
// generator never runs dry, so scenarios need not count their root fires.
//
// Thread-safety: Generate is safe for concurrent use.
type SequentialChainIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialChainIDs creates a generator. An empty prefix uses "chain".
func NewSequentialChainIDs(prefix string) *SequentialChainIDs {
	if prefix == "" {
		prefix = "chain"
	}
	return &SequentialChainIDs{prefix: prefix}
}

// Generate implements engine.ChainIDGenerator.
func (g *SequentialChainIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *SequentialChainIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

package engine

// CycleDetector tracks rule set firings per chain so an effect that fires
// an event cannot loop back into the same rule set for the same actors.
//
// Example cycle:
//
//	WhenCaptured fires Retaliate(Me=7, They=3) → Fire.Event WhenCaptured
//	→ Retaliate(Me=3, They=7) → Fire.Event WhenCaptured
//	→ Retaliate(Me=7, They=3) again ← CYCLE DETECTED
//
// The key is (rule set name, participants hash), so the same rule set firing
// for different actors within one chain is not a cycle. History lives only
// for the duration of the root Fire and is cleared afterwards.
//
// The dispatcher is single-threaded, so the detector does no locking.
type CycleDetector struct {
	history map[string]map[string]bool // map[chain_id]map[cycle_key]bool
}

// NewCycleDetector creates a new cycle detector.
func NewCycleDetector() *CycleDetector {
	return &CycleDetector{
		history: make(map[string]map[string]bool),
	}
}

// WouldCycle reports whether (ruleSet, participantsHash) already fired in
// this chain.
func (c *CycleDetector) WouldCycle(chainID, ruleSet, participantsHash string) bool {
	if c.history[chainID] == nil {
		return false
	}
	return c.history[chainID][ruleSet+":"+participantsHash]
}

// Record marks (ruleSet, participantsHash) as fired in this chain. Call it
// right after WouldCycle returns false, before the firing runs, so a
// re-entrant Fire from its own effects is caught.
func (c *CycleDetector) Record(chainID, ruleSet, participantsHash string) {
	if c.history[chainID] == nil {
		c.history[chainID] = make(map[string]bool)
	}
	c.history[chainID][ruleSet+":"+participantsHash] = true
}

// Clear removes all history for a chain.
func (c *CycleDetector) Clear(chainID string) {
	delete(c.history, chainID)
}

// HistorySize returns the number of chains with tracked history.
func (c *CycleDetector) HistorySize() int {
	return len(c.history)
}

// ChainHistorySize returns the number of (rule set, participants) pairs
// tracked for a chain.
func (c *CycleDetector) ChainHistorySize(chainID string) int {
	return len(c.history[chainID])
}

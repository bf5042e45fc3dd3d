package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evrule/internal/ir"
)

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current(), "Current must not advance the clock")
}

func TestClock_ConcurrentNextIsUnique(t *testing.T) {
	c := NewClock()
	const workers, calls = 16, 200

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				seq := c.Next()
				mu.Lock()
				seen[seq] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), c.Current())
}

// A dispatcher appending to an existing log continues its seq numbering.
func TestClock_DispatcherContinuesFromLog(t *testing.T) {
	reg := NewRegistry()
	a, meID, theyID := duelArena(t)
	loadRuleSet(t, reg, nil, ir.RuleSet{
		Name: "Mark", EventTypes: []string{WhenCrush},
		Components: []ir.Component{effectOnly(ir.ScopeMe)},
	})

	clock := NewClockAt(41)
	d := newTestDispatcher(reg, a, WithClock(clock))

	first := d.Fire(context.Background(), reg.Intern(WhenCrush), Pair(meID, theyID))
	second := d.Fire(context.Background(), reg.Intern(WhenCrush), Pair(meID, theyID))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, int64(42), first[0].Seq)
	assert.Equal(t, int64(43), second[0].Seq)
	assert.NotEqual(t, first[0].ChainID, second[0].ChainID)
	assert.Equal(t, int64(43), clock.Current())
}

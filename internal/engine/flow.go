package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ChainIDGenerator produces the ID shared by a root firing and every firing
// chained from it.
type ChainIDGenerator interface {
	Generate() string
}

// ChainIDFunc adapts a function to ChainIDGenerator.
type ChainIDFunc func() string

// Generate calls f.
func (f ChainIDFunc) Generate() string { return f() }

// UUIDv7Generator generates time-sortable UUIDv7 chain IDs. It is the
// dispatcher default, so chain IDs in a log sort by creation time.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out a fixed list of chain IDs and panics once it runs
// out, so a test firing more root events than it planned fails loudly.
type FixedGenerator struct {
	mu   sync.Mutex
	next []string
	used int
}

// NewFixedGenerator returns a generator yielding ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{next: ids}
}

func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.next) == 0 {
		panic(fmt.Sprintf("FixedGenerator: no chain ID left after %d", g.used))
	}
	id := g.next[0]
	g.next = g.next[1:]
	g.used++
	return id
}

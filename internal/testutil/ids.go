package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates request ids "<prefix>-0001", "<prefix>-0002", ...
//
// The same scenario run with a fresh SequentialIDs produces byte-identical
// traces, which golden files depend on.
//
// Implements request.IDGenerator.
type SequentialIDs struct {
	prefix string

	mu sync.Mutex
	n  int
}

// NewSequentialIDs creates a generator. An empty prefix means "req".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "req"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the sequence so the next id ends in 0001.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

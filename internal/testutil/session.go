package testutil

import (
	"fmt"
	"sync"
)

// SequentialSessions returns "<prefix>-1", "<prefix>-2", ... so that
// recorded snapshots are byte-identical across runs.
//
// Thread-safety: SequentialSessions is safe for concurrent use via internal mutex.
type SequentialSessions struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialSessions creates a generator. If prefix is empty,
// "test-session" is used.
func NewSequentialSessions(prefix string) *SequentialSessions {
	if prefix == "" {
		prefix = "test-session"
	}
	return &SequentialSessions{prefix: prefix}
}

// Generate returns the next session id.
func (g *SequentialSessions) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

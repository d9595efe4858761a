package graph

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Id prefixes used for generated ids.
const (
	NodePrefix       = "node"
	ConnectionPrefix = "conn"
)

// IDGenerator creates ids for new nodes and connections. Generated ids that
// collide with existing ones are discarded and regenerated by the workflow;
// after repeated collisions the workflow switches to UUIDGenerator.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator produces "<prefix>-<uuid>" ids.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// SequentialGenerator produces "<prefix>-1", "<prefix>-2", ... with a counter per prefix.
type SequentialGenerator struct {
	mu   sync.Mutex
	next map[string]int
}

// NewSequentialGenerator returns a generator whose counters start at 1.
func NewSequentialGenerator() *SequentialGenerator {
	return &SequentialGenerator{next: make(map[string]int)}
}

// NewID implements IDGenerator.
func (g *SequentialGenerator) NewID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next == nil {
		g.next = make(map[string]int)
	}
	g.next[prefix]++
	return fmt.Sprintf("%s-%d", prefix, g.next[prefix])
}

// maxIDAttempts bounds how many taken ids a generator may return before the
// workflow falls back to UUIDGenerator.
const maxIDAttempts = 100

func (w *Workflow) newID(prefix string) string {
	for range maxIDAttempts {
		if id := w.ids.NewID(prefix); !w.idTaken(id) {
			return id
		}
	}
	w.logger.Warn("id generator keeps returning taken %q ids, falling back to uuid", prefix)
	for {
		if id := (UUIDGenerator{}).NewID(prefix); !w.idTaken(id) {
			return id
		}
	}
}

func (w *Workflow) idTaken(id string) bool {
	_, nodeTaken := w.nodeIndex[id]
	_, connTaken := w.connIndex[id]
	return nodeTaken || connTaken
}

package proposal

import (
	"sync"
	"time"
)

// Generator hands out strictly increasing ids for a single node.
//
// Ids are taken from the clock so that proposals from different nodes
// interleave roughly by start time, but a generator never repeats or goes
// backwards: if the clock stalls, steps back, or lags behind an id this node
// has already observed, the counter is bumped past the floor instead.
type Generator struct {
	node  string
	clock func() time.Time

	mu    sync.Mutex
	floor int64
}

// NewGenerator returns a generator for node. A nil clock uses time.Now.
func NewGenerator(node string, clock func() time.Time) *Generator {
	if clock == nil {
		clock = time.Now
	}
	return &Generator{node: node, clock: clock}
}

// Next returns an id strictly greater than every id previously returned by
// this generator and every id passed to Observe.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	counter := g.clock().UnixNano()
	if counter <= g.floor {
		counter = g.floor + 1
	}
	g.floor = counter
	return ID{Counter: counter, Node: g.node}
}

// Observe records an id seen on the wire so the next proposal outbids it.
func (g *Generator) Observe(id ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id.Counter > g.floor {
		g.floor = id.Counter
	}
}

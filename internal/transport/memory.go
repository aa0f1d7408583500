// =============================================================================
// IN-MEMORY NETWORK - Delayed Delivery Between In-Process Nodes
// =============================================================================
//
// All nodes live in one Go process. The Network owns the registry
// (node id → Handler) and the delay settings:
//
//   ┌─────────┐  Send(msg)   ┌──────────────┐  after delay   ┌─────────┐
//   │  Node A │ ───────────▶ │   Network    │ ─────────────▶ │  Node B │
//   └─────────┘              │  (goroutine  │   Deliver(msg) └─────────┘
//                            │ per message) │
//                            └──────────────┘
//
// Wait blocks until every scheduled delivery, including the ones those
// deliveries schedule in turn, has run. The coordinator uses it to let a
// run settle before reporting.
//
// Every delivery goes through schedule(). Loss or duplication injection
// would go there.
//
// =============================================================================

package transport

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/Felipelussi/paxos/internal/paxos"
)

// Option configures a Network.
type Option func(*Network)

// WithDelay sets the fixed delay before each delivery.
func WithDelay(d time.Duration) Option {
	return func(n *Network) { n.delay = d }
}

// WithJitter adds a random extra delay in [0, d) to each delivery, which
// shuffles arrival order between concurrent messages.
func WithJitter(d time.Duration) Option {
	return func(n *Network) { n.jitter = d }
}

// Network is an in-process Transport with configurable delay.
type Network struct {
	mu       sync.RWMutex
	nodes    map[string]Handler
	delay    time.Duration
	jitter   time.Duration
	inflight int
	settled  chan struct{}
}

func NewNetwork(opts ...Option) *Network {
	n := &Network{
		nodes:   make(map[string]Handler),
		settled: make(chan struct{}),
	}
	close(n.settled)
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Register adds a node under id.
func (n *Network) Register(id string, h Handler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.nodes[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, id)
	}
	n.nodes[id] = h
	return nil
}

func (n *Network) Send(msg paxos.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	h, ok := n.nodes[msg.To]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRecipient, msg.To)
	}
	n.schedule(h, msg)
	return nil
}

func (n *Network) Broadcast(msg paxos.Message, includeSelf bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, h := range n.nodes {
		if id == msg.From && !includeSelf {
			continue
		}
		n.schedule(h, msg.WithRecipient(id))
	}
	return nil
}

// schedule must be called with n.mu held.
func (n *Network) schedule(h Handler, msg paxos.Message) {
	d := n.delay
	if n.jitter > 0 {
		d += time.Duration(rand.Int63n(int64(n.jitter)))
	}
	if n.inflight == 0 {
		n.settled = make(chan struct{})
	}
	n.inflight++

	go func() {
		defer n.done()
		if d > 0 {
			time.Sleep(d)
		}
		h.Deliver(msg)
	}()
}

func (n *Network) done() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inflight--
	if n.inflight == 0 {
		close(n.settled)
	}
}

// Wait blocks until no delivery is in flight or ctx is done. It returns
// nil whenever nothing is in flight, even if ctx has already ended.
func (n *Network) Wait(ctx context.Context) error {
	n.mu.RLock()
	settled := n.settled
	n.mu.RUnlock()
	// A settled network wins over an expired ctx.
	select {
	case <-settled:
		return nil
	default:
	}
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight returns the number of scheduled deliveries that have not run.
func (n *Network) InFlight() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.inflight
}

// SetDelay changes the delay for deliveries scheduled from now on.
func (n *Network) SetDelay(d time.Duration) {
	n.mu.Lock()
	n.delay = d
	n.mu.Unlock()
}

func (n *Network) Delay() time.Duration {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.delay
}

func (n *Network) Size() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.nodes)
}

// Nodes returns the registered ids in sorted order.
func (n *Network) Nodes() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ids := make([]string, 0, len(n.nodes))
	for id := range n.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

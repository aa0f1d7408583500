// =============================================================================
// NODE - Proposer, Acceptor and Learner in One Process
// =============================================================================
//
// A Node wires the three Paxos roles to a Transport:
//
//                    ┌──────────────────────────────────┐
//   Deliver(msg) ──▶ │  Node (one mutex for all roles)  │ ──▶ Transport
//                    │                                  │
//                    │  Prepare  ──▶ Acceptor           │
//                    │  Promise  ──▶ Proposer           │
//                    │  Accept   ──▶ Acceptor           │
//                    │  Accepted ──▶ Proposer + Learner │
//                    └──────────────────────────────────┘
//
// Deliveries arrive on many goroutines at once. The node mutex is held for
// the whole of each handler, so two handlers on the same node never
// interleave their reads and writes of promised/accepted state. Replies are
// handed to the transport after the mutex is released.
//
// =============================================================================
// SELF-DELIVERY
// =============================================================================
//
// With self-delivery on (the default), every broadcast also reaches the
// sender, so a proposer's own acceptor votes in its own quorum.
//
// With it off, broadcasts skip the sender. The proposer's own acceptor never
// sees its Prepare or Accept, so the quorum must come from peers. When the
// node accepts someone else's proposal it records its own Accepted in its
// own learner directly, since that broadcast will not come back to it.
//
// Safety is the same either way.
//
// =============================================================================

package node

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Felipelussi/paxos/internal/event"
	"github.com/Felipelussi/paxos/internal/paxos"
	"github.com/Felipelussi/paxos/internal/proposal"
	"github.com/Felipelussi/paxos/internal/storage"
	"github.com/Felipelussi/paxos/internal/transport"
)

// Option configures a Node.
type Option func(*Node)

// WithStorage sets the acceptor's store. Defaults to a fresh MemoryStorage.
func WithStorage(s storage.Storage) Option {
	return func(n *Node) { n.storage = s }
}

// WithSink sets where protocol events go. The sink is called while the node
// lock is held and must not call back into the node.
func WithSink(s event.Sink) Option {
	return func(n *Node) { n.sink = s }
}

func WithLogger(l *log.Logger) Option {
	return func(n *Node) { n.logger = l }
}

// WithClock sets the clock used for proposal ids and event times.
func WithClock(clock func() time.Time) Option {
	return func(n *Node) { n.clock = clock }
}

// WithSelfDelivery controls whether broadcasts reach the sending node.
func WithSelfDelivery(on bool) Option {
	return func(n *Node) { n.selfDelivery = on }
}

// Status is a read-only snapshot of a node.
type Status struct {
	ID       string
	Acceptor paxos.AcceptorState
	Proposer paxos.ProposerState
	Learner  paxos.LearnerState
}

type outbound struct {
	msg       paxos.Message
	broadcast bool
}

type Node struct {
	id           string
	transport    transport.Transport
	storage      storage.Storage
	sink         event.Sink
	logger       *log.Logger
	clock        func() time.Time
	selfDelivery bool
	ids          *proposal.Generator

	mu       sync.Mutex
	proposer *paxos.Proposer
	acceptor *paxos.Acceptor
	learner  *paxos.Learner
}

func New(id string, t transport.Transport, opts ...Option) (*Node, error) {
	n := &Node{
		id:           id,
		transport:    t,
		sink:         event.Discard,
		logger:       log.Default(),
		clock:        time.Now,
		selfDelivery: true,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.storage == nil {
		n.storage = storage.NewMemoryStorage()
	}
	acceptor, err := paxos.NewAcceptor(id, n.storage)
	if err != nil {
		return nil, err
	}
	n.acceptor = acceptor
	n.proposer = paxos.NewProposer(id)
	n.learner = paxos.NewLearner(id)
	n.ids = proposal.NewGenerator(id, n.clock)
	return n, nil
}

func (n *Node) ID() string { return n.id }

// Propose starts Phase 1 for value under a fresh proposal id, abandoning any
// attempt this node already has in flight.
func (n *Node) Propose(value []byte) (proposal.ID, error) {
	n.mu.Lock()
	pid := n.ids.Next()
	prepare := n.proposer.Begin(pid, value)
	n.emit(event.Event{Phase: event.PhasePropose, ProposalID: pid, Value: value, Outcome: event.OutcomeSent})
	n.mu.Unlock()

	if err := n.transport.Broadcast(prepare, n.selfDelivery); err != nil {
		n.sendFailed(prepare, err)
		return pid, err
	}
	return pid, nil
}

// Deliver runs the handler for msg.Type. It is called by the transport.
func (n *Node) Deliver(msg paxos.Message) {
	n.mu.Lock()
	n.ids.Observe(msg.ProposalID)
	var out []outbound
	switch msg.Type {
	case paxos.TypePrepare:
		out = n.handlePrepare(msg)
	case paxos.TypePromise:
		out = n.handlePromise(msg)
	case paxos.TypeAccept:
		out = n.handleAccept(msg)
	case paxos.TypeAccepted:
		n.handleAccepted(msg)
	default:
		n.logger.Printf("[%s] unknown message type: %v", n.id, msg.Type)
	}
	n.mu.Unlock()

	for _, o := range out {
		var err error
		if o.broadcast {
			err = n.transport.Broadcast(o.msg, n.selfDelivery)
		} else {
			err = n.transport.Send(o.msg)
		}
		if err != nil {
			n.sendFailed(o.msg, err)
		}
	}
}

func (n *Node) handlePrepare(msg paxos.Message) []outbound {
	e := event.Event{Phase: event.PhasePrepare, Peer: msg.From, ProposalID: msg.ProposalID}
	reply, ok, err := n.acceptor.HandlePrepare(msg)
	switch {
	case err != nil:
		n.fail(e, err)
		return nil
	case !ok:
		e.Outcome = event.OutcomeIgnored
		n.emit(e)
		return nil
	}
	e.Outcome = event.OutcomePromised
	e.Value = reply.AcceptedValue
	n.emit(e)
	return []outbound{{msg: reply}}
}

func (n *Node) handlePromise(msg paxos.Message) []outbound {
	quorum := paxos.Majority(n.transport.Size())
	e := event.Event{Phase: event.PhasePromise, Peer: msg.From, ProposalID: msg.ProposalID, Quorum: quorum}
	res := n.proposer.HandlePromise(msg, quorum)
	if !res.Counted {
		e.Outcome = event.OutcomeIgnored
		n.emit(e)
		return nil
	}
	state := n.proposer.State()
	e.Count = state.Promises
	if res.Adopted {
		adopted := e
		adopted.Outcome = event.OutcomeAdopted
		adopted.Value = msg.AcceptedValue
		n.emit(adopted)
	}
	if !res.Ready {
		e.Outcome = event.OutcomeCounted
		n.emit(e)
		return nil
	}
	e.Outcome = event.OutcomeQuorum
	e.Value = res.Accept.Value
	n.emit(e)
	return []outbound{{msg: res.Accept, broadcast: true}}
}

func (n *Node) handleAccept(msg paxos.Message) []outbound {
	e := event.Event{Phase: event.PhaseAccept, Peer: msg.From, ProposalID: msg.ProposalID, Value: msg.Value}
	reply, ok, err := n.acceptor.HandleAccept(msg)
	switch {
	case err != nil:
		n.fail(e, err)
		return nil
	case !ok:
		e.Outcome = event.OutcomeIgnored
		n.emit(e)
		return nil
	}
	e.Outcome = event.OutcomeAccepted
	n.emit(e)
	if !n.selfDelivery {
		n.handleAccepted(reply)
	}
	return []outbound{{msg: reply, broadcast: true}}
}

func (n *Node) handleAccepted(msg paxos.Message) {
	quorum := paxos.Majority(n.transport.Size())
	e := event.Event{Phase: event.PhaseAccepted, Peer: msg.From, ProposalID: msg.ProposalID, Value: msg.Value, Quorum: quorum}

	if n.proposer.HandleAccepted(msg, quorum) {
		done := e
		done.Outcome = event.OutcomeQuorum
		done.Count = n.proposer.State().Accepted
		n.emit(done)
	}

	learned := n.learner.HandleAccepted(msg.ProposalID, msg.Value, msg.From, quorum)
	e.Count = n.learner.Count(msg.ProposalID, msg.Value)
	if !learned {
		e.Outcome = event.OutcomeCounted
		n.emit(e)
		return
	}
	e.Outcome = event.OutcomeLearned
	n.emit(e)
	n.proposer.Finish()
}

// Learned returns the value this node has learned, if any.
func (n *Node) Learned() (proposal.ID, []byte, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.learner.Learned()
}

// WaitLearned blocks until this node learns a value or ctx is done.
func (n *Node) WaitLearned(ctx context.Context) (proposal.ID, []byte, error) {
	select {
	case <-n.learner.Done():
		pid, value, _ := n.Learned()
		return pid, value, nil
	case <-ctx.Done():
		return proposal.ID{}, nil, ctx.Err()
	}
}

func (n *Node) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := Status{
		ID:       n.id,
		Acceptor: n.acceptor.State(),
		Proposer: n.proposer.State(),
		Learner:  n.learner.State(),
	}
	s.Acceptor.AcceptedValue = clone(s.Acceptor.AcceptedValue)
	s.Proposer.OriginalValue = clone(s.Proposer.OriginalValue)
	s.Proposer.Value = clone(s.Proposer.Value)
	s.Learner.Value = clone(s.Learner.Value)
	return s
}

// Close releases the acceptor's store. The node must not receive further
// deliveries.
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.storage.Close()
}

// Emit sends an event stamped with this node's id and clock. The
// coordinator uses it to report results through the same stream.
func (n *Node) Emit(e event.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emit(e)
}

func (n *Node) emit(e event.Event) {
	e.Node = n.id
	if e.Time.IsZero() {
		e.Time = n.clock()
	}
	n.sink.Emit(e)
}

func (n *Node) fail(e event.Event, err error) {
	n.logger.Printf("[%s] %s %s from %s: %v", n.id, e.Phase, e.ProposalID, e.Peer, err)
	e.Outcome = event.OutcomeError
	e.Err = err
	n.emit(e)
}

func (n *Node) sendFailed(msg paxos.Message, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail(event.Event{Phase: phaseOf(msg.Type), Peer: msg.To, ProposalID: msg.ProposalID}, err)
}

func phaseOf(t paxos.Type) event.Phase {
	switch t {
	case paxos.TypePrepare:
		return event.PhasePrepare
	case paxos.TypePromise:
		return event.PhasePromise
	case paxos.TypeAccept:
		return event.PhaseAccept
	}
	return event.PhaseAccepted
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

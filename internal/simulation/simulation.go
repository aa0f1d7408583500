// =============================================================================
// SIMULATION - Nodes, Queued Proposals, and Concurrent Runs
// =============================================================================
//
// A Simulation is the context object for one experiment. It owns the
// network, the node registry and the queue of pending proposals; nothing is
// process-global, so independent simulations can run side by side.
//
// Lifecycle:
//
//   New ─▶ CreateNode × n ─▶ EnqueueProposal × k ─▶ Run ─▶ Status ─▶ Close
//                 ▲                                   │
//                 └───────────── (repeat) ────────────┘
//
// Run launches every queued proposal on its own goroutine before waiting on
// any of them, so Phase 1 and Phase 2 of competing proposals genuinely
// interleave. It returns once every proposal is decided or abandoned and
// the network has no deliveries left, or when the run deadline passes.
//
// The node set must not change during a Run.
//
// =============================================================================

package simulation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Felipelussi/paxos/internal/event"
	"github.com/Felipelussi/paxos/internal/node"
	"github.com/Felipelussi/paxos/internal/transport"
)

// Proposal is a value queued for a node to propose.
type Proposal struct {
	Node  string
	Value []byte
}

type Simulation struct {
	cfg Config
	net *transport.Network

	mu      sync.Mutex
	nodes   map[string]*node.Node
	queue   []Proposal
	running bool
	stopped bool
}

func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return &Simulation{
		cfg: cfg,
		net: transport.NewNetwork(
			transport.WithDelay(cfg.MessageDelay),
			transport.WithJitter(cfg.MessageJitter),
		),
		nodes: make(map[string]*node.Node),
	}, nil
}

// CreateNode adds a node and registers it with the network.
func (s *Simulation) CreateNode(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunInProgress
	}
	if _, ok := s.nodes[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, id)
	}
	nd, err := node.New(id, s.net,
		node.WithSink(s.cfg.Sink),
		node.WithLogger(s.cfg.Logger),
		node.WithClock(s.cfg.Clock),
		node.WithSelfDelivery(!s.cfg.ExcludeSelf),
	)
	if err != nil {
		return fmt.Errorf("create node %q: %w", id, err)
	}
	if err := s.net.Register(id, nd); err != nil {
		return err
	}
	s.nodes[id] = nd
	return nil
}

// EnqueueProposal queues value to be proposed by node id on the next Run.
// The queue is left unchanged on error.
func (s *Simulation) EnqueueProposal(id string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if _, ok := s.nodes[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	s.queue = append(s.queue, Proposal{Node: id, Value: value})
	return nil
}

// Pending returns a copy of the proposal queue.
func (s *Simulation) Pending() []Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Proposal, len(s.queue))
	copy(out, s.queue)
	return out
}

// SetMessageDelay changes the delivery delay. It is refused during a Run.
func (s *Simulation) SetMessageDelay(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: negative message delay %v", ErrInvalidConfig, d)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunInProgress
	}
	s.cfg.MessageDelay = d
	s.net.SetDelay(d)
	return nil
}

// Stop refuses new proposals and retries. Deliveries already scheduled
// still run.
func (s *Simulation) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// Close stops the simulation and releases every node's store. It is
// refused during a Run.
func (s *Simulation) Close() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.stopped = true
	nodes := make([]*node.Node, 0, len(s.nodes))
	for _, nd := range s.nodes {
		nodes = append(nodes, nd)
	}
	s.mu.Unlock()

	var errs []error
	for _, nd := range nodes {
		if err := nd.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close node %q: %w", nd.ID(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Simulation) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Run drives every queued proposal concurrently and drains the queue.
func (s *Simulation) Run(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	switch {
	case s.stopped:
		s.mu.Unlock()
		return nil, ErrStopped
	case s.running:
		s.mu.Unlock()
		return nil, ErrRunInProgress
	case len(s.queue) == 0:
		s.mu.Unlock()
		return nil, ErrNoPendingProposals
	}
	queue := s.queue
	s.queue = nil
	s.running = true
	policy := s.cfg.Retry.resolve(s.cfg.MessageDelay, s.cfg.MessageJitter)
	timeout := s.cfg.runTimeout(policy, s.cfg.MessageDelay)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	results := make([]Result, len(queue))
	var wg sync.WaitGroup
	for i, p := range queue {
		wg.Add(1)
		go func(i int, p Proposal) {
			defer wg.Done()
			results[i] = s.drive(ctx, p, policy)
		}(i, p)
	}
	wg.Wait()

	report := &Report{Results: results, Settled: true}
	if err := s.net.Wait(ctx); err != nil {
		report.Settled = false
		s.cfg.Logger.Printf("[simulation] run ended with %d deliveries in flight: %v", s.net.InFlight(), err)
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

// drive runs one proposal to a terminal outcome under the retry policy.
func (s *Simulation) drive(ctx context.Context, p Proposal, policy RetryPolicy) Result {
	nd := s.node(p.Node)
	res := Result{Node: p.Node, Proposed: p.Value, Outcome: OutcomeAbandoned}

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if s.isStopped() {
				break
			}
			wait := policy.Backoff(attempt)
			nd.Emit(event.Event{Phase: event.PhaseRetry, ProposalID: res.ProposalID, Value: p.Value, Attempt: attempt, Outcome: event.OutcomeSent})
			if !sleep(ctx, wait) {
				break
			}
			if pid, value, ok := nd.Learned(); ok {
				res.decided(pid, value)
				break
			}
		}

		pid, err := nd.Propose(p.Value)
		res.Attempts = attempt
		res.ProposalID = pid
		if err != nil {
			res.Err = err
			break
		}

		actx, cancel := context.WithTimeout(ctx, policy.AttemptTimeout)
		lpid, value, err := nd.WaitLearned(actx)
		cancel()
		if err == nil {
			res.decided(lpid, value)
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	outcome := event.OutcomeAbandoned
	if res.Outcome == OutcomeDecided {
		outcome = event.OutcomeDecided
	}
	nd.Emit(event.Event{
		Phase:      event.PhaseResult,
		ProposalID: res.LearnedID,
		Value:      res.Learned,
		Attempt:    res.Attempts,
		Outcome:    outcome,
		Err:        res.Err,
	})
	return res
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Simulation) node(id string) *node.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes[id]
}

// Status returns a snapshot of every node keyed by id.
func (s *Simulation) Status() map[string]node.Status {
	s.mu.Lock()
	nodes := make([]*node.Node, 0, len(s.nodes))
	for _, nd := range s.nodes {
		nodes = append(nodes, nd)
	}
	s.mu.Unlock()

	out := make(map[string]node.Status, len(nodes))
	for _, nd := range nodes {
		out[nd.ID()] = nd.Status()
	}
	return out
}

// Nodes returns the node ids in sorted order.
func (s *Simulation) Nodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MessageDelay returns the current delivery delay.
func (s *Simulation) MessageDelay() time.Duration { return s.net.Delay() }

// IsCallerError reports whether err is one of the synchronous caller errors.
func IsCallerError(err error) bool {
	for _, target := range []error{
		ErrDuplicateNode, ErrUnknownNode, ErrUnknownRecipient, ErrNoPendingProposals,
		ErrEmptyID, ErrRunInProgress, ErrStopped, ErrInvalidConfig,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// =============================================================================
// LEARNER - The Observer of Paxos Consensus
// =============================================================================
//
// A value is chosen once a majority of acceptors has accepted the same
// (proposal id, value) pair. Every acceptor broadcasts its Accepted to all
// nodes, so each learner counts on its own and needs nobody to tell it the
// outcome.
//
// =============================================================================
// COUNTING
// =============================================================================
//
// Count distinct acceptors per (proposal id, value), never per acceptor:
//
//   - Acceptor A: Accepted (5, X)
//   - Acceptor B: Accepted (7, Y)
//   - Acceptor C: Accepted (5, X)
//
// Only (5, X) has two votes. With three nodes that is a majority; (7, Y) is
// not. Three acceptors having accepted "something" means nothing.
//
// The same acceptor reporting the same pair twice is counted once.
//
// =============================================================================
// WRITE-ONCE
// =============================================================================
//
//   undecided ──quorum for (N, V)──▶ decided(N, V)
//
// decided is terminal. Accepted messages that arrive later are still
// tallied, but they never replace the learned pair.
//
// =============================================================================

package paxos

import (
	"github.com/Felipelussi/paxos/internal/proposal"
)

type acceptedKey struct {
	id    proposal.ID
	value string
}

// Tally is the number of distinct acceptors reporting one (id, value) pair.
type Tally struct {
	ProposalID proposal.ID
	Value      []byte
	Count      int
}

// LearnerState is a read-only snapshot of a learner.
type LearnerState struct {
	Learned    bool
	ProposalID proposal.ID
	Value      []byte
	Tallies    []Tally
}

// Learner detects consensus for one node. HandleAccepted is not safe for
// concurrent use; Done may be waited on from any goroutine.
type Learner struct {
	id             string
	accepted       map[acceptedKey]map[string]bool
	order          []acceptedKey
	isChosen       bool
	chosenProposal proposal.ID
	chosenValue    []byte
	chosenCh       chan struct{}
}

func NewLearner(id string) *Learner {
	return &Learner{
		id:       id,
		accepted: make(map[acceptedKey]map[string]bool),
		chosenCh: make(chan struct{}),
	}
}

// HandleAccepted records that acceptor from accepted (pid, value). It returns
// true only for the call that makes this learner decide.
func (l *Learner) HandleAccepted(pid proposal.ID, value []byte, from string, quorum int) bool {
	key := acceptedKey{id: pid, value: string(value)}
	voters, ok := l.accepted[key]
	if !ok {
		voters = make(map[string]bool)
		l.accepted[key] = voters
		l.order = append(l.order, key)
	}
	voters[from] = true

	if l.isChosen || len(voters) < quorum {
		return false
	}
	l.isChosen = true
	l.chosenProposal = pid
	l.chosenValue = []byte(key.value)
	close(l.chosenCh)
	return true
}

// Count returns how many distinct acceptors reported (pid, value).
func (l *Learner) Count(pid proposal.ID, value []byte) int {
	return len(l.accepted[acceptedKey{id: pid, value: string(value)}])
}

// Learned returns the decided pair, if any.
func (l *Learner) Learned() (proposal.ID, []byte, bool) {
	return l.chosenProposal, l.chosenValue, l.isChosen
}

// Done is closed once a value is learned.
func (l *Learner) Done() <-chan struct{} { return l.chosenCh }

func (l *Learner) State() LearnerState {
	s := LearnerState{
		Learned:    l.isChosen,
		ProposalID: l.chosenProposal,
		Value:      l.chosenValue,
		Tallies:    make([]Tally, 0, len(l.order)),
	}
	for _, key := range l.order {
		s.Tallies = append(s.Tallies, Tally{
			ProposalID: key.id,
			Value:      []byte(key.value),
			Count:      len(l.accepted[key]),
		})
	}
	return s
}

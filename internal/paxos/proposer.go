// =============================================================================
// PROPOSER - The Driver of Paxos Consensus
// =============================================================================
//
// The proposer is the active role. For one proposal attempt it:
//
//   1. Takes a fresh proposal id N
//   2. Broadcasts Prepare(N)
//   3. Collects Promises for N from a MAJORITY of distinct acceptors
//   4. Broadcasts Accept(N, V), exactly once
//   5. Watches Accepted(N, V) until a majority has accepted
//
// This type is only the bookkeeping for those steps. Sending is done by the
// owning node, which also decides when to start over with a new id.
//
// =============================================================================
// PHASES
// =============================================================================
//
//   idle ──Begin──▶ preparing ──quorum of Promises──▶ accepting
//                                                        │
//                                  quorum of Accepted ───┴──▶ done
//
// Begin restarts at preparing with a new id and throws away the previous
// attempt's accounting. Its effects on acceptors remain.
//
// =============================================================================
// THE CRITICAL SAFETY RULE
// =============================================================================
//
// If ANY Promise reports a previously accepted (id, value), the proposer MUST
// propose the value carried by the HIGHEST such id, not its own.
//
// Example, quorum of 3 out of 5:
//   - Acceptor 1: nothing accepted
//   - Acceptor 2: accepted (5, X)
//   - Acceptor 3: accepted (3, Y)
//
// Wrong: propose our own value because most promises were empty.
// Right: propose X, because 5 > 3.
//
// If X was already chosen, re-proposing X keeps it chosen.
//
// =============================================================================

package paxos

import (
	"github.com/Felipelussi/paxos/internal/proposal"
)

// Phase is the proposer's position in the protocol.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePreparing
	PhaseAccepting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePreparing:
		return "awaiting-promises"
	case PhaseAccepting:
		return "awaiting-accepts"
	case PhaseDone:
		return "done"
	}
	return "unknown"
}

// ProposerState is a read-only snapshot of a proposer.
type ProposerState struct {
	Phase         Phase
	ProposalID    proposal.ID
	OriginalValue []byte
	Value         []byte // value for Phase 2; differs from OriginalValue after adoption
	Promises      int
	Accepted      int
}

// PromiseResult describes what a Promise did to the proposer.
type PromiseResult struct {
	Counted bool // false for stale ids, duplicates, or after Phase 1 ended
	Adopted bool // the Promise replaced the value to propose
	Ready   bool // this Promise completed the quorum; send Accept now
	Accept  Message
}

// Proposer tracks a single in-flight proposal for one node. It is not safe
// for concurrent use; the owning node serializes calls.
type Proposer struct {
	id              string
	phase           Phase
	currentProposal proposal.ID
	originalValue   []byte
	valueToPropose  []byte
	highestAccepted proposal.ID
	promises        map[string]bool
	accepted        map[string]bool
}

func NewProposer(id string) *Proposer {
	return &Proposer{id: id}
}

// Begin starts a new attempt under pid and returns the Prepare to broadcast.
func (p *Proposer) Begin(pid proposal.ID, value []byte) Message {
	p.phase = PhasePreparing
	p.currentProposal = pid
	p.originalValue = value
	p.valueToPropose = value
	p.highestAccepted = proposal.ID{}
	p.promises = make(map[string]bool)
	p.accepted = make(map[string]bool)
	return NewPrepare(pid, p.id, value)
}

// HandlePromise counts a Promise toward the current attempt. When the count
// first reaches quorum the result carries the Accept to broadcast.
func (p *Proposer) HandlePromise(msg Message, quorum int) PromiseResult {
	var res PromiseResult
	if p.phase != PhasePreparing || !msg.ProposalID.Equal(p.currentProposal) {
		return res
	}
	if p.promises[msg.From] {
		return res
	}
	p.promises[msg.From] = true
	res.Counted = true

	if msg.HasAccepted() && msg.AcceptedID.Greater(p.highestAccepted) {
		p.highestAccepted = msg.AcceptedID
		p.valueToPropose = msg.AcceptedValue
		res.Adopted = true
	}

	if len(p.promises) >= quorum {
		p.phase = PhaseAccepting
		res.Ready = true
		res.Accept = NewAccept(p.currentProposal, p.id, p.valueToPropose)
	}
	return res
}

// HandleAccepted counts an Accepted for the current attempt and reports
// whether it completed the quorum.
func (p *Proposer) HandleAccepted(msg Message, quorum int) bool {
	if p.phase != PhaseAccepting || !msg.ProposalID.Equal(p.currentProposal) {
		return false
	}
	if p.accepted[msg.From] {
		return false
	}
	p.accepted[msg.From] = true
	if len(p.accepted) >= quorum {
		p.phase = PhaseDone
		return true
	}
	return false
}

// Finish drops the in-flight accounting once the node has learned a value.
func (p *Proposer) Finish() {
	if p.phase == PhaseIdle {
		return
	}
	p.phase = PhaseDone
	p.promises = nil
	p.accepted = nil
}

func (p *Proposer) State() ProposerState {
	return ProposerState{
		Phase:         p.phase,
		ProposalID:    p.currentProposal,
		OriginalValue: p.originalValue,
		Value:         p.valueToPropose,
		Promises:      len(p.promises),
		Accepted:      len(p.accepted),
	}
}

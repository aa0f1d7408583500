// =============================================================================
// ACCEPTOR - The Safety Guardian of Paxos
// =============================================================================
//
// Acceptors are the voters. The Paxos safety property lives or dies by the
// two rules below.
//
// RULE 1: PROMISE RULE
//         Promise a Prepare only if its id is strictly higher than any id
//         already promised. Once N is promised, nothing lower is accepted.
//
// RULE 2: ACCEPTANCE RULE
//         Accept only if the id is at least the promised id. Remember both
//         the id AND the value.
//
// =============================================================================
// THE SUBTLE COMPARISON (>= vs >)
// =============================================================================
//
// HandlePrepare checks id > promised: only new, higher ids earn a promise.
// HandleAccept checks id >= promised: having promised N we must accept N.
//
// A refused Prepare or Accept produces no reply at all. That is an expected
// protocol outcome, not an error.
//
// =============================================================================
// STATE TRANSITIONS
// =============================================================================
//
//   unconstrained ──Prepare(N)──▶ promised(N) ──Accept(N,V)──▶ accepted(N,V)
//
// Every transition moves to an equal-or-higher id. Never backwards.
//
// Invariants:
//   - promised never decreases
//   - accepted id never decreases and is always <= promised
//
// State is written through Storage before the reply is returned.
//
// =============================================================================

package paxos

import (
	"fmt"

	"github.com/Felipelussi/paxos/internal/proposal"
	"github.com/Felipelussi/paxos/internal/storage"
)

// AcceptorState is a read-only snapshot of an acceptor.
type AcceptorState struct {
	Promised      proposal.ID
	AcceptedID    proposal.ID
	AcceptedValue []byte
}

// HasAccepted reports whether the acceptor has accepted any proposal.
func (s AcceptorState) HasAccepted() bool { return !s.AcceptedID.IsZero() }

// Acceptor implements the acceptor role of one node. It is not safe for
// concurrent use; the owning node serializes calls.
type Acceptor struct {
	id               string
	storage          storage.Storage
	highestPromised  proposal.ID
	acceptedProposal proposal.ID
	acceptedValue    []byte
}

// NewAcceptor loads any state already present in s.
func NewAcceptor(id string, s storage.Storage) (*Acceptor, error) {
	promised, err := s.LoadPromised()
	if err != nil {
		return nil, fmt.Errorf("load promised: %w", err)
	}
	acceptedID, acceptedValue, err := s.LoadAccepted()
	if err != nil {
		return nil, fmt.Errorf("load accepted: %w", err)
	}
	return &Acceptor{
		id:               id,
		storage:          s,
		highestPromised:  promised,
		acceptedProposal: acceptedID,
		acceptedValue:    acceptedValue,
	}, nil
}

// HandlePrepare applies the promise rule. ok is false when the Prepare is
// refused, in which case no reply must be sent.
func (a *Acceptor) HandlePrepare(msg Message) (reply Message, ok bool, err error) {
	if !msg.ProposalID.Greater(a.highestPromised) {
		return Message{}, false, nil
	}
	if err := a.storage.SavePromised(msg.ProposalID); err != nil {
		return Message{}, false, fmt.Errorf("save promised %s: %w", msg.ProposalID, err)
	}
	a.highestPromised = msg.ProposalID
	return NewPromise(msg.ProposalID, a.id, msg.From, a.acceptedProposal, a.acceptedValue), true, nil
}

// HandleAccept applies the acceptance rule. The reply is an Accepted
// addressed to every node.
func (a *Acceptor) HandleAccept(msg Message) (reply Message, ok bool, err error) {
	if msg.ProposalID.Less(a.highestPromised) {
		return Message{}, false, nil
	}
	if msg.ProposalID.Greater(a.highestPromised) {
		if err := a.storage.SavePromised(msg.ProposalID); err != nil {
			return Message{}, false, fmt.Errorf("save promised %s: %w", msg.ProposalID, err)
		}
		a.highestPromised = msg.ProposalID
	}
	if err := a.storage.SaveAccepted(msg.ProposalID, msg.Value); err != nil {
		return Message{}, false, fmt.Errorf("save accepted %s: %w", msg.ProposalID, err)
	}
	a.acceptedProposal = msg.ProposalID
	a.acceptedValue = msg.Value
	return NewAccepted(msg.ProposalID, a.id, msg.Value), true, nil
}

func (a *Acceptor) State() AcceptorState {
	return AcceptorState{
		Promised:      a.highestPromised,
		AcceptedID:    a.acceptedProposal,
		AcceptedValue: a.acceptedValue,
	}
}

// =============================================================================
// PAXOS MESSAGE TYPES
// =============================================================================
//
// Paxos is a message-passing protocol; these four messages are the whole
// of it.
//
// PHASE 1: PREPARE PHASE
// ──────────────────────
//
// ┌──────────────┐   Prepare(N)    ┌──────────────┐
// │   PROPOSER   │ ───────────────▶│   ACCEPTOR   │
// │              │◀─────────────── │              │
// └──────────────┘   Promise(N)    └──────────────┘
//
// Prepare: "I want to propose with id N"
// Promise: "I won't accept anything lower than N. Here is what I have
//           already accepted, if anything."
//
// PHASE 2: ACCEPT PHASE
// ─────────────────────
//
// ┌──────────────┐  Accept(N, V)   ┌──────────────┐
// │   PROPOSER   │ ───────────────▶│   ACCEPTOR   │
// └──────────────┘                 └──────┬───────┘
//                                         │ Accepted(N, V)
//                                         ▼
//                                  every LEARNER
//
// Accepted goes to every node, not just the proposer, so each learner can
// count a majority on its own.
//
// Rejections are silent: an acceptor that refuses a Prepare or Accept sends
// nothing back.
//
// =============================================================================
// INVARIANT
// =============================================================================
//
// A Promise MUST carry the acceptor's previously accepted (id, value) pair
// when one exists. Without it a proposer could override a value that is
// already chosen.
//
// =============================================================================

package paxos

import (
	"fmt"

	"github.com/Felipelussi/paxos/internal/proposal"
)

// Broadcast is the recipient of a message that has not yet been fanned out.
const Broadcast = "*"

// Type is the kind of a protocol message.
type Type int

const (
	TypePrepare Type = iota + 1
	TypePromise
	TypeAccept
	TypeAccepted
)

func (t Type) String() string {
	switch t {
	case TypePrepare:
		return "prepare"
	case TypePromise:
		return "promise"
	case TypeAccept:
		return "accept"
	case TypeAccepted:
		return "accepted"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Message is a single protocol message. Value is set on Prepare, Accept and
// Accepted. AcceptedID and AcceptedValue are only meaningful on Promise.
type Message struct {
	Type          Type
	ProposalID    proposal.ID
	From          string
	To            string
	Value         []byte
	AcceptedID    proposal.ID
	AcceptedValue []byte
}

func NewPrepare(id proposal.ID, from string, value []byte) Message {
	return Message{Type: TypePrepare, ProposalID: id, From: from, To: Broadcast, Value: value}
}

// NewPromise answers a Prepare. A zero acceptedID means nothing was accepted.
func NewPromise(id proposal.ID, from, to string, acceptedID proposal.ID, acceptedValue []byte) Message {
	m := Message{Type: TypePromise, ProposalID: id, From: from, To: to}
	if !acceptedID.IsZero() {
		m.AcceptedID = acceptedID
		m.AcceptedValue = acceptedValue
	}
	return m
}

func NewAccept(id proposal.ID, from string, value []byte) Message {
	return Message{Type: TypeAccept, ProposalID: id, From: from, To: Broadcast, Value: value}
}

func NewAccepted(id proposal.ID, from string, value []byte) Message {
	return Message{Type: TypeAccepted, ProposalID: id, From: from, To: Broadcast, Value: value}
}

// HasAccepted reports whether a Promise carries a previously accepted pair.
func (m Message) HasAccepted() bool { return !m.AcceptedID.IsZero() }

// WithRecipient returns a copy of m addressed to to.
func (m Message) WithRecipient(to string) Message {
	m.To = to
	return m
}

func (m Message) String() string {
	return fmt.Sprintf("%s(%s) %s->%s", m.Type, m.ProposalID, m.From, m.To)
}

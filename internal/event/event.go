// =============================================================================
// EVENTS - What Happened, As Data
// =============================================================================
//
// Nodes and the coordinator report every protocol step as an Event record.
// They never format text: rendering (plain log lines, a table, a UI) belongs
// to whoever consumes the stream.
//
// A typical single-proposal run with three nodes emits, per node:
//
//   propose/sent ─▶ prepare/promised ─▶ promise/quorum ─▶ accept/accepted
//                                                   └──▶ accepted/learned
//
// followed by one result/decided from the coordinator.
//
// Sinks are called from many goroutines at once and must be safe for
// concurrent use.
//
// =============================================================================

package event

import (
	"time"

	"github.com/Felipelussi/paxos/internal/proposal"
)

// Phase names the protocol step an event belongs to.
type Phase string

const (
	PhasePropose  Phase = "propose"
	PhasePrepare  Phase = "prepare"
	PhasePromise  Phase = "promise"
	PhaseAccept   Phase = "accept"
	PhaseAccepted Phase = "accepted"
	PhaseRetry    Phase = "retry"
	PhaseResult   Phase = "result"
)

// Outcome is what the step did.
type Outcome string

const (
	OutcomeSent      Outcome = "sent"
	OutcomePromised  Outcome = "promised"
	OutcomeAccepted  Outcome = "accepted"
	OutcomeIgnored   Outcome = "ignored" // stale id or protocol rejection, not a failure
	OutcomeCounted   Outcome = "counted"
	OutcomeAdopted   Outcome = "adopted"
	OutcomeQuorum    Outcome = "quorum"
	OutcomeLearned   Outcome = "learned"
	OutcomeDecided   Outcome = "decided"
	OutcomeAbandoned Outcome = "abandoned"
	OutcomeError     Outcome = "error"
)

// Event is one step observed at one node.
type Event struct {
	Time       time.Time
	Phase      Phase
	Node       string
	Peer       string // the other party, when there is one
	ProposalID proposal.ID
	Value      []byte
	Outcome    Outcome
	Count      int // votes so far, for counted/quorum outcomes
	Quorum     int
	Attempt    int
	Err        error
}

// Sink consumes events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans each event out to every sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			s.Emit(e)
		}
	})
}

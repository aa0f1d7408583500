// =============================================================================
// TRANSPORT - Abstraction for Message Passing
// =============================================================================
//
// Paxos assumes an ASYNCHRONOUS network. Nodes only ever talk through this
// interface; they never touch each other's state.
//
// Semantics of the in-process network (memory.go):
//
//   - Send is fire-and-forget: it returns once the delivery is scheduled
//   - Every delivery runs on its own goroutine after the configured delay
//   - No ordering between different recipients, or between different
//     senders to the same recipient
//   - Reliable: messages are never lost, duplicated or corrupted
//
// Protocol correctness must never depend on delivery order. The only
// ordering signal Paxos uses is proposal id comparison.
//
// =============================================================================
// COMMON BUG TO AVOID
// =============================================================================
//
// BUG: Delivering synchronously from inside a handler
//
// A node handling a message holds its own lock. If Send called the
// recipient's handler directly, a node replying to itself would deadlock.
// Scheduling every delivery on a fresh goroutine rules that out.
//
// =============================================================================

package transport

import (
	"errors"

	"github.com/Felipelussi/paxos/internal/paxos"
)

var (
	// ErrDuplicateNode is returned when registering an identity twice.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrUnknownRecipient is returned when sending to an unregistered identity.
	ErrUnknownRecipient = errors.New("unknown recipient")
)

// Handler receives messages addressed to one node.
type Handler interface {
	Deliver(msg paxos.Message)
}

// Transport is what a node uses to reach its peers.
type Transport interface {
	// Send schedules delivery of msg to msg.To.
	Send(msg paxos.Message) error
	// Broadcast schedules one copy of msg per registered node. The sender
	// is skipped unless includeSelf is set.
	Broadcast(msg paxos.Message, includeSelf bool) error
	// Size is the number of registered nodes.
	Size() int
}

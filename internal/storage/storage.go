// =============================================================================
// STORAGE INTERFACE - Where Acceptor State Lives
// =============================================================================
//
// An acceptor keeps exactly two pieces of state:
//
//   1. The highest proposal id it has promised.
//   2. The last proposal id and value it has accepted.
//
// Paxos safety depends on an acceptor never forgetting either of them. This
// simulation keeps everything in memory for the lifetime of the process, so
// the only implementation is MemoryStorage. The interface is what a durable
// store would plug into; the acceptor writes through it before it replies.
//
// =============================================================================
// CONTRACT
// =============================================================================
//
// - A Save must be visible to every subsequent Load.
// - Loads on a fresh store return zero ids and a nil value ("none").
// - Returned values are copies; callers may not mutate stored bytes.
//
// =============================================================================

package storage

import (
	"errors"

	"github.com/Felipelussi/paxos/internal/proposal"
)

// ErrClosed is returned by every operation on a closed store.
var ErrClosed = errors.New("storage closed")

// Storage persists the acceptor's promise and acceptance.
type Storage interface {
	SavePromised(id proposal.ID) error
	LoadPromised() (proposal.ID, error)
	SaveAccepted(id proposal.ID, value []byte) error
	LoadAccepted() (proposal.ID, []byte, error)
	Close() error
}

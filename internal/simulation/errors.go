package simulation

import (
	"errors"

	"github.com/Felipelussi/paxos/internal/transport"
)

// Caller errors. All are returned synchronously from the offending call and
// never retried. Match them with errors.Is.
var (
	ErrDuplicateNode      = transport.ErrDuplicateNode
	ErrUnknownRecipient   = transport.ErrUnknownRecipient
	ErrUnknownNode        = errors.New("unknown node")
	ErrNoPendingProposals = errors.New("no pending proposals")
	ErrEmptyID            = errors.New("empty node id")
	ErrRunInProgress      = errors.New("run in progress")
	ErrStopped            = errors.New("simulation stopped")
	ErrInvalidConfig      = errors.New("invalid config")
)

package simulation

import (
	"bytes"
	"time"

	"github.com/Felipelussi/paxos/internal/proposal"
)

// Outcome is the terminal state of one queued proposal.
type Outcome string

const (
	// OutcomeDecided means the proposing node learned a value. The value
	// may be another proposer's if this one adopted it or lost the race.
	OutcomeDecided Outcome = "decided"
	// OutcomeAbandoned means retries or the run deadline ran out before the
	// node learned anything.
	OutcomeAbandoned Outcome = "abandoned"
)

// Result is what happened to one queued proposal.
type Result struct {
	Node       string
	Proposed   []byte
	Outcome    Outcome
	Attempts   int
	ProposalID proposal.ID // id of the last attempt
	LearnedID  proposal.ID
	Learned    []byte
	Err        error
}

func (r *Result) decided(id proposal.ID, value []byte) {
	r.Outcome = OutcomeDecided
	r.LearnedID = id
	r.Learned = value
}

// Report summarizes one Run.
type Report struct {
	Results []Result
	// Settled is false when the deadline passed with deliveries in flight.
	Settled bool
	Elapsed time.Duration
}

// Decided returns the results that reached consensus.
func (r *Report) Decided() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome == OutcomeDecided {
			out = append(out, res)
		}
	}
	return out
}

// Agreed returns the single value every decided proposal learned. ok is
// false when nothing was decided or, which would be a safety violation,
// two decided proposals learned different values.
func (r *Report) Agreed() (value []byte, ok bool) {
	decided := r.Decided()
	if len(decided) == 0 {
		return nil, false
	}
	value = decided[0].Learned
	for _, res := range decided[1:] {
		if !bytes.Equal(res.Learned, value) {
			return nil, false
		}
	}
	return value, true
}

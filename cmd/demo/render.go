package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/Felipelussi/paxos/internal/event"
	"github.com/Felipelussi/paxos/internal/node"
	"github.com/Felipelussi/paxos/internal/simulation"
)

// printer renders protocol events as one line each.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) Emit(e event.Event) {
	line := describe(e)
	p.mu.Lock()
	fmt.Fprintln(p.w, line)
	p.mu.Unlock()
}

func describe(e event.Event) string {
	who := fmt.Sprintf("[%s]", e.Node)
	switch e.Phase {
	case event.PhasePropose:
		return fmt.Sprintf("%s 📤 proposing %q with id %s", who, e.Value, e.ProposalID)
	case event.PhasePrepare:
		switch e.Outcome {
		case event.OutcomePromised:
			return fmt.Sprintf("%s ✅ promised %s to %s", who, e.ProposalID, e.Peer)
		case event.OutcomeIgnored:
			return fmt.Sprintf("%s ❌ ignored prepare %s from %s (promised higher)", who, e.ProposalID, e.Peer)
		}
	case event.PhasePromise:
		switch e.Outcome {
		case event.OutcomeAdopted:
			return fmt.Sprintf("%s 🔄 adopting previously accepted value %q", who, e.Value)
		case event.OutcomeCounted:
			return fmt.Sprintf("%s 📊 %d/%d promises for %s", who, e.Count, e.Quorum, e.ProposalID)
		case event.OutcomeQuorum:
			return fmt.Sprintf("%s 📤 quorum of promises, sending accept %q for %s", who, e.Value, e.ProposalID)
		case event.OutcomeIgnored:
			return fmt.Sprintf("%s stale promise %s from %s", who, e.ProposalID, e.Peer)
		}
	case event.PhaseAccept:
		switch e.Outcome {
		case event.OutcomeAccepted:
			return fmt.Sprintf("%s ✅ accepted %q under %s", who, e.Value, e.ProposalID)
		case event.OutcomeIgnored:
			return fmt.Sprintf("%s ❌ ignored accept %s from %s (promised higher)", who, e.ProposalID, e.Peer)
		}
	case event.PhaseAccepted:
		switch e.Outcome {
		case event.OutcomeCounted:
			return fmt.Sprintf("%s 📊 %d/%d accepts for %s = %q", who, e.Count, e.Quorum, e.ProposalID, e.Value)
		case event.OutcomeQuorum:
			return fmt.Sprintf("%s proposal %s accepted by a majority", who, e.ProposalID)
		case event.OutcomeLearned:
			return fmt.Sprintf("%s 🎉 learned CONSENSUS: %s = %q", who, e.ProposalID, e.Value)
		}
	case event.PhaseRetry:
		return fmt.Sprintf("%s ⏳ no consensus yet, retrying (attempt %d)", who, e.Attempt)
	case event.PhaseResult:
		if e.Outcome == event.OutcomeDecided {
			return fmt.Sprintf("%s 🏁 decided %q after %d attempt(s)", who, e.Value, e.Attempt)
		}
		return fmt.Sprintf("%s 🤷 abandoned after %d attempt(s)", who, e.Attempt)
	}
	if e.Outcome == event.OutcomeError {
		return fmt.Sprintf("%s 💥 %s %s: %v", who, e.Phase, e.ProposalID, e.Err)
	}
	return fmt.Sprintf("%s %s/%s %s", who, e.Phase, e.Outcome, e.ProposalID)
}

func writeReport(w io.Writer, r *simulation.Report) {
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, "📋 Final Results:")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	for _, res := range r.Results {
		switch res.Outcome {
		case simulation.OutcomeDecided:
			fmt.Fprintf(w, "  %s proposed %q → decided %q (%d attempt(s))\n", res.Node, res.Proposed, res.Learned, res.Attempts)
		default:
			fmt.Fprintf(w, "  %s proposed %q → abandoned (%d attempt(s))\n", res.Node, res.Proposed, res.Attempts)
		}
	}
	if value, ok := r.Agreed(); ok {
		fmt.Fprintf(w, "Consensus achieved on %q in %v.\n", value, r.Elapsed)
	}
	if !r.Settled {
		fmt.Fprintln(w, "Run deadline passed with messages still in flight.")
	}
}

func writeStatus(w io.Writer, status map[string]node.Status) {
	if len(status) == 0 {
		fmt.Fprintln(w, "❌ No nodes in network")
		return
	}
	ids := make([]string, 0, len(status))
	for id := range status {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintf(w, "🌐 Network has %d nodes:\n", len(ids))
	for _, id := range ids {
		st := status[id]
		learned := "nothing"
		if st.Learner.Learned {
			learned = fmt.Sprintf("%q (%s)", st.Learner.Value, st.Learner.ProposalID)
		}
		accepted := "nothing"
		if st.Acceptor.HasAccepted() {
			accepted = fmt.Sprintf("%q (%s)", st.Acceptor.AcceptedValue, st.Acceptor.AcceptedID)
		}
		fmt.Fprintf(w, "  📍 %s: promised=%s accepted=%s proposer=%s learned=%s\n",
			id, st.Acceptor.Promised, accepted, st.Proposer.Phase, learned)
	}
}

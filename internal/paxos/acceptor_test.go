package paxos

import (
	"errors"
	"testing"

	"github.com/Felipelussi/paxos/internal/proposal"
	"github.com/Felipelussi/paxos/internal/storage"
)

func pid(counter int64, node string) proposal.ID {
	return proposal.ID{Counter: counter, Node: node}
}

func newTestAcceptor(t *testing.T) *Acceptor {
	t.Helper()
	a, err := NewAcceptor("acc", storage.NewMemoryStorage())
	if err != nil {
		t.Fatalf("NewAcceptor: %v", err)
	}
	return a
}

func TestAcceptorFirstPreparePromisesNone(t *testing.T) {
	a := newTestAcceptor(t)
	reply, ok, err := a.HandlePrepare(NewPrepare(pid(1, "p"), "p", nil))
	if err != nil || !ok {
		t.Fatalf("HandlePrepare = %v, %v; want promise", ok, err)
	}
	if reply.Type != TypePromise || reply.To != "p" || reply.From != "acc" {
		t.Fatalf("unexpected reply %v", reply)
	}
	if reply.HasAccepted() {
		t.Fatalf("fresh acceptor reported accepted pair %v", reply.AcceptedID)
	}
}

func TestAcceptorRejectsLowerOrEqualPrepare(t *testing.T) {
	a := newTestAcceptor(t)
	if _, ok, _ := a.HandlePrepare(NewPrepare(pid(5, "p"), "p", nil)); !ok {
		t.Fatal("expected first promise")
	}
	for _, id := range []proposal.ID{pid(5, "p"), pid(4, "z"), pid(5, "a")} {
		if _, ok, err := a.HandlePrepare(NewPrepare(id, "q", nil)); ok || err != nil {
			t.Fatalf("HandlePrepare(%v) = %v, %v; want silent rejection", id, ok, err)
		}
	}
	if got := a.State().Promised; got != pid(5, "p") {
		t.Fatalf("promised = %v, want 5.p", got)
	}
}

func TestAcceptorAcceptRules(t *testing.T) {
	a := newTestAcceptor(t)
	a.HandlePrepare(NewPrepare(pid(5, "p"), "p", nil))

	if _, ok, _ := a.HandleAccept(NewAccept(pid(4, "p"), "p", []byte("low"))); ok {
		t.Fatal("accepted an id below the promise")
	}
	reply, ok, err := a.HandleAccept(NewAccept(pid(5, "p"), "p", []byte("X")))
	if err != nil || !ok {
		t.Fatalf("HandleAccept at promised id = %v, %v", ok, err)
	}
	if reply.Type != TypeAccepted || reply.To != Broadcast || string(reply.Value) != "X" {
		t.Fatalf("unexpected reply %v", reply)
	}

	// An Accept above the promise raises the promise too.
	if _, ok, _ := a.HandleAccept(NewAccept(pid(9, "q"), "q", []byte("Y"))); !ok {
		t.Fatal("expected accept above promise")
	}
	s := a.State()
	if s.Promised != pid(9, "q") || s.AcceptedID != pid(9, "q") || string(s.AcceptedValue) != "Y" {
		t.Fatalf("state = %+v", s)
	}
}

func TestAcceptorPromiseReportsAcceptedPair(t *testing.T) {
	a := newTestAcceptor(t)
	a.HandlePrepare(NewPrepare(pid(1, "p"), "p", nil))
	a.HandleAccept(NewAccept(pid(1, "p"), "p", []byte("X")))

	for _, id := range []proposal.ID{pid(2, "q"), pid(3, "r"), pid(10, "a")} {
		reply, ok, _ := a.HandlePrepare(NewPrepare(id, "q", nil))
		if !ok {
			t.Fatalf("expected promise for %v", id)
		}
		if reply.AcceptedID != pid(1, "p") || string(reply.AcceptedValue) != "X" {
			t.Fatalf("promise for %v reported (%v, %q), want (1.p, X)", id, reply.AcceptedID, reply.AcceptedValue)
		}
	}
}

func TestAcceptorPromisedNeverDecreases(t *testing.T) {
	a := newTestAcceptor(t)
	sequence := []Message{
		NewPrepare(pid(3, "a"), "a", nil),
		NewPrepare(pid(1, "b"), "b", nil),
		NewAccept(pid(2, "c"), "c", []byte("v")),
		NewPrepare(pid(7, "b"), "b", nil),
		NewAccept(pid(7, "b"), "b", []byte("w")),
		NewPrepare(pid(6, "z"), "z", nil),
		NewAccept(pid(3, "a"), "a", []byte("u")),
	}
	var prev AcceptorState
	for i, msg := range sequence {
		switch msg.Type {
		case TypePrepare:
			a.HandlePrepare(msg)
		case TypeAccept:
			a.HandleAccept(msg)
		}
		s := a.State()
		if s.Promised.Less(prev.Promised) {
			t.Fatalf("step %d: promised decreased from %v to %v", i, prev.Promised, s.Promised)
		}
		if s.AcceptedID.Less(prev.AcceptedID) {
			t.Fatalf("step %d: accepted id decreased from %v to %v", i, prev.AcceptedID, s.AcceptedID)
		}
		if s.AcceptedID.Greater(s.Promised) {
			t.Fatalf("step %d: accepted %v above promised %v", i, s.AcceptedID, s.Promised)
		}
		prev = s
	}
}

type failingStorage struct{ *storage.MemoryStorage }

var errDisk = errors.New("disk full")

func (failingStorage) SavePromised(proposal.ID) error { return errDisk }

func TestAcceptorStorageFailureIsReported(t *testing.T) {
	a, err := NewAcceptor("acc", failingStorage{storage.NewMemoryStorage()})
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err := a.HandlePrepare(NewPrepare(pid(1, "p"), "p", nil))
	if ok || !errors.Is(err, errDisk) {
		t.Fatalf("HandlePrepare = %v, %v; want failure wrapping errDisk", ok, err)
	}
	if !a.State().Promised.IsZero() {
		t.Fatal("promise recorded despite storage failure")
	}
}

func TestAcceptorLoadsExistingState(t *testing.T) {
	s := storage.NewMemoryStorage()
	s.SavePromised(pid(8, "p"))
	s.SaveAccepted(pid(8, "p"), []byte("kept"))

	a, err := NewAcceptor("acc", s)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := a.HandlePrepare(NewPrepare(pid(7, "q"), "q", nil)); ok {
		t.Fatal("promised below the stored promise")
	}
	if st := a.State(); string(st.AcceptedValue) != "kept" {
		t.Fatalf("accepted value = %q, want kept", st.AcceptedValue)
	}
}

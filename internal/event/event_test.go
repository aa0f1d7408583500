package event

import (
	"sync"
	"testing"
)

func TestRecorderConcurrentEmit(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Emit(Event{Phase: PhasePrepare, Outcome: OutcomePromised})
			}
		}()
	}
	wg.Wait()
	if got := len(r.Events()); got != 500 {
		t.Fatalf("recorded %d events, want 500", got)
	}
}

func TestRecorderFilterAndReset(t *testing.T) {
	r := NewRecorder()
	r.Emit(Event{Node: "n0", Outcome: OutcomeLearned})
	r.Emit(Event{Node: "n1", Outcome: OutcomeIgnored})
	r.Emit(Event{Node: "n2", Outcome: OutcomeLearned})

	learned := r.Filter(func(e Event) bool { return e.Outcome == OutcomeLearned })
	if len(learned) != 2 || learned[0].Node != "n0" || learned[1].Node != "n2" {
		t.Fatalf("Filter = %+v", learned)
	}
	r.Reset()
	if len(r.Events()) != 0 {
		t.Fatal("Reset kept events")
	}
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	Multi(a, Discard, b).Emit(Event{Node: "n0"})
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatal("Multi did not reach every sink")
	}
}

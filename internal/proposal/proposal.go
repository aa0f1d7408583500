// =============================================================================
// PROPOSAL IDS - The Foundation of Paxos Ordering
// =============================================================================
//
// A proposal id totally orders every proposal attempt across every node.
// Acceptors only ever move to equal-or-higher ids, so the whole safety
// argument rests on two properties of this type:
//
//   1. TOTAL ORDER: any two ids compare as <, == or >.
//   2. UNIQUENESS: two nodes can never generate the same id.
//
// An id has two parts:
//
//   Counter - a nanosecond timestamp taken when the proposal starts
//   Node    - the identity of the node that generated it (tie-breaker)
//
// Comparison rules:
//   - First compare Counter (higher wins)
//   - If equal, compare Node lexicographically
//
// Example ordering (ascending):
//   (100, "n0") < (100, "n1") < (101, "n0") < (250, "n2")
//
// The zero ID means "none" (no promise made, nothing accepted) and is lower
// than every generated id.
//
// =============================================================================

package proposal

import (
	"fmt"
	"strings"
)

// ID identifies one proposal attempt.
type ID struct {
	Counter int64
	Node    string
}

// Compare returns -1, 0 or +1 depending on whether a is lower than, equal to
// or higher than b.
func Compare(a, b ID) int {
	switch {
	case a.Counter < b.Counter:
		return -1
	case a.Counter > b.Counter:
		return 1
	}
	return strings.Compare(a.Node, b.Node)
}

func (id ID) Less(other ID) bool { return Compare(id, other) < 0 }

func (id ID) Greater(other ID) bool { return Compare(id, other) > 0 }

func (id ID) Equal(other ID) bool { return id == other }

// IsZero reports whether id is the "none" value.
func (id ID) IsZero() bool { return id == ID{} }

func (id ID) String() string {
	if id.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%d.%s", id.Counter, id.Node)
}

package paxos

// Majority returns the quorum size for n nodes: floor(n/2) + 1.
func Majority(n int) int {
	return n/2 + 1
}

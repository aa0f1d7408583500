package simulation

import "fmt"

// NewCompetingScenario builds the stock experiment: three nodes node0..node2,
// each queued to propose its own value (value_A, value_B, value_C), so all
// three proposals race on the next Run.
func NewCompetingScenario(cfg Config) (*Simulation, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	values := []string{"value_A", "value_B", "value_C"}
	for i, v := range values {
		id := fmt.Sprintf("node%d", i)
		if err := s.CreateNode(id); err != nil {
			return nil, err
		}
		if err := s.EnqueueProposal(id, []byte(v)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

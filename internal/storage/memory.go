package storage

import (
	"sync"

	"github.com/Felipelussi/paxos/internal/proposal"
)

// MemoryStorage keeps acceptor state in process memory. State is lost when
// the process exits.
type MemoryStorage struct {
	mu               sync.RWMutex
	highestPromised  proposal.ID
	acceptedProposal proposal.ID
	acceptedValue    []byte
	closed           bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) SavePromised(id proposal.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.highestPromised = id
	return nil
}

func (m *MemoryStorage) LoadPromised() (proposal.ID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return proposal.ID{}, ErrClosed
	}
	return m.highestPromised, nil
}

func (m *MemoryStorage) SaveAccepted(id proposal.ID, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.acceptedProposal = id
	m.acceptedValue = clone(value)
	return nil
}

func (m *MemoryStorage) LoadAccepted() (proposal.ID, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return proposal.ID{}, nil, ErrClosed
	}
	return m.acceptedProposal, clone(m.acceptedValue), nil
}

// Close drops the stored state. Further calls fail with ErrClosed.
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.highestPromised = proposal.ID{}
	m.acceptedProposal = proposal.ID{}
	m.acceptedValue = nil
	m.closed = true
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

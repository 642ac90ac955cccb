package ledger

import "sync"

// Memory is an in-memory LinkLedger for tests and dry runs.
type Memory struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

// Has reports membership.
func (m *Memory) Has(url string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.seen[url]
	return ok
}

// Add records the URL.
func (m *Memory) Add(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[url] = struct{}{}
	return nil
}

// Len returns the number of members.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seen)
}

package relay

import (
	"context"
	"sync"
)

// MemoryTransport is a process-local, mutex-guarded relay map: the
// coordinator-side storage described in §3 ("process-local mapping on the
// coordinator; no durability required"). It also doubles as the Transport
// used by in-process multi-party tests for the keygen/signing engines.
type MemoryTransport struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{data: make(map[string][]byte)}
}

func (m *MemoryTransport) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemoryTransport) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

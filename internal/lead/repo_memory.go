package lead

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]Lead
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{leads: make(map[string]Lead)}
}

func (m *MemoryRepository) Insert(_ context.Context, l Lead) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[l.ID] = l
	return l, nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return l, nil
}

func (m *MemoryRepository) Update(_ context.Context, l Lead) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[l.ID]; !ok {
		return Lead{}, ErrNotFound
	}
	m.leads[l.ID] = l
	return l, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[id]; !ok {
		return ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func (m *MemoryRepository) List(_ context.Context, clientID string) ([]Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Lead
	for _, l := range m.leads {
		if clientID != "" && l.ClientID != clientID {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

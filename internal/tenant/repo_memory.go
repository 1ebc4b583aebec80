package tenant

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{clients: make(map[string]Client)}
}

func (m *MemoryRepository) FindByTwilioNumber(_ context.Context, number string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.clients {
		if c.TwilioNumber == number {
			return c, nil
		}
	}
	return Client{}, ErrNotFound
}

func (m *MemoryRepository) FindByID(_ context.Context, id string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryRepository) Create(_ context.Context, c Client) (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
	return c, nil
}

func (m *MemoryRepository) Update(_ context.Context, c Client) (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c.ID]; !ok {
		return Client{}, ErrNotFound
	}
	m.clients[c.ID] = c
	return c, nil
}

func (m *MemoryRepository) List(_ context.Context) ([]Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

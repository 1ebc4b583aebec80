package contact

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu       sync.Mutex
	contacts map[string]Contact
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{contacts: make(map[string]Contact)}
}

func (m *MemoryRepository) FindByPhone(_ context.Context, phone string) (Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.Phone == phone {
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

func (m *MemoryRepository) FindByID(_ context.Context, id string) (Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return Contact{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryRepository) Create(_ context.Context, c Contact) (Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts[c.ID] = c
	return c, nil
}

func (m *MemoryRepository) Update(_ context.Context, c Contact) (Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[c.ID]; !ok {
		return Contact{}, ErrNotFound
	}
	m.contacts[c.ID] = c
	return c, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[id]; !ok {
		return ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

func (m *MemoryRepository) List(_ context.Context) ([]Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Contact, 0, len(m.contacts))
	for _, c := range m.contacts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) FindOrCreateByPhone(_ context.Context, phone string, now time.Time) (Contact, error) {
	if phone == "" {
		return Contact{}, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.Phone == phone {
			return c, nil
		}
	}
	c := Contact{ID: uuid.NewString(), Name: phone, Phone: phone, CreatedAt: now, UpdatedAt: now}
	m.contacts[c.ID] = c
	return c, nil
}

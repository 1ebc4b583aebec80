package interaction

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]Interaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]Interaction)}
}

func (m *MemoryRepository) Insert(_ context.Context, in Interaction) (Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[in.ID] = in
	return in, nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in, ok := m.rows[id]
	if !ok {
		return Interaction{}, ErrNotFound
	}
	return in, nil
}

func (m *MemoryRepository) FindBySID(_ context.Context, sid string) (Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *Interaction
	for id := range m.rows {
		in := m.rows[id]
		if in.TwilioSID != sid {
			continue
		}
		if found == nil || in.CreatedAt.Before(found.CreatedAt) {
			found = &in
		}
	}
	if found == nil {
		return Interaction{}, ErrNotFound
	}
	return *found, nil
}

func (m *MemoryRepository) UpdateCallResult(_ context.Context, id string, res CallResult, now time.Time) (Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.rows[id]
	if !ok {
		return Interaction{}, ErrNotFound
	}
	in.Status = res.Status
	in.DurationSeconds = res.DurationSeconds
	in.DialCallStatus = res.DialCallStatus
	in.Answered = res.Answered
	in.IsMissedCall = res.IsMissedCall
	in.UpdatedAt = now
	m.rows[id] = in
	return in, nil
}

func (m *MemoryRepository) UpdateVoicemail(_ context.Context, id string, res VoicemailResult, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	in.Type = TypeVoicemail
	in.Status = StatusCompleted
	in.RecordingURL = res.RecordingURL
	in.DurationSeconds = res.DurationSeconds
	in.IsMissedCall = true
	in.UpdatedAt = now
	m.rows[id] = in
	return nil
}

func (m *MemoryRepository) UpdateStatusBySID(_ context.Context, sid string, status Status, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, in := range m.rows {
		if in.TwilioSID == sid && !in.Status.IsTerminal() {
			in.Status = status
			in.UpdatedAt = now
			m.rows[id] = in
		}
	}
	return nil
}

func (m *MemoryRepository) List(_ context.Context, f ListFilter) ([]Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Interaction
	for _, in := range m.rows {
		if f.ClientID != "" && in.ClientID != f.ClientID {
			continue
		}
		if f.Type != "" && in.Type != f.Type {
			continue
		}
		if f.Direction != "" && in.Direction != f.Direction {
			continue
		}
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryRepository) ListByClient(_ context.Context, clientID string, from, to time.Time) ([]Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Interaction
	for _, in := range m.rows {
		if in.ClientID != clientID {
			continue
		}
		if in.CreatedAt.Before(from) || !in.CreatedAt.Before(to) {
			continue
		}
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// All returns every stored row, for test assertions.
func (m *MemoryRepository) All() []Interaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Interaction, 0, len(m.rows))
	for _, in := range m.rows {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

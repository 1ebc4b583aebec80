package lead

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/callaback/callaback-dashboard/internal/interaction"

	"github.com/google/uuid"
)

// Service provides lead operations for the dashboard plus derivation from
// interaction activity.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Get(ctx context.Context, id string) (Lead, error) {
	if id == "" {
		return Lead{}, ErrInvalidArgument
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, clientID string) ([]Lead, error) {
	return s.repo.List(ctx, clientID)
}

func (s *Service) Create(ctx context.Context, l Lead) (Lead, error) {
	if strings.TrimSpace(l.Title) == "" {
		return Lead{}, ErrInvalidArgument
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
	if l.Priority == "" {
		l.Priority = PriorityMedium
	}
	if l.Type == "" {
		l.Type = KindLead
	}
	if !l.Status.Valid() || !l.Priority.Valid() || !l.Type.Valid() {
		return Lead{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	l.ID = uuid.NewString()
	l.CreatedAt = now
	l.UpdatedAt = now
	return s.repo.Insert(ctx, l)
}

func (s *Service) Update(ctx context.Context, l Lead) (Lead, error) {
	if l.ID == "" || strings.TrimSpace(l.Title) == "" {
		return Lead{}, ErrInvalidArgument
	}
	if !l.Status.Valid() || !l.Priority.Valid() || !l.Type.Valid() {
		return Lead{}, ErrInvalidArgument
	}
	l.UpdatedAt = s.clock().UTC()
	return s.repo.Update(ctx, l)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidArgument
	}
	return s.repo.Delete(ctx, id)
}

// DeriveFromInteraction creates a follow-up lead for a missed call or an
// unanswered inbound message. Callers treat failures as best-effort: the
// webhook acknowledgment never depends on this write.
func (s *Service) DeriveFromInteraction(ctx context.Context, in interaction.Interaction) (Lead, error) {
	if in.ID == "" || in.ClientID == "" {
		return Lead{}, ErrInvalidArgument
	}

	title := fmt.Sprintf("Follow up with %s", in.FromNumber)
	priority := PriorityMedium
	if in.IsMissedCall {
		title = fmt.Sprintf("Missed call from %s", in.FromNumber)
		priority = PriorityHigh
	}

	now := s.clock().UTC()
	return s.repo.Insert(ctx, Lead{
		ID:                  uuid.NewString(),
		ClientID:            in.ClientID,
		ContactID:           in.ContactID,
		Title:               title,
		Status:              StatusNew,
		Priority:            priority,
		Type:                KindLead,
		NeedsFollowUp:       true,
		SourceInteractionID: in.ID,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
}

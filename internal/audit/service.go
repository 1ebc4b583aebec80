package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidEvent = errors.New("audit: invalid event")

// Repository is the persistence contract for audit events. It is
// append-only; no update or delete methods exist.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, clientID string, limit int) ([]Event, error)
}

// Service records dashboard user actions. Callers treat it as best-effort:
// an audit failure is logged by the caller, never propagated.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Action == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// Log is the common helper for handler call sites.
func (s *Service) Log(ctx context.Context, action Action, actorUser, actorRole, ip, clientID, targetID, message string) error {
	return s.Append(ctx, Event{
		Action:    action,
		ActorUser: actorUser,
		ActorRole: actorRole,
		IPAddress: ip,
		ClientID:  clientID,
		TargetID:  targetID,
		Message:   message,
	})
}

func (s *Service) Recent(ctx context.Context, clientID string, limit int) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.List(ctx, clientID, limit)
}

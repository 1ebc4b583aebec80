package reporting

import (
	"context"
	"errors"
	"time"

	"github.com/callaback/callaback-dashboard/internal/interaction"
	"github.com/callaback/callaback-dashboard/internal/lead"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts the data the summary is computed from. Reads must be
// scoped to the requested client.
type Repository interface {
	ListInteractions(ctx context.Context, clientID string, from, to time.Time) ([]interaction.Interaction, error)
	ListLeads(ctx context.Context, clientID string) ([]lead.Lead, error)
}

// Stores adapts the domain repositories to the reporting Repository.
type Stores struct {
	Interactions interaction.Repository
	Leads        lead.Repository
}

func (s Stores) ListInteractions(ctx context.Context, clientID string, from, to time.Time) ([]interaction.Interaction, error) {
	return s.Interactions.ListByClient(ctx, clientID, from, to)
}

func (s Stores) ListLeads(ctx context.Context, clientID string) ([]lead.Lead, error) {
	return s.Leads.List(ctx, clientID)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// ActivitySummary aggregates a client's interactions and lead backlog over
// the requested range. Lead counts reflect current state, not the range:
// the follow-up queue is about what is open now.
func (s *Service) ActivitySummary(ctx context.Context, req ActivitySummaryRequest) (ActivitySummary, error) {
	if req.ClientID == "" {
		return ActivitySummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return ActivitySummary{}, ErrInvalidRequest
	}

	rows, err := s.repo.ListInteractions(ctx, req.ClientID, req.Range.From, req.Range.To)
	if err != nil {
		return ActivitySummary{}, err
	}

	out := ActivitySummary{ClientID: req.ClientID, Range: req.Range}
	callers := map[string]struct{}{}
	for _, in := range rows {
		out.TotalInteractions++

		switch in.Type {
		case interaction.TypeCall:
			out.TotalCalls++
			out.TotalTalkSeconds += in.DurationSeconds
			if in.Answered && !in.IsMissedCall {
				out.AnsweredCalls++
			}
			if in.IsMissedCall {
				out.MissedCalls++
			}
			if in.Direction == interaction.DirectionInbound {
				callers[in.FromNumber] = struct{}{}
			}
		case interaction.TypeVoicemail:
			out.Voicemails++
			out.MissedCalls++
			callers[in.FromNumber] = struct{}{}
		case interaction.TypeSMS:
			if in.Direction == interaction.DirectionInbound {
				out.InboundMessages++
			} else {
				out.OutboundMessages++
			}
			if in.IsAutoResponse {
				out.AutoResponses++
			}
			switch in.Status {
			case interaction.StatusDelivered:
				out.DeliveredMessages++
			case interaction.StatusFailed, interaction.StatusUndelivered:
				out.FailedMessages++
			}
		}
	}
	if out.TotalCalls > 0 {
		out.AverageCallSeconds = out.TotalTalkSeconds / out.TotalCalls
	}
	out.UniqueCallers = len(callers)

	leads, err := s.repo.ListLeads(ctx, req.ClientID)
	if err != nil {
		return ActivitySummary{}, err
	}
	for _, l := range leads {
		if l.Status != lead.StatusConverted && l.Status != lead.StatusLost {
			out.OpenLeads++
			if l.NeedsFollowUp {
				out.LeadsNeedingFollow++
			}
		}
	}
	return out, nil
}

package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service wraps the repository with validation and number canonicalization.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Resolve finds the client owning a dialed/texted routing number.
// The number is normalized before lookup. A missing client is an expected
// condition (unconfigured number) and surfaces as ErrNotFound.
func (s *Service) Resolve(ctx context.Context, rawNumber string) (Client, error) {
	if strings.TrimSpace(rawNumber) == "" {
		return Client{}, ErrInvalidArgument
	}
	return s.repo.FindByTwilioNumber(ctx, NormalizeNumber(rawNumber))
}

func (s *Service) Get(ctx context.Context, id string) (Client, error) {
	if id == "" {
		return Client{}, ErrInvalidArgument
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Client, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, c Client) (Client, error) {
	if err := validateClient(c); err != nil {
		return Client{}, err
	}
	now := s.clock().UTC()
	c.ID = uuid.NewString()
	c.TwilioNumber = NormalizeNumber(c.TwilioNumber)
	c.BusinessPhone = NormalizeNumber(c.BusinessPhone)
	c.CreatedAt = now
	c.UpdatedAt = now
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, c Client) (Client, error) {
	if c.ID == "" {
		return Client{}, ErrInvalidArgument
	}
	if err := validateClient(c); err != nil {
		return Client{}, err
	}
	c.TwilioNumber = NormalizeNumber(c.TwilioNumber)
	c.BusinessPhone = NormalizeNumber(c.BusinessPhone)
	c.UpdatedAt = s.clock().UTC()
	return s.repo.Update(ctx, c)
}

func validateClient(c Client) error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("tenant: name is required"))
	}
	if strings.TrimSpace(c.TwilioNumber) == "" {
		errs = append(errs, errors.New("tenant: twilio_number is required"))
	}
	if strings.TrimSpace(c.BusinessPhone) == "" {
		errs = append(errs, errors.New("tenant: business_phone is required"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidArgument}, errs...)...)
	}
	return nil
}

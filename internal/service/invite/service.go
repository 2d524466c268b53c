// Package invite administers invite codes that grant a paid plan on signup.
package invite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentdrop/admin-console/internal/domain"
)

// CreateInput holds the fields for a new code. Zero values take defaults.
type CreateInput struct {
	Code           string
	Description    *string
	MaxUses        int
	PlanType       string
	DurationMonths int
	ExpiresAt      *time.Time
	CreatedBy      string
}

// UpdateInput holds the fields to change; nil fields are left alone.
type UpdateInput struct {
	Code           *string
	Description    *string
	MaxUses        *int
	PlanType       *string
	DurationMonths *int
	ExpiresAt      *time.Time
	IsActive       *bool
}

// Service implements invite code administration.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an invite service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns every code with redemptions.
func (s *Service) List(ctx context.Context) ([]domain.InviteCode, error) {
	codes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invite codes: %w", err)
	}
	if codes == nil {
		codes = []domain.InviteCode{}
	}
	return codes, nil
}

// Create normalizes the code to upper case and rejects duplicates.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.InviteCode, error) {
	code := normalizeCode(in.Code)
	if code == "" {
		return nil, ErrCodeRequired
	}
	if in.MaxUses < 0 || in.DurationMonths < 0 {
		return nil, ErrInvalidInput
	}

	exists, err := s.repo.CodeExists(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("check invite code: %w", err)
	}
	if exists {
		return nil, ErrDuplicateCode
	}

	c := &domain.InviteCode{
		ID:             uuid.New().String(),
		Code:           code,
		Description:    emptyToNil(in.Description),
		MaxUses:        in.MaxUses,
		PlanType:       in.PlanType,
		DurationMonths: in.DurationMonths,
		ExpiresAt:      in.ExpiresAt,
		IsActive:       true,
		CreatedAt:      s.now().UTC(),
		Redemptions:    []domain.InviteRedemption{},
	}
	if c.MaxUses == 0 {
		c.MaxUses = domain.DefaultInviteMaxUses
	}
	if c.PlanType == "" {
		c.PlanType = domain.DefaultInvitePlanType
	}
	if c.DurationMonths == 0 {
		c.DurationMonths = domain.DefaultInviteDurationMonths
	}
	if in.CreatedBy != "" {
		by := in.CreatedBy
		c.CreatedBy = &by
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies a partial update. A new code is upper-cased.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.InviteCode, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrIDRequired
	}
	if in.Code != nil {
		code := normalizeCode(*in.Code)
		if code == "" {
			return nil, ErrCodeRequired
		}
		in.Code = &code
	}
	if (in.MaxUses != nil && *in.MaxUses < 1) || (in.DurationMonths != nil && *in.DurationMonths < 1) {
		return nil, ErrInvalidInput
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a code by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrIDRequired
	}
	return s.repo.Delete(ctx, id)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

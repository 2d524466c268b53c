package waitlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/pkg/logger"
)

// Beta access actions accepted by SetBetaAccess.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Service implements waitlist administration.
type Service struct {
	repo Repository
}

// NewService creates a waitlist service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the admin view of every signup, newest first.
func (s *Service) List(ctx context.Context) ([]domain.BetaUser, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	users := make([]domain.BetaUser, 0, len(records))
	for i := range records {
		users = append(users, records[i].ToBetaUser())
	}
	return users, nil
}

// SetBetaAccess approves or rejects a signup. It only flips the beta flag;
// emails are sent separately.
func (s *Service) SetBetaAccess(ctx context.Context, id, action string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidRequest
	}
	var approved bool
	switch action {
	case ActionApprove:
		approved = true
	case ActionReject:
	default:
		return ErrInvalidAction
	}
	if err := s.repo.SetBetaUser(ctx, id, approved); err != nil {
		return err
	}
	logger.Info("beta access updated", "waitlist_id", id, "action", action)
	return nil
}

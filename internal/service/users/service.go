// Package users lists application accounts for the admin dashboard.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/agentdrop/admin-console/internal/domain"
)

// Repository reads profiles.
type Repository interface {
	// ListProfiles returns every profile, newest first.
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
}

// Service lists users.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a users service. now may be nil.
func NewService(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// List returns the admin view of every profile.
func (s *Service) List(ctx context.Context) ([]domain.UserSummary, error) {
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	now := s.now()
	out := make([]domain.UserSummary, 0, len(profiles))
	for i := range profiles {
		out = append(out, profiles[i].ToUserSummary(now))
	}
	return out, nil
}

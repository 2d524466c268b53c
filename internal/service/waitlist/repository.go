package waitlist

import (
	"context"

	"github.com/agentdrop/admin-console/internal/domain"
)

// Repository is the waitlist table.
type Repository interface {
	// List returns every record, newest first.
	List(ctx context.Context) ([]domain.WaitlistRecord, error)
	// SetBetaUser sets is_beta_user, returning ErrNotFound for unknown ids.
	SetBetaUser(ctx context.Context, id string, approved bool) error
}

package invite

import (
	"context"

	"github.com/agentdrop/admin-console/internal/domain"
)

// Repository persists invite codes and reads their redemptions.
type Repository interface {
	// List returns every code with its redemptions, newest first.
	List(ctx context.Context) ([]domain.InviteCode, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	// Create inserts c. A unique violation on code returns ErrDuplicateCode.
	Create(ctx context.Context, c *domain.InviteCode) error
	// Update applies the non-nil fields and returns the updated row.
	Update(ctx context.Context, id string, u UpdateInput) (*domain.InviteCode, error)
	Delete(ctx context.Context, id string) error
}

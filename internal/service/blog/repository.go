package blog

import (
	"context"

	"github.com/agentdrop/admin-console/internal/domain"
)

// Repository persists blog articles.
type Repository interface {
	// ListRecent returns up to limit articles, newest first, without content.
	ListRecent(ctx context.Context, limit int) ([]domain.Article, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// Create inserts a. A unique violation on slug returns ErrDuplicateSlug.
	Create(ctx context.Context, a *domain.Article) error
	// LinkCategories attaches the article to existing categories.
	LinkCategories(ctx context.Context, articleID string, categoryIDs []string) error
}

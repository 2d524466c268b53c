package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/service/blog"
)

// BlogRepo implements blog.Repository.
type BlogRepo struct{ db *sql.DB }

// NewBlogRepo creates a Postgres-backed article store.
func NewBlogRepo(db *sql.DB) *BlogRepo { return &BlogRepo{db: db} }

func (r *BlogRepo) ListRecent(ctx context.Context, limit int) ([]domain.Article, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, slug, excerpt, COALESCE(author_name, ''), status,
		       published_at, COALESCE(tags, '{}'), created_at
		FROM blog_articles
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		var a domain.Article
		var excerpt sql.NullString
		var published sql.NullTime
		var status string
		if err := rows.Scan(&a.ID, &a.Title, &a.Slug, &excerpt, &a.AuthorName, &status,
			&published, pq.Array(&a.Tags), &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Excerpt = nullString(excerpt)
		a.Status = domain.ArticleStatus(status)
		a.PublishedAt = nullTime(published)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *BlogRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM blog_articles WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (r *BlogRepo) Create(ctx context.Context, a *domain.Article) error {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blog_articles
			(id, title, slug, excerpt, content, featured_image, author_id,
			 author_name, author_avatar, status, published_at, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, a.ID, a.Title, a.Slug, a.Excerpt, a.Content, a.FeaturedImage, a.AuthorID,
		a.AuthorName, a.AuthorAvatar, string(a.Status), a.PublishedAt, pq.Array(tags), a.CreatedAt)
	if isUniqueViolation(err) {
		return blog.ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

// LinkCategories inserts the join rows in one transaction.
func (r *BlogRepo) LinkCategories(ctx context.Context, articleID string, categoryIDs []string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, cid := range categoryIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO blog_article_categories (article_id, category_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, articleID, cid); err != nil {
			return fmt.Errorf("link category %s: %w", cid, err)
		}
	}
	return tx.Commit()
}

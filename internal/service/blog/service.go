// Package blog manages marketing blog articles and their images.
package blog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/pkg/logger"
	"github.com/agentdrop/admin-console/internal/storage"
)

const (
	recentLimit       = 50
	defaultAuthorName = "Admin"
)

// Author identifies who is writing an article.
type Author struct {
	ID     string
	Name   string
	Avatar string
}

// CreateInput holds the fields for a new article.
type CreateInput struct {
	Title         string
	Slug          string
	Excerpt       string
	Content       string
	FeaturedImage string
	Status        domain.ArticleStatus
	Tags          []string
	CategoryIDs   []string
}

// Upload is an image posted from the editor.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResult is where an uploaded image now lives.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
	storage.ImageInfo
}

// Service implements blog administration.
type Service struct {
	repo     Repository
	images   storage.ImageStore
	maxBytes int64
	now      func() time.Time
}

// NewService creates a blog service. images may be nil when uploads are
// disabled; maxUploadBytes <= 0 means 10MB.
func NewService(repo Repository, images storage.ImageStore, maxUploadBytes int64) *Service {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Service{repo: repo, images: images, maxBytes: maxUploadBytes, now: time.Now}
}

// List returns the 50 most recent articles.
func (s *Service) List(ctx context.Context) ([]domain.Article, error) {
	articles, err := s.repo.ListRecent(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	if articles == nil {
		articles = []domain.Article{}
	}
	return articles, nil
}

// Create validates and stores a new article. Category links are best-effort.
func (s *Service) Create(ctx context.Context, author Author, in CreateInput) (*domain.Article, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Slug) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, ErrMissingFields
	}
	status := in.Status
	if status == "" {
		status = domain.ArticleDraft
	}
	if status != domain.ArticleDraft && status != domain.ArticlePublished {
		return nil, ErrInvalidStatus
	}

	exists, err := s.repo.SlugExists(ctx, in.Slug)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if exists {
		return nil, ErrDuplicateSlug
	}

	now := s.now().UTC()
	a := &domain.Article{
		ID:            uuid.New().String(),
		Title:         in.Title,
		Slug:          in.Slug,
		Excerpt:       optional(in.Excerpt),
		Content:       in.Content,
		FeaturedImage: optional(in.FeaturedImage),
		AuthorID:      author.ID,
		AuthorName:    author.Name,
		AuthorAvatar:  optional(author.Avatar),
		Status:        status,
		Tags:          in.Tags,
		CreatedAt:     now,
	}
	if a.AuthorName == "" {
		a.AuthorName = defaultAuthorName
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if status == domain.ArticlePublished {
		a.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	if len(in.CategoryIDs) > 0 {
		if err := s.repo.LinkCategories(ctx, a.ID, in.CategoryIDs); err != nil {
			logger.Warn("link article categories", "article_id", a.ID, "error", err)
		}
	}
	return a, nil
}

// UploadImage stores an editor image under yyyy/mm/<uuid>-<name>.
func (s *Service) UploadImage(ctx context.Context, up Upload) (*UploadResult, error) {
	if len(up.Data) == 0 {
		return nil, ErrFileRequired
	}
	if int64(len(up.Data)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	if s.images == nil {
		return nil, fmt.Errorf("image storage is not configured")
	}

	info := storage.Inspect(up.Data, up.ContentType)
	key := storage.ObjectKey(s.now().UTC(), uuid.New().String(), up.Filename)
	url, err := s.images.Put(ctx, key, info.ContentType, up.Data)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	return &UploadResult{URL: url, Key: key, ImageInfo: info}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

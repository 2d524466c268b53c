package domain

import "time"

// ArticleStatus is the publication state of a blog article.
type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticlePublished ArticleStatus = "published"
)

// Article is a blog post.
type Article struct {
	ID            string        `json:"id" db:"id"`
	Title         string        `json:"title" db:"title"`
	Slug          string        `json:"slug" db:"slug"`
	Excerpt       *string       `json:"excerpt" db:"excerpt"`
	Content       string        `json:"content,omitempty" db:"content"`
	FeaturedImage *string       `json:"featured_image,omitempty" db:"featured_image"`
	AuthorID      string        `json:"author_id,omitempty" db:"author_id"`
	AuthorName    string        `json:"author_name,omitempty" db:"author_name"`
	AuthorAvatar  *string       `json:"author_avatar,omitempty" db:"author_avatar"`
	Status        ArticleStatus `json:"status" db:"status"`
	PublishedAt   *time.Time    `json:"published_at" db:"published_at"`
	Tags          []string      `json:"tags" db:"tags"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

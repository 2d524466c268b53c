package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/agentdrop/admin-console/internal/auth"
	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/pkg/httputil"
	"github.com/agentdrop/admin-console/internal/service/blog"
)

type createArticleRequest struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Excerpt       string   `json:"excerpt"`
	Content       string   `json:"content"`
	FeaturedImage string   `json:"featured_image"`
	Status        string   `json:"status" validate:"omitempty,oneof=draft published"`
	Tags          []string `json:"tags" validate:"dive,required"`
	CategoryIDs   []string `json:"categoryIds" validate:"dive,required"`
}

// ListArticles returns the latest articles.
//
//	GET /api/admin/blog/articles
func (h *Handlers) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.blog.List(r.Context())
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "Failed to fetch articles")
		return
	}
	httputil.OK(w, map[string][]domain.Article{"articles": articles})
}

// CreateArticle stores a new article authored by the caller.
//
//	POST /api/admin/blog/articles
func (h *Handlers) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if !h.decodeAndValidate(w, r, &req, "") {
		return
	}

	var author blog.Author
	if id, ok := auth.FromContext(r.Context()); ok {
		author = blog.Author{ID: id.UserID, Name: id.Name, Avatar: id.ImageURL}
	}
	a, err := h.blog.Create(r.Context(), author, blog.CreateInput{
		Title:         req.Title,
		Slug:          req.Slug,
		Excerpt:       req.Excerpt,
		Content:       req.Content,
		FeaturedImage: req.FeaturedImage,
		Status:        domain.ArticleStatus(req.Status),
		Tags:          req.Tags,
		CategoryIDs:   req.CategoryIDs,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to create article")
		return
	}
	httputil.OK(w, map[string]string{"id": a.ID, "message": "Article created"})
}

// UploadImage stores an editor image and returns its public URL.
//
//	POST /api/admin/blog/upload-image (multipart, field "file")
func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Leave headroom for the multipart envelope; the service enforces the
	// exact file limit.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondServiceError(w, blog.ErrFileTooLarge, "")
			return
		}
		httputil.BadRequest(w, "file is required")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondServiceError(w, blog.ErrFileRequired, "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "Failed to read upload")
		return
	}
	res, err := h.blog.UploadImage(r.Context(), blog.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to upload image")
		return
	}
	httputil.OK(w, map[string]string{"url": res.URL})
}

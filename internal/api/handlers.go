package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/pkg/httputil"
	"github.com/agentdrop/admin-console/internal/service/approval"
	"github.com/agentdrop/admin-console/internal/service/blog"
	"github.com/agentdrop/admin-console/internal/service/invite"
)

// ApprovalService sends beta emails.
type ApprovalService interface {
	Send(ctx context.Context, req approval.SendRequest) (*approval.SendResult, error)
	SendRejection(ctx context.Context, waitlistID, baseURL string) (*approval.SendResult, error)
}

// WaitlistService lists signups and flips beta access.
type WaitlistService interface {
	List(ctx context.Context) ([]domain.BetaUser, error)
	SetBetaAccess(ctx context.Context, id, action string) error
}

// AnalyticsService builds the dashboard reports.
type AnalyticsService interface {
	EmailAnalytics(ctx context.Context) (*domain.EmailAnalytics, error)
	DashboardStats(ctx context.Context) (*domain.DashboardStats, error)
	Analytics(ctx context.Context) (*domain.Analytics, error)
}

// UsersService lists application accounts.
type UsersService interface {
	List(ctx context.Context) ([]domain.UserSummary, error)
}

// InviteService administers invite codes.
type InviteService interface {
	List(ctx context.Context) ([]domain.InviteCode, error)
	Create(ctx context.Context, in invite.CreateInput) (*domain.InviteCode, error)
	Update(ctx context.Context, id string, in invite.UpdateInput) (*domain.InviteCode, error)
	Delete(ctx context.Context, id string) error
}

// BlogService manages articles and editor images.
type BlogService interface {
	List(ctx context.Context) ([]domain.Article, error)
	Create(ctx context.Context, author blog.Author, in blog.CreateInput) (*domain.Article, error)
	UploadImage(ctx context.Context, up blog.Upload) (*blog.UploadResult, error)
}

// Handlers serves the admin API.
type Handlers struct {
	approval       ApprovalService
	waitlist       WaitlistService
	analytics      AnalyticsService
	users          UsersService
	invites        InviteService
	blog           BlogService
	maxUploadBytes int64
	validator      *validator.Validate
}

// NewHandlers creates the admin handlers from d.
func NewHandlers(d Deps) *Handlers {
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handlers{
		approval:       d.Approval,
		waitlist:       d.Waitlist,
		analytics:      d.Analytics,
		users:          d.Users,
		invites:        d.Invites,
		blog:           d.Blog,
		maxUploadBytes: maxUpload,
		validator:      validator.New(),
	}
}

// validationMessage turns the first validator failure into a client message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// requestOrigin is the scheme and host the client used to reach us.
func requestOrigin(r *http.Request) string {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return ""
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if r.TLS != nil {
			proto = "https"
		}
	}
	if i := strings.IndexByte(proto, ','); i >= 0 {
		proto = strings.TrimSpace(proto[:i])
	}
	return proto + "://" + host
}

// decodeAndValidate decodes the body into dst and runs struct validation.
// It writes a 400 and returns false on failure.
func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, onInvalid string) bool {
	if !httputil.Decode(w, r, dst) {
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		msg := onInvalid
		if msg == "" {
			msg = validationMessage(err)
		}
		httputil.BadRequest(w, msg)
		return false
	}
	return true
}

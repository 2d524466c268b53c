package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/agentdrop/admin-console/internal/pkg/httputil"
	"github.com/agentdrop/admin-console/internal/pkg/logger"
	"github.com/agentdrop/admin-console/internal/service/approval"
	"github.com/agentdrop/admin-console/internal/service/blog"
	"github.com/agentdrop/admin-console/internal/service/invite"
	"github.com/agentdrop/admin-console/internal/service/waitlist"
)

// Client-facing messages.
const (
	msgWaitlistIDRequired = "Waitlist ID is required"
	msgUserNotFound       = "User not found"
	msgNotApproved        = "User is not approved for beta access"
	msgAlreadySent        = "Approval email already sent"
	msgSendInProgress     = "An email for this user is already being sent"
	msgSendFailed         = "Failed to send approval email"
	msgRejectionFailed    = "Failed to send rejection email"
)

type alreadySentResponse struct {
	Error  string    `json:"error"`
	SentAt time.Time `json:"sentAt"`
}

// respondSafeError logs the internal error and writes a client-safe message.
func respondSafeError(w http.ResponseWriter, code int, internalErr error, publicMsg string) {
	if internalErr != nil {
		logger.Error("api: request failed", "status", code, "public", publicMsg, "error", internalErr)
	}
	httputil.Error(w, code, publicMsg)
}

// respondSendError maps approval workflow errors. failMsg is used for
// dispatch and internal failures.
func respondSendError(w http.ResponseWriter, err error, failMsg string) {
	var sent *approval.AlreadySentError
	switch {
	case errors.As(err, &sent):
		httputil.JSON(w, http.StatusConflict, alreadySentResponse{Error: msgAlreadySent, SentAt: sent.SentAt})
	case errors.Is(err, approval.ErrInvalidRequest):
		httputil.BadRequest(w, msgWaitlistIDRequired)
	case errors.Is(err, approval.ErrNotFound):
		httputil.NotFound(w, msgUserNotFound)
	case errors.Is(err, approval.ErrNotApproved):
		httputil.BadRequest(w, msgNotApproved)
	case errors.Is(err, approval.ErrSendInProgress):
		httputil.Error(w, http.StatusConflict, msgSendInProgress)
	default:
		respondSafeError(w, http.StatusInternalServerError, err, failMsg)
	}
}

// respondServiceError maps the admin CRUD services' errors.
func respondServiceError(w http.ResponseWriter, err error, failMsg string) {
	switch {
	case errors.Is(err, waitlist.ErrInvalidRequest):
		httputil.BadRequest(w, "User ID is required")
	case errors.Is(err, waitlist.ErrInvalidAction):
		httputil.BadRequest(w, "Action must be approve or reject")
	case errors.Is(err, waitlist.ErrNotFound):
		httputil.NotFound(w, msgUserNotFound)
	case errors.Is(err, invite.ErrCodeRequired):
		httputil.BadRequest(w, "Code is required")
	case errors.Is(err, invite.ErrIDRequired):
		httputil.BadRequest(w, "Code ID is required")
	case errors.Is(err, invite.ErrInvalidInput):
		httputil.BadRequest(w, "max_uses and duration_months must be positive")
	case errors.Is(err, invite.ErrDuplicateCode):
		httputil.BadRequest(w, "Invite code already exists")
	case errors.Is(err, invite.ErrNotFound):
		httputil.NotFound(w, "Invite code not found")
	case errors.Is(err, blog.ErrMissingFields):
		httputil.BadRequest(w, "title, slug and content are required")
	case errors.Is(err, blog.ErrDuplicateSlug):
		httputil.BadRequest(w, "Slug already exists")
	case errors.Is(err, blog.ErrInvalidStatus):
		httputil.BadRequest(w, "status must be draft or published")
	case errors.Is(err, blog.ErrFileRequired):
		httputil.BadRequest(w, "file is required")
	case errors.Is(err, blog.ErrFileTooLarge):
		httputil.Error(w, http.StatusRequestEntityTooLarge, "File is too large")
	default:
		respondSafeError(w, http.StatusInternalServerError, err, failMsg)
	}
}

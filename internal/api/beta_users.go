package api

import (
	"net/http"
	"time"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/pkg/httputil"
	"github.com/agentdrop/admin-console/internal/service/approval"
	"github.com/agentdrop/admin-console/internal/service/waitlist"
)

type setAccessRequest struct {
	Action string `json:"action" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type sendEmailRequest struct {
	WaitlistID string `json:"waitlistId" validate:"required"`
	IsResend   bool   `json:"isResend"`
}

type sendEmailResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	EmailID  string    `json:"emailId"`
	SentAt   time.Time `json:"sentAt"`
	IsResend bool      `json:"isResend"`
}

// ListBetaUsers returns every waitlist signup.
//
//	GET /api/admin/beta-users
func (h *Handlers) ListBetaUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.waitlist.List(r.Context())
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "Failed to fetch beta users")
		return
	}
	httputil.OK(w, map[string][]domain.BetaUser{"users": users})
}

// SetBetaAccess approves or rejects a signup.
//
//	POST /api/admin/beta-users
func (h *Handlers) SetBetaAccess(w http.ResponseWriter, r *http.Request) {
	var req setAccessRequest
	if !h.decodeAndValidate(w, r, &req, "") {
		return
	}
	failMsg := "Failed to approve user"
	if req.Action == waitlist.ActionReject {
		failMsg = "Failed to reject user"
	}
	if err := h.waitlist.SetBetaAccess(r.Context(), req.UserID, req.Action); err != nil {
		respondServiceError(w, err, failMsg)
		return
	}
	httputil.Success(w)
}

// SendApprovalEmail sends or resends the approval email.
//
//	POST /api/admin/beta-users/send-email
func (h *Handlers) SendApprovalEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if !h.decodeAndValidate(w, r, &req, msgWaitlistIDRequired) {
		return
	}
	res, err := h.approval.Send(r.Context(), approval.SendRequest{
		WaitlistID: req.WaitlistID,
		IsResend:   req.IsResend,
		BaseURL:    requestOrigin(r),
	})
	if err != nil {
		respondSendError(w, err, msgSendFailed)
		return
	}
	msg := "Approval email sent successfully"
	if res.IsResend {
		msg = "Approval email resent successfully"
	}
	httputil.OK(w, sendEmailResponse{
		Success:  true,
		Message:  msg,
		EmailID:  res.EmailID,
		SentAt:   res.SentAt,
		IsResend: res.IsResend,
	})
}

// SendRejectionEmail emails a signup that was not accepted.
//
//	POST /api/admin/beta-users/send-rejection
func (h *Handlers) SendRejectionEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if !h.decodeAndValidate(w, r, &req, msgWaitlistIDRequired) {
		return
	}
	res, err := h.approval.SendRejection(r.Context(), req.WaitlistID, requestOrigin(r))
	if err != nil {
		respondSendError(w, err, msgRejectionFailed)
		return
	}
	httputil.OK(w, sendEmailResponse{
		Success: true,
		Message: "Rejection email sent successfully",
		EmailID: res.EmailID,
		SentAt:  res.SentAt,
	})
}

// EmailAnalytics reports approval email delivery and opens.
//
//	GET /api/admin/beta-users/email-analytics
func (h *Handlers) EmailAnalytics(w http.ResponseWriter, r *http.Request) {
	out, err := h.analytics.EmailAnalytics(r.Context())
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "Failed to fetch email statistics")
		return
	}
	httputil.OK(w, out)
}

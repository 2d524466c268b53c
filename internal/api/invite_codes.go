package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agentdrop/admin-console/internal/auth"
	"github.com/agentdrop/admin-console/internal/pkg/httputil"
	"github.com/agentdrop/admin-console/internal/service/invite"
)

type createInviteRequest struct {
	Code           string  `json:"code"`
	Description    *string `json:"description"`
	MaxUses        int     `json:"max_uses"`
	PlanType       string  `json:"plan_type" validate:"omitempty,max=32"`
	DurationMonths int     `json:"duration_months"`
	ExpiresAt      *string `json:"expires_at"`
}

type updateInviteRequest struct {
	ID             string  `json:"id"`
	Code           *string `json:"code"`
	Description    *string `json:"description"`
	MaxUses        *int    `json:"max_uses"`
	PlanType       *string `json:"plan_type" validate:"omitempty,max=32"`
	DurationMonths *int    `json:"duration_months"`
	ExpiresAt      *string `json:"expires_at"`
	IsActive       *bool   `json:"is_active"`
}

// ListInviteCodes returns every code with its redemptions.
//
//	GET /api/admin/invite-codes
func (h *Handlers) ListInviteCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.invites.List(r.Context())
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "Failed to fetch invite codes")
		return
	}
	httputil.OK(w, codes)
}

// CreateInviteCode adds a code.
//
//	POST /api/admin/invite-codes
func (h *Handlers) CreateInviteCode(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	if !h.decodeAndValidate(w, r, &req, "") {
		return
	}
	expires, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	in := invite.CreateInput{
		Code:           req.Code,
		Description:    req.Description,
		MaxUses:        req.MaxUses,
		PlanType:       req.PlanType,
		DurationMonths: req.DurationMonths,
		ExpiresAt:      expires,
	}
	if id, ok := auth.FromContext(r.Context()); ok {
		in.CreatedBy = id.UserID
	}
	code, err := h.invites.Create(r.Context(), in)
	if err != nil {
		respondServiceError(w, err, "Failed to create invite code")
		return
	}
	httputil.OK(w, code)
}

// UpdateInviteCode applies a partial update.
//
//	PUT /api/admin/invite-codes
func (h *Handlers) UpdateInviteCode(w http.ResponseWriter, r *http.Request) {
	var req updateInviteRequest
	if !h.decodeAndValidate(w, r, &req, "") {
		return
	}
	expires, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	code, err := h.invites.Update(r.Context(), req.ID, invite.UpdateInput{
		Code:           req.Code,
		Description:    req.Description,
		MaxUses:        req.MaxUses,
		PlanType:       req.PlanType,
		DurationMonths: req.DurationMonths,
		ExpiresAt:      expires,
		IsActive:       req.IsActive,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to update invite code")
		return
	}
	httputil.OK(w, code)
}

// DeleteInviteCode removes a code.
//
//	DELETE /api/admin/invite-codes?id=
func (h *Handlers) DeleteInviteCode(w http.ResponseWriter, r *http.Request) {
	if err := h.invites.Delete(r.Context(), r.URL.Query().Get("id")); err != nil {
		respondServiceError(w, err, "Failed to delete invite code")
		return
	}
	httputil.Success(w)
}

// parseExpiry accepts RFC 3339 timestamps or plain dates. Empty means none.
func parseExpiry(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("expires_at must be a date or RFC 3339 timestamp")
}

package domain

import (
	"strings"
	"time"
)

// ApprovalEmailStatus is the denormalized "latest known" email status kept on
// a waitlist record.
type ApprovalEmailStatus string

const (
	ApprovalNotSent   ApprovalEmailStatus = "not_sent"
	ApprovalSent      ApprovalEmailStatus = "sent"
	ApprovalDelivered ApprovalEmailStatus = "delivered"
	ApprovalOpened    ApprovalEmailStatus = "opened"
	ApprovalFailed    ApprovalEmailStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s ApprovalEmailStatus) Valid() bool {
	switch s {
	case ApprovalNotSent, ApprovalSent, ApprovalDelivered, ApprovalOpened, ApprovalFailed:
		return true
	}
	return false
}

// WaitlistRecord is one waitlist signup and its beta approval state.
type WaitlistRecord struct {
	ID                  string              `json:"id" db:"id"`
	Email               string              `json:"email" db:"email"`
	Name                *string             `json:"name,omitempty" db:"name"`
	Source              *string             `json:"source,omitempty" db:"source"`
	CreatedAt           time.Time           `json:"created_at" db:"created_at"`
	IsBetaUser          bool                `json:"is_beta_user" db:"is_beta_user"`
	ApprovalEmailSentAt *time.Time          `json:"approval_email_sent_at,omitempty" db:"approval_email_sent_at"`
	ApprovalEmailStatus ApprovalEmailStatus `json:"approval_email_status" db:"approval_email_status"`
	ResendCount         int                 `json:"approval_email_resend_count" db:"approval_email_resend_count"`
	BetaInvitedAt       *time.Time          `json:"beta_invited_at,omitempty" db:"beta_invited_at"`
	BetaActivatedAt     *time.Time          `json:"beta_activated_at,omitempty" db:"beta_activated_at"`
}

// DisplayName returns the trimmed name, or fallback when the record has none.
func (w *WaitlistRecord) DisplayName(fallback string) string {
	if w.Name == nil {
		return fallback
	}
	if n := strings.TrimSpace(*w.Name); n != "" {
		return n
	}
	return fallback
}

// HasBeenSent reports whether a first approval email ever went out.
func (w *WaitlistRecord) HasBeenSent() bool {
	return w.ApprovalEmailSentAt != nil
}

// BetaUser is the admin list view of a waitlist record.
type BetaUser struct {
	ID                  string              `json:"id"`
	Email               string              `json:"email"`
	Name                *string             `json:"name"`
	Status              string              `json:"status"`
	JoinedDate          time.Time           `json:"joinedDate"`
	Source              string              `json:"source"`
	ApprovalEmailSentAt *time.Time          `json:"approvalEmailSentAt"`
	ApprovalEmailStatus ApprovalEmailStatus `json:"approvalEmailStatus"`
}

const (
	BetaStatusApproved = "approved"
	BetaStatusPending  = "pending"

	DefaultWaitlistSource = "Website"
)

// ToBetaUser converts a record into the list view, filling defaults.
func (w *WaitlistRecord) ToBetaUser() BetaUser {
	u := BetaUser{
		ID:                  w.ID,
		Email:               w.Email,
		Name:                w.Name,
		Status:              BetaStatusPending,
		JoinedDate:          w.CreatedAt,
		Source:              DefaultWaitlistSource,
		ApprovalEmailSentAt: w.ApprovalEmailSentAt,
		ApprovalEmailStatus: w.ApprovalEmailStatus,
	}
	if w.IsBetaUser {
		u.Status = BetaStatusApproved
	}
	if w.Source != nil && *w.Source != "" {
		u.Source = *w.Source
	}
	if u.ApprovalEmailStatus == "" {
		u.ApprovalEmailStatus = ApprovalNotSent
	}
	return u
}

package approval

import (
	"errors"
	"time"

	"github.com/agentdrop/admin-console/internal/email"
	"github.com/agentdrop/admin-console/internal/template"
)

// Sentinel errors for the approval workflow.
var (
	ErrInvalidRequest = errors.New("waitlist ID is required")
	ErrNotFound       = errors.New("user not found")
	ErrNotApproved    = errors.New("user is not approved for beta access")
	ErrAlreadySent    = errors.New("approval email already sent")
	ErrSendInProgress = errors.New("an email for this user is already being sent")
	ErrDispatchFailed = errors.New("email dispatch failed")

	// ErrTemplateMissing means the named email template could not be loaded.
	ErrTemplateMissing = template.ErrNotFound

	// ErrDispatcherNotConfigured means the provider credential is missing.
	ErrDispatcherNotConfigured = email.ErrNotConfigured
)

// AlreadySentError carries the original send time of a record whose first
// approval email already went out. It matches ErrAlreadySent.
type AlreadySentError struct {
	SentAt time.Time
}

func (e *AlreadySentError) Error() string { return ErrAlreadySent.Error() }

// Is lets errors.Is(err, ErrAlreadySent) match.
func (e *AlreadySentError) Is(target error) bool { return target == ErrAlreadySent }

package approval

import (
	"context"
	"time"

	"github.com/agentdrop/admin-console/internal/domain"
)

// WaitlistRepository is the slice of the waitlist store the workflow needs.
// Implementations must be safe for concurrent use.
type WaitlistRepository interface {
	// Get returns a record by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.WaitlistRecord, error)

	// MarkApprovalSent sets the status to sent, and sets the first-send time
	// when sentAt is non-nil.
	MarkApprovalSent(ctx context.Context, id string, sentAt *time.Time) error

	// NextResendCount atomically advances the record's resend counter and
	// returns the new value. The counter never falls behind the number of
	// resend entries already in the tracking log.
	NextResendCount(ctx context.Context, id string) (int, error)

	// AdvanceOpened moves records with this email (case-insensitive) from
	// sent to opened. Records in any other status are left alone.
	AdvanceOpened(ctx context.Context, email string) (bool, error)
}

// TrackingRepository is the email tracking log.
type TrackingRepository interface {
	// Append writes a new entry and returns its id.
	Append(ctx context.Context, e *domain.EmailTrackingEntry) (string, error)

	// CountResends counts entries of the given type marked as resends.
	CountResends(ctx context.Context, waitlistID string, emailType domain.EmailType) (int, error)

	// MarkLatestOpened sets opened_at and status=opened on the most recently
	// created unopened entry for the recipient (case-insensitive) and type.
	// It reports whether a row was updated.
	MarkLatestOpened(ctx context.Context, email string, emailType domain.EmailType, at time.Time) (bool, error)
}

// Dispatcher hands a rendered message to the email provider.
type Dispatcher interface {
	Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error)
}

// Renderer renders a named template with placeholder values.
type Renderer interface {
	Render(name string, vars map[string]string) (string, error)
}

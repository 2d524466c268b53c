package analytics

import (
	"context"
	"time"

	"github.com/agentdrop/admin-console/internal/domain"
)

// EmailEvent is the slice of a tracking log entry the reports need.
type EmailEvent struct {
	Status    domain.TrackingStatus
	IsResend  bool
	CreatedAt time.Time
}

// WaitlistCounts are whole-table waitlist counts.
type WaitlistCounts struct {
	Total     int
	Approved  int
	Pending   int
	Invited   int
	Activated int
}

// ProfileCounts are profile counts relative to the supplied cut-offs.
type ProfileCounts struct {
	Total        int
	Active       int // subscription expires after now
	SinceMonth   int // created at or after the month start
	SinceWeekAgo int // created at or after seven days ago
}

// ProfileWindow carries the cut-offs for ProfileCounts.
type ProfileWindow struct {
	Now        time.Time
	MonthStart time.Time
	WeekAgo    time.Time
}

// Repository reads the aggregates behind the reports.
type Repository interface {
	EmailEvents(ctx context.Context, emailType domain.EmailType) ([]EmailEvent, error)
	WaitlistCounts(ctx context.Context) (WaitlistCounts, error)
	ProfileCounts(ctx context.Context, w ProfileWindow) (ProfileCounts, error)
	// TopSources returns waitlist sources by signup count, largest first.
	// Records without a source are skipped.
	TopSources(ctx context.Context, limit int) ([]domain.ReferrerCount, error)
}

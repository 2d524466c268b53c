package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/service/analytics"
)

// StatsRepo implements analytics.Repository.
type StatsRepo struct{ db *sql.DB }

// NewStatsRepo creates the analytics read model.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

func (r *StatsRepo) EmailEvents(ctx context.Context, emailType domain.EmailType) ([]analytics.EmailEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COALESCE((metadata->>'is_resend')::boolean, false), created_at
		FROM email_tracking
		WHERE email_type = $1
	`, string(emailType))
	if err != nil {
		return nil, fmt.Errorf("email events: %w", err)
	}
	defer rows.Close()

	var out []analytics.EmailEvent
	for rows.Next() {
		var ev analytics.EmailEvent
		var status string
		if err := rows.Scan(&status, &ev.IsResend, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan email event: %w", err)
		}
		ev.Status = domain.TrackingStatus(status)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *StatsRepo) WaitlistCounts(ctx context.Context) (analytics.WaitlistCounts, error) {
	var c analytics.WaitlistCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_beta_user),
			COUNT(*) FILTER (WHERE NOT is_beta_user),
			COUNT(*) FILTER (WHERE beta_invited_at IS NOT NULL),
			COUNT(*) FILTER (WHERE beta_activated_at IS NOT NULL)
		FROM waitlist
	`).Scan(&c.Total, &c.Approved, &c.Pending, &c.Invited, &c.Activated)
	if err != nil {
		return c, fmt.Errorf("waitlist counts: %w", err)
	}
	return c, nil
}

func (r *StatsRepo) ProfileCounts(ctx context.Context, w analytics.ProfileWindow) (analytics.ProfileCounts, error) {
	var c analytics.ProfileCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE subscription_expires_at > $1),
			COUNT(*) FILTER (WHERE created_at >= $2),
			COUNT(*) FILTER (WHERE created_at >= $3)
		FROM profiles
	`, w.Now, w.MonthStart, w.WeekAgo).Scan(&c.Total, &c.Active, &c.SinceMonth, &c.SinceWeekAgo)
	if err != nil {
		return c, fmt.Errorf("profile counts: %w", err)
	}
	return c, nil
}

func (r *StatsRepo) TopSources(ctx context.Context, limit int) ([]domain.ReferrerCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source, COUNT(*) AS n
		FROM waitlist
		WHERE source IS NOT NULL AND source <> ''
		GROUP BY source
		ORDER BY n DESC, source
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top sources: %w", err)
	}
	defer rows.Close()

	var out []domain.ReferrerCount
	for rows.Next() {
		var rc domain.ReferrerCount
		if err := rows.Scan(&rc.Source, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

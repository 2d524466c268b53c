package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentdrop/admin-console/internal/domain"
)

// TrackingRepo implements approval.TrackingRepository on the email_tracking table.
type TrackingRepo struct{ db *sql.DB }

// NewTrackingRepo creates a Postgres-backed tracking log.
func NewTrackingRepo(db *sql.DB) *TrackingRepo { return &TrackingRepo{db: db} }

func (r *TrackingRepo) Append(ctx context.Context, e *domain.EmailTrackingEntry) (string, error) {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal tracking metadata: %w", err)
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var id string
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO email_tracking
			(waitlist_id, email_type, recipient_email, subject, resend_message_id,
			 status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
		RETURNING id
	`, e.WaitlistID, string(e.EmailType), e.RecipientEmail, e.Subject, e.ProviderMessageID,
		string(e.Status), string(meta), createdAt).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("append tracking entry: %w", err)
	}
	e.ID = id
	return id, nil
}

func (r *TrackingRepo) CountResends(ctx context.Context, waitlistID string, emailType domain.EmailType) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM email_tracking
		WHERE waitlist_id = $1 AND email_type = $2
		  AND (metadata->>'is_resend')::boolean IS TRUE
	`, waitlistID, string(emailType)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count resends: %w", err)
	}
	return n, nil
}

// MarkLatestOpened touches at most one row: the newest unopened entry.
func (r *TrackingRepo) MarkLatestOpened(ctx context.Context, email string, emailType domain.EmailType, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE email_tracking SET opened_at = $3, status = 'opened'
		WHERE id = (
			SELECT id FROM email_tracking
			WHERE lower(recipient_email) = lower($1)
			  AND email_type = $2
			  AND opened_at IS NULL
			ORDER BY created_at DESC
			LIMIT 1
		)
	`, email, string(emailType), at)
	if err != nil {
		return false, fmt.Errorf("mark opened: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

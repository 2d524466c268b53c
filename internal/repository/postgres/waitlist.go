package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/service/approval"
	"github.com/agentdrop/admin-console/internal/service/waitlist"
)

const waitlistColumns = `
	id, email, name, source, created_at, is_beta_user,
	approval_email_sent_at, COALESCE(approval_email_status, 'not_sent'),
	COALESCE(approval_email_resend_count, 0), beta_invited_at, beta_activated_at`

// WaitlistRepo implements approval.WaitlistRepository and waitlist.Repository.
type WaitlistRepo struct{ db *sql.DB }

// NewWaitlistRepo creates a Postgres-backed waitlist repository.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWaitlist(s rowScanner) (*domain.WaitlistRecord, error) {
	w := &domain.WaitlistRecord{}
	var name, source sql.NullString
	var sentAt, invitedAt, activatedAt sql.NullTime
	var status string
	if err := s.Scan(
		&w.ID, &w.Email, &name, &source, &w.CreatedAt, &w.IsBetaUser,
		&sentAt, &status, &w.ResendCount, &invitedAt, &activatedAt,
	); err != nil {
		return nil, err
	}
	w.Name = nullString(name)
	w.Source = nullString(source)
	w.ApprovalEmailSentAt = nullTime(sentAt)
	w.ApprovalEmailStatus = domain.ApprovalEmailStatus(status)
	if !w.ApprovalEmailStatus.Valid() {
		w.ApprovalEmailStatus = domain.ApprovalNotSent
	}
	w.BetaInvitedAt = nullTime(invitedAt)
	w.BetaActivatedAt = nullTime(activatedAt)
	return w, nil
}

func (r *WaitlistRepo) Get(ctx context.Context, id string) (*domain.WaitlistRecord, error) {
	w, err := scanWaitlist(r.db.QueryRowContext(ctx,
		`SELECT`+waitlistColumns+` FROM waitlist WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
		return nil, approval.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get waitlist record: %w", err)
	}
	return w, nil
}

func (r *WaitlistRepo) List(ctx context.Context) ([]domain.WaitlistRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+waitlistColumns+` FROM waitlist ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	defer rows.Close()

	var out []domain.WaitlistRecord
	for rows.Next() {
		w, err := scanWaitlist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist record: %w", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (r *WaitlistRepo) SetBetaUser(ctx context.Context, id string, approved bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE waitlist SET is_beta_user = $1 WHERE id = $2`, approved, id)
	if isInvalidText(err) {
		return waitlist.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("set beta user: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return waitlist.ErrNotFound
	}
	return nil
}

func (r *WaitlistRepo) MarkApprovalSent(ctx context.Context, id string, sentAt *time.Time) error {
	var ts sql.NullTime
	if sentAt != nil {
		ts = sql.NullTime{Time: *sentAt, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE waitlist
		SET approval_email_status = 'sent',
		    approval_email_sent_at = COALESCE($2::timestamptz, approval_email_sent_at)
		WHERE id = $1
	`, id, ts)
	if isInvalidText(err) {
		return approval.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mark approval sent: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return approval.ErrNotFound
	}
	return nil
}

// NextResendCount bumps the counter under the row lock taken by UPDATE, so
// concurrent resends get distinct values. The counter is first raised to the
// number of resend rows already logged.
func (r *WaitlistRepo) NextResendCount(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		UPDATE waitlist w
		SET approval_email_resend_count = GREATEST(
			COALESCE(w.approval_email_resend_count, 0),
			(SELECT COUNT(*) FROM email_tracking t
			 WHERE t.waitlist_id = w.id
			   AND t.email_type = 'beta_approval'
			   AND (t.metadata->>'is_resend')::boolean IS TRUE)
		) + 1
		WHERE w.id = $1
		RETURNING approval_email_resend_count
	`, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
		return 0, approval.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("next resend count: %w", err)
	}
	return n, nil
}

func (r *WaitlistRepo) AdvanceOpened(ctx context.Context, email string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE waitlist SET approval_email_status = 'opened'
		WHERE lower(email) = lower($1) AND approval_email_status = 'sent'
	`, email)
	if err != nil {
		return false, fmt.Errorf("advance opened: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

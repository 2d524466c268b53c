package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/service/invite"
)

const inviteColumns = `
	id, code, description, max_uses, COALESCE(used_count, 0), plan_type,
	duration_months, expires_at, is_active, created_by, created_at`

// pqUniqueViolation is the SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

// pqInvalidText is the SQLSTATE Postgres raises when a parameter cannot be
// parsed as the column type, e.g. a malformed UUID.
const pqInvalidText = "22P02"

// InviteRepo implements invite.Repository.
type InviteRepo struct{ db *sql.DB }

// NewInviteRepo creates a Postgres-backed invite code store.
func NewInviteRepo(db *sql.DB) *InviteRepo { return &InviteRepo{db: db} }

func scanInvite(s rowScanner) (*domain.InviteCode, error) {
	c := &domain.InviteCode{}
	var desc, createdBy sql.NullString
	var expires sql.NullTime
	if err := s.Scan(&c.ID, &c.Code, &desc, &c.MaxUses, &c.UsedCount, &c.PlanType,
		&c.DurationMonths, &expires, &c.IsActive, &createdBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Description = nullString(desc)
	c.CreatedBy = nullString(createdBy)
	c.ExpiresAt = nullTime(expires)
	c.Redemptions = []domain.InviteRedemption{}
	return c, nil
}

func (r *InviteRepo) List(ctx context.Context) ([]domain.InviteCode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+inviteColumns+` FROM invite_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invite codes: %w", err)
	}
	var out []domain.InviteCode
	index := map[string]int{}
	for rows.Next() {
		c, err := scanInvite(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan invite code: %w", err)
		}
		index[c.ID] = len(out)
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	for _, c := range out {
		ids = append(ids, c.ID)
	}
	rrows, err := r.db.QueryContext(ctx, `
		SELECT id, invite_code_id, user_email, redeemed_at, plan_granted, expires_at
		FROM invite_code_redemptions
		WHERE invite_code_id = ANY($1)
		ORDER BY redeemed_at
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rrows.Close()
	for rrows.Next() {
		var red domain.InviteRedemption
		var codeID string
		var expires sql.NullTime
		if err := rrows.Scan(&red.ID, &codeID, &red.UserEmail, &red.RedeemedAt, &red.PlanGranted, &expires); err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		red.ExpiresAt = nullTime(expires)
		if i, ok := index[codeID]; ok {
			out[i].Redemptions = append(out[i].Redemptions, red)
		}
	}
	return out, rrows.Err()
}

func (r *InviteRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM invite_codes WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invite code: %w", err)
	}
	return exists, nil
}

func (r *InviteRepo) Create(ctx context.Context, c *domain.InviteCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invite_codes
			(id, code, description, max_uses, used_count, plan_type,
			 duration_months, expires_at, is_active, created_by, created_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8, $9, $10)
	`, c.ID, c.Code, c.Description, c.MaxUses, c.PlanType,
		c.DurationMonths, c.ExpiresAt, c.IsActive, c.CreatedBy, c.CreatedAt)
	if isUniqueViolation(err) {
		return invite.ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("create invite code: %w", err)
	}
	return nil
}

func (r *InviteRepo) Update(ctx context.Context, id string, u invite.UpdateInput) (*domain.InviteCode, error) {
	sets := []string{}
	args := []any{}
	idx := 1
	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}
	if u.Code != nil {
		add("code", *u.Code)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.MaxUses != nil {
		add("max_uses", *u.MaxUses)
	}
	if u.PlanType != nil {
		add("plan_type", *u.PlanType)
	}
	if u.DurationMonths != nil {
		add("duration_months", *u.DurationMonths)
	}
	if u.ExpiresAt != nil {
		add("expires_at", *u.ExpiresAt)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}

	var q string
	if len(sets) == 0 {
		q = fmt.Sprintf(`SELECT%s FROM invite_codes WHERE id = $%d`, inviteColumns, idx)
	} else {
		q = fmt.Sprintf(`UPDATE invite_codes SET %s WHERE id = $%d RETURNING%s`,
			strings.Join(sets, ", "), idx, inviteColumns)
	}
	args = append(args, id)

	c, err := scanInvite(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
		return nil, invite.ErrNotFound
	}
	if isUniqueViolation(err) {
		return nil, invite.ErrDuplicateCode
	}
	if err != nil {
		return nil, fmt.Errorf("update invite code: %w", err)
	}
	return c, nil
}

func (r *InviteRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invite_codes WHERE id = $1`, id)
	if isInvalidText(err) {
		return invite.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete invite code: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return invite.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// isInvalidText reports a malformed id; such an id cannot name any row.
func isInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidText
}

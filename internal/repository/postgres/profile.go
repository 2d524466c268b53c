package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agentdrop/admin-console/internal/domain"
)

const profileColumns = `
	id, email, first_name, last_name, COALESCE(is_admin, false),
	subscription_plan, subscription_expires_at, created_at, updated_at`

// ProfileRepo reads application profiles.
type ProfileRepo struct{ db *sql.DB }

// NewProfileRepo creates a Postgres-backed profile reader.
func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

func scanProfile(s rowScanner) (*domain.Profile, error) {
	p := &domain.Profile{}
	var first, last, plan sql.NullString
	var expires, updated sql.NullTime
	if err := s.Scan(&p.ID, &p.Email, &first, &last, &p.IsAdmin,
		&plan, &expires, &p.CreatedAt, &updated); err != nil {
		return nil, err
	}
	p.FirstName = nullString(first)
	p.LastName = nullString(last)
	p.SubscriptionPlan = nullString(plan)
	p.SubscriptionExpiresAt = nullTime(expires)
	p.UpdatedAt = nullTime(updated)
	return p, nil
}

func (r *ProfileRepo) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ByID returns the profile with the given id, or domain.ErrProfileNotFound.
func (r *ProfileRepo) ByID(ctx context.Context, id string) (*domain.Profile, error) {
	return r.one(ctx, `SELECT`+profileColumns+` FROM profiles WHERE id = $1`, id)
}

// ByEmail matches case-insensitively.
func (r *ProfileRepo) ByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.one(ctx, `SELECT`+profileColumns+` FROM profiles WHERE lower(email) = lower($1) LIMIT 1`, email)
}

func (r *ProfileRepo) one(ctx context.Context, query string, arg any) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

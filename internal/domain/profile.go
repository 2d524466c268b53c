package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrProfileNotFound is returned when no profile matches a lookup.
var ErrProfileNotFound = errors.New("profile not found")

// Profile is an application user account.
type Profile struct {
	ID                    string     `json:"id" db:"id"`
	Email                 string     `json:"email" db:"email"`
	FirstName             *string    `json:"first_name,omitempty" db:"first_name"`
	LastName              *string    `json:"last_name,omitempty" db:"last_name"`
	IsAdmin               bool       `json:"is_admin" db:"is_admin"`
	SubscriptionPlan      *string    `json:"subscription_plan,omitempty" db:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty" db:"subscription_expires_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// FullName joins first and last name, skipping blanks.
func (p *Profile) FullName() string {
	var parts []string
	for _, s := range []*string{p.FirstName, p.LastName} {
		if s != nil && strings.TrimSpace(*s) != "" {
			parts = append(parts, strings.TrimSpace(*s))
		}
	}
	return strings.Join(parts, " ")
}

// HasActiveSubscription reports whether the subscription runs past now.
func (p *Profile) HasActiveSubscription(now time.Time) bool {
	return p.SubscriptionExpiresAt != nil && p.SubscriptionExpiresAt.After(now)
}

// UserSummary is the admin list view of a profile.
type UserSummary struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Role             string     `json:"role"`
	Status           string     `json:"status"`
	JoinedDate       time.Time  `json:"joinedDate"`
	LastActive       *time.Time `json:"lastActive"`
	SubscriptionPlan string     `json:"subscriptionPlan"`
	IsAdmin          bool       `json:"isAdmin"`
}

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"

	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"

	DefaultSubscriptionPlan = "Free"
	UnknownUserName         = "Unknown"
)

// ToUserSummary builds the list view.
func (p *Profile) ToUserSummary(now time.Time) UserSummary {
	s := UserSummary{
		ID:               p.ID,
		Email:            p.Email,
		Name:             p.FullName(),
		Role:             RoleUser,
		Status:           UserStatusInactive,
		JoinedDate:       p.CreatedAt,
		LastActive:       p.UpdatedAt,
		SubscriptionPlan: DefaultSubscriptionPlan,
		IsAdmin:          p.IsAdmin,
	}
	if s.Name == "" {
		s.Name = UnknownUserName
	}
	if p.IsAdmin {
		s.Role = RoleAdmin
	}
	if p.HasActiveSubscription(now) {
		s.Status = UserStatusActive
	}
	if p.SubscriptionPlan != nil && *p.SubscriptionPlan != "" {
		s.SubscriptionPlan = *p.SubscriptionPlan
	}
	return s
}

package domain

import "time"

// InviteCode grants a plan for a number of months when redeemed.
type InviteCode struct {
	ID             string             `json:"id" db:"id"`
	Code           string             `json:"code" db:"code"`
	Description    *string            `json:"description" db:"description"`
	MaxUses        int                `json:"max_uses" db:"max_uses"`
	UsedCount      int                `json:"used_count" db:"used_count"`
	PlanType       string             `json:"plan_type" db:"plan_type"`
	DurationMonths int                `json:"duration_months" db:"duration_months"`
	ExpiresAt      *time.Time         `json:"expires_at" db:"expires_at"`
	IsActive       bool               `json:"is_active" db:"is_active"`
	CreatedBy      *string            `json:"created_by" db:"created_by"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	Redemptions    []InviteRedemption `json:"invite_code_redemptions"`
}

// InviteRedemption records one use of an invite code.
type InviteRedemption struct {
	ID          string     `json:"id" db:"id"`
	UserEmail   string     `json:"user_email" db:"user_email"`
	RedeemedAt  time.Time  `json:"redeemed_at" db:"redeemed_at"`
	PlanGranted string     `json:"plan_granted" db:"plan_granted"`
	ExpiresAt   *time.Time `json:"expires_at" db:"expires_at"`
}

// Defaults applied to new invite codes.
const (
	DefaultInviteMaxUses        = 1
	DefaultInvitePlanType       = "pro"
	DefaultInviteDurationMonths = 1
)

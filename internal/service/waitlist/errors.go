package waitlist

import "errors"

// Sentinel errors for the waitlist service layer.
var (
	ErrInvalidRequest = errors.New("user ID is required")
	ErrInvalidAction  = errors.New("action must be approve or reject")
	ErrNotFound       = errors.New("waitlist entry not found")
)

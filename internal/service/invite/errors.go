package invite

import "errors"

// Sentinel errors for the invite code service layer.
var (
	ErrCodeRequired  = errors.New("invite code is required")
	ErrIDRequired    = errors.New("invite code id is required")
	ErrDuplicateCode = errors.New("invite code already exists")
	ErrNotFound      = errors.New("invite code not found")
	ErrInvalidInput  = errors.New("invalid invite code fields")
)

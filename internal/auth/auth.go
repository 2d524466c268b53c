// Package auth verifies hosted-provider session tokens and gates the admin
// API on the profile's admin flag.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrUnauthenticated means no valid session token was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the caller is signed in but is not an admin.
	ErrForbidden = errors.New("forbidden")
)

// Identity is the signed-in caller taken from a verified session token.
type Identity struct {
	UserID    string
	SessionID string
	Email     string
	Name      string
	ImageURL  string
	IsAdmin   bool
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by the middleware, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

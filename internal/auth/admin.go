package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/pkg/httputil"
	"github.com/agentdrop/admin-console/internal/pkg/logger"
)

// TokenVerifier turns a raw session token into an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ProfileLookup finds application profiles. Missing profiles are reported as
// domain.ErrProfileNotFound.
type ProfileLookup interface {
	ByID(ctx context.Context, id string) (*domain.Profile, error)
	ByEmail(ctx context.Context, email string) (*domain.Profile, error)
}

// AdminChecker resolves whether an identity belongs to an admin profile.
type AdminChecker struct {
	profiles ProfileLookup
}

// NewAdminChecker creates a checker over the profile store.
func NewAdminChecker(profiles ProfileLookup) *AdminChecker {
	return &AdminChecker{profiles: profiles}
}

// IsAdmin looks the profile up by user id, then by email.
func (c *AdminChecker) IsAdmin(ctx context.Context, id *Identity) (bool, error) {
	p, err := c.profiles.ByID(ctx, id.UserID)
	if errors.Is(err, domain.ErrProfileNotFound) && id.Email != "" {
		p, err = c.profiles.ByEmail(ctx, id.Email)
	}
	if errors.Is(err, domain.ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("admin lookup: %w", err)
	}
	return p.IsAdmin, nil
}

// Gate holds what the auth middleware needs. A nil verifier rejects every
// request.
type Gate struct {
	verifier   TokenVerifier
	checker    *AdminChecker
	cookieName string
}

// NewGate creates the request gate.
func NewGate(verifier TokenVerifier, checker *AdminChecker, cookieName string) *Gate {
	return &Gate{verifier: verifier, checker: checker, cookieName: cookieName}
}

// Authenticate verifies the request's session token.
func (g *Gate) Authenticate(r *http.Request) (*Identity, error) {
	if g.verifier == nil {
		return nil, ErrUnauthenticated
	}
	return g.verifier.Verify(r.Context(), TokenFromRequest(r, g.cookieName))
}

// RequireIdentity rejects requests without a valid session with 401.
func (g *Gate) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r)
		if err != nil {
			logger.Debug("auth: rejected request", "path", r.URL.Path, "error", err)
			httputil.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin rejects unauthenticated requests with 401 and non-admins
// with 403.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r)
		if err != nil {
			logger.Debug("auth: rejected request", "path", r.URL.Path, "error", err)
			httputil.Unauthorized(w)
			return
		}
		ok, err := g.checker.IsAdmin(r.Context(), id)
		if err != nil {
			httputil.InternalError(w, err, "")
			return
		}
		if !ok {
			logger.Warn("auth: non-admin denied", "user_id", id.UserID, "path", r.URL.Path)
			httputil.Forbidden(w)
			return
		}
		id.IsAdmin = true
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

type checkStatusResponse struct {
	Success   bool   `json:"success"`
	IsAdmin   bool   `json:"isAdmin"`
	UserID    string `json:"userId,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CheckStatus reports whether the caller is an admin. It answers 401 with
// isAdmin false when there is no session.
func (g *Gate) CheckStatus(w http.ResponseWriter, r *http.Request) {
	id, err := g.Authenticate(r)
	if err != nil {
		httputil.JSON(w, http.StatusUnauthorized, checkStatusResponse{Error: "No authenticated user"})
		return
	}
	ok, err := g.checker.IsAdmin(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err, "Failed to check admin status")
		return
	}
	httputil.OK(w, checkStatusResponse{Success: true, IsAdmin: ok, UserID: id.UserID, UserEmail: id.Email})
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/agentdrop/admin-console/internal/config"
	"github.com/agentdrop/admin-console/internal/pkg/httpretry"
	"github.com/agentdrop/admin-console/internal/pkg/logger"
)

// minRefetch bounds how often an unknown kid can force a JWKS fetch.
const minRefetch = 30 * time.Second

// Claims are the session token claims this service reads.
type Claims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks RS256 session tokens against the provider's JWKS.
// Keys are refreshed every cache TTL and on an unknown kid, at most once per
// minRefetch. Safe for concurrent use.
type Verifier struct {
	keys   keyfunc.Keyfunc
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// NewVerifier creates a verifier from cfg. The background refresh stops when
// ctx is done. client may be nil. An unreachable JWKS endpoint does not fail
// construction; tokens are rejected until a fetch succeeds.
func NewVerifier(ctx context.Context, cfg config.AuthConfig, client *http.Client) (*Verifier, error) {
	if cfg.JWKSURL == "" {
		return nil, errors.New("auth: jwks url is required")
	}
	if client == nil {
		client = &http.Client{
			Timeout:   10 * time.Second,
			Transport: httpretry.NewRetryClient(&http.Client{}, httpretry.Options{MaxRetries: 2}),
		}
	}
	ttl := cfg.JWKSCacheTTL()
	if ttl <= 0 {
		ttl = time.Hour
	}

	remote, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Client:                    client,
		Ctx:                       ctx,
		HTTPTimeout:               10 * time.Second,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           ttl,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Warn("auth: jwks refresh failed", "url", cfg.JWKSURL, "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("auth: jwks storage: %w", err)
	}
	storage, err := jwkset.NewHTTPClient(jwkset.HTTPClientOptions{
		HTTPURLs:          map[string]jwkset.Storage{cfg.JWKSURL: remote},
		RateLimitWaitMax:  time.Second,
		RefreshUnknownKID: rate.NewLimiter(rate.Every(minRefetch), 1),
	})
	if err != nil {
		return nil, fmt.Errorf("auth: jwks client: %w", err)
	}
	kf, err := keyfunc.New(keyfunc.Options{
		Ctx:          ctx,
		Storage:      storage,
		UseWhitelist: []jwkset.USE{jwkset.UseSig},
	})
	if err != nil {
		return nil, fmt.Errorf("auth: keyfunc: %w", err)
	}

	return &Verifier{
		keys:   kf,
		issuer: cfg.Issuer,
		leeway: time.Duration(cfg.ClockSkewSeconds) * time.Second,
		now:    time.Now,
	}, nil
}

// Verify parses and validates token, returning the caller's identity.
// Any failure is reported as ErrUnauthenticated wrapping the cause.
func (v *Verifier) Verify(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, v.keys.Keyfunc, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return &Identity{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
		Email:     claims.Email,
		Name:      claims.Name,
		ImageURL:  claims.ImageURL,
	}, nil
}

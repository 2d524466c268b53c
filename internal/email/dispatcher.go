// Package email sends rendered messages through a transactional email API.
// Resend is the default provider; SES and SendGrid are drop-in alternatives.
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentdrop/admin-console/internal/config"
	"github.com/agentdrop/admin-console/internal/domain"
)

// ErrNotConfigured is returned when the selected provider has no credential.
var ErrNotConfigured = errors.New("email provider not configured")

// Dispatcher hands one message to a provider.
type Dispatcher interface {
	Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error)
	// Configured reports whether the dispatcher holds a credential.
	Configured() bool
	Provider() domain.Provider
}

// New builds the dispatcher selected by cfg.Provider. When
// cfg.RequireCredentials is set a missing credential fails here instead of
// at the first send.
func New(ctx context.Context, cfg config.EmailConfig) (Dispatcher, error) {
	var d Dispatcher
	switch domain.Provider(cfg.Provider) {
	case domain.ProviderResend, "":
		d = NewResend(cfg.Resend.APIKey, cfg.Resend.BaseURL, cfg.DispatchTimeout())
	case domain.ProviderSES:
		s, err := NewSES(ctx, cfg.SES)
		if err != nil {
			return nil, err
		}
		d = s
	case domain.ProviderSendGrid:
		d = NewSendGrid(cfg.SendGrid.APIKey, "")
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}

	if cfg.RequireCredentials && !d.Configured() {
		return nil, fmt.Errorf("%s: %w", d.Provider(), ErrNotConfigured)
	}
	return d, nil
}

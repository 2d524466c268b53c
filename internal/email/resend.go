package email

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/pkg/logger"
)

// Resend sends through the Resend API.
type Resend struct {
	apiKey string
	client *resend.Client
}

// NewResend creates a Resend dispatcher. An empty baseURL uses the SDK's
// public endpoint.
func NewResend(apiKey, baseURL string, timeout time.Duration) *Resend {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resend.NewCustomClient(&http.Client{Timeout: timeout}, apiKey)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			logger.Warn("resend: ignoring invalid base url", "base_url", baseURL, "error", err)
		} else {
			client.BaseURL = u
		}
	}
	return &Resend{apiKey: apiKey, client: client}
}

// Configured reports whether an API key is set.
func (r *Resend) Configured() bool { return r.apiKey != "" }

// Provider returns domain.ProviderResend.
func (r *Resend) Provider() domain.Provider { return domain.ProviderResend }

// Send posts msg to the emails endpoint.
func (r *Resend) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	if r.apiKey == "" {
		return nil, fmt.Errorf("resend: %w", ErrNotConfigured)
	}

	params := &resend.SendEmailRequest{
		From:    msg.From(),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		Headers: msg.Headers,
	}
	if len(msg.Tags) > 0 {
		names := make([]string, 0, len(msg.Tags))
		for k := range msg.Tags {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			params.Tags = append(params.Tags, resend.Tag{Name: k, Value: msg.Tags[k]})
		}
	}

	sent, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("resend: send: %w", err)
	}

	logger.Debug("resend accepted message", "recipient", msg.To, "message_id", sent.Id)
	return &domain.SendResult{MessageID: sent.Id, Provider: domain.ProviderResend, SentAt: time.Now().UTC()}, nil
}

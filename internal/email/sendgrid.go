package email

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/pkg/logger"
)

const sendGridHost = "https://api.sendgrid.com"

// SendGrid sends through the SendGrid v3 Mail Send API.
type SendGrid struct {
	apiKey string
	host   string
}

// NewSendGrid creates a SendGrid dispatcher. An empty host uses the public API.
func NewSendGrid(apiKey, host string) *SendGrid {
	if host == "" {
		host = sendGridHost
	}
	return &SendGrid{apiKey: apiKey, host: host}
}

// Configured reports whether an API key is set.
func (s *SendGrid) Configured() bool { return s.apiKey != "" }

// Provider returns domain.ProviderSendGrid.
func (s *SendGrid) Provider() domain.Provider { return domain.ProviderSendGrid }

// Send delivers msg. Tags become custom args so they come back on events.
func (s *SendGrid) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("sendgrid: %w", ErrNotConfigured)
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(msg.FromName, msg.FromEmail))
	m.Subject = msg.Subject
	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.ToName, msg.To))
	m.AddPersonalizations(p)
	if msg.Text != "" {
		m.AddContent(mail.NewContent("text/plain", msg.Text))
	}
	m.AddContent(mail.NewContent("text/html", msg.HTML))
	for k, v := range msg.Headers {
		m.SetHeader(k, v)
	}
	for k, v := range msg.Tags {
		m.SetCustomArg(k, v)
	}

	req := sendgrid.GetRequest(s.apiKey, "/v3/mail/send", s.host)
	req.Method = http.MethodPost
	req.Body = mail.GetRequestBody(m)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sendgrid: %d: %s", resp.StatusCode, resp.Body)
	}

	var id string
	if v := resp.Headers["X-Message-Id"]; len(v) > 0 {
		id = v[0]
	}
	logger.Debug("sendgrid accepted message", "recipient", msg.To, "message_id", id)
	return &domain.SendResult{MessageID: id, Provider: domain.ProviderSendGrid, SentAt: time.Now().UTC()}, nil
}

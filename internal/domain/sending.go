package domain

import "time"

// Provider identifies the transactional email API that dispatched a message.
type Provider string

const (
	ProviderResend   Provider = "resend"
	ProviderSES      Provider = "ses"
	ProviderSendGrid Provider = "sendgrid"
)

// EmailMessage is a fully rendered message ready for a dispatcher.
type EmailMessage struct {
	FromName  string            `json:"from_name"`
	FromEmail string            `json:"from_email"`
	To        string            `json:"to"`
	ToName    string            `json:"to_name,omitempty"`
	Subject   string            `json:"subject"`
	HTML      string            `json:"html"`
	Text      string            `json:"text,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// From formats the sender as "Name <address>".
func (m *EmailMessage) From() string {
	if m.FromName == "" {
		return m.FromEmail
	}
	return m.FromName + " <" + m.FromEmail + ">"
}

// SendResult is what a dispatcher reports after the provider accepted a message.
type SendResult struct {
	MessageID string    `json:"message_id"`
	Provider  Provider  `json:"provider"`
	SentAt    time.Time `json:"sent_at"`
}

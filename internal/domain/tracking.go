package domain

import (
	"encoding/json"
	"time"
)

// EmailType tags which workflow produced a tracking log entry.
type EmailType string

const (
	EmailTypeBetaApproval  EmailType = "beta_approval"
	EmailTypeBetaRejection EmailType = "beta_rejection"
)

// Known reports whether t is one of the workflow email types.
func (t EmailType) Known() bool {
	return t == EmailTypeBetaApproval || t == EmailTypeBetaRejection
}

// TrackingStatus is the per-attempt status of a tracking log entry.
type TrackingStatus string

const (
	TrackingSent      TrackingStatus = "sent"
	TrackingDelivered TrackingStatus = "delivered"
	TrackingOpened    TrackingStatus = "opened"
	TrackingFailed    TrackingStatus = "failed"
)

// EmailTrackingEntry is one row of the append-only email tracking log.
// Only OpenedAt and Status change after the row is written.
type EmailTrackingEntry struct {
	ID                string           `json:"id" db:"id"`
	WaitlistID        string           `json:"waitlist_id" db:"waitlist_id"`
	EmailType         EmailType        `json:"email_type" db:"email_type"`
	RecipientEmail    string           `json:"recipient_email" db:"recipient_email"`
	Subject           string           `json:"subject" db:"subject"`
	ProviderMessageID *string          `json:"resend_message_id,omitempty" db:"resend_message_id"`
	Status            TrackingStatus   `json:"status" db:"status"`
	Metadata          TrackingMetadata `json:"metadata" db:"metadata"`
	OpenedAt          *time.Time       `json:"opened_at,omitempty" db:"opened_at"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
}

// TrackingMetadata is the structured metadata stored with each tracking entry.
// Extra keys are flattened next to the fixed ones in the stored JSON object.
type TrackingMetadata struct {
	IsResend       bool
	OriginalSentAt *time.Time
	ResendCount    int
	Extra          map[string]any
}

const (
	metaIsResend       = "is_resend"
	metaOriginalSentAt = "original_sent_at"
	metaResendCount    = "resend_count"
)

// MarshalJSON writes the fixed keys plus any extras as a single object.
func (m TrackingMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+3)
	for k, v := range m.Extra {
		out[k] = v
	}
	out[metaIsResend] = m.IsResend
	out[metaResendCount] = m.ResendCount
	if m.OriginalSentAt != nil {
		out[metaOriginalSentAt] = m.OriginalSentAt.UTC().Format(time.RFC3339Nano)
	} else {
		out[metaOriginalSentAt] = nil
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the fixed keys and keeps everything else in Extra.
// Rows written before the metadata had a fixed shape may lack any key.
func (m *TrackingMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = TrackingMetadata{}
	for k, v := range raw {
		switch k {
		case metaIsResend:
			if err := json.Unmarshal(v, &m.IsResend); err != nil {
				return err
			}
		case metaResendCount:
			if err := json.Unmarshal(v, &m.ResendCount); err != nil {
				return err
			}
		case metaOriginalSentAt:
			var ts *time.Time
			if err := json.Unmarshal(v, &ts); err != nil {
				return err
			}
			m.OriginalSentAt = ts
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[k] = val
		}
	}
	return nil
}

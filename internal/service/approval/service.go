package approval

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/pkg/distlock"
	"github.com/agentdrop/admin-console/internal/pkg/logger"
	"github.com/agentdrop/admin-console/internal/pkg/metrics"
)

// Template names and placeholders.
const (
	TemplateApproval  = "beta-approval-email"
	TemplateRejection = "beta-rejection-email"

	VarUserName    = "USER_NAME"
	VarSignupURL   = "SIGNUP_URL"
	VarTrackingURL = "TRACKING_URL"

	// DefaultDisplayName greets recipients who never gave a name.
	DefaultDisplayName = "there"

	// TrackOpenPath is where the open-tracking beacon is served.
	TrackOpenPath = "/api/email/track-open"

	fallbackBaseURL        = "http://localhost:3001"
	defaultDispatchTimeout = 10 * time.Second
	bookkeepingTimeout     = 10 * time.Second
)

// Options configure the workflow. Zero values get sensible defaults.
type Options struct {
	FromName         string
	FromEmail        string
	ApprovalSubject  string
	RejectionSubject string
	SignupURL        string
	// DefaultBaseURL is the admin origin used for tracking links when the
	// request does not carry one.
	DefaultBaseURL  string
	DispatchTimeout time.Duration

	// Locks serializes sends per waitlist record across instances. Optional.
	Locks   distlock.Factory
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// SendRequest asks for an approval email to one waitlist record.
type SendRequest struct {
	WaitlistID string
	IsResend   bool
	// BaseURL is the admin origin that served the request, e.g.
	// "https://admin.agentdrop.io". Used to build the tracking pixel link.
	BaseURL string
}

// SendResult describes an email the provider accepted.
type SendResult struct {
	EmailID     string    `json:"emailId"`
	SentAt      time.Time `json:"sentAt"`
	IsResend    bool      `json:"isResend"`
	ResendCount int       `json:"resendCount"`
}

// OpenResult reports what a beacon hit changed.
type OpenResult struct {
	EntryMarked    bool
	RecordAdvanced bool
}

// Service is the approval email workflow. It holds no mutable state and is
// safe for concurrent use when its collaborators are.
type Service struct {
	waitlist   WaitlistRepository
	tracking   TrackingRepository
	dispatcher Dispatcher
	renderer   Renderer
	opts       Options
	log        *logger.Logger
}

// NewService wires the workflow to its collaborators.
func NewService(waitlist WaitlistRepository, tracking TrackingRepository, dispatcher Dispatcher, renderer Renderer, opts Options) *Service {
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = defaultDispatchTimeout
	}
	if opts.DefaultBaseURL == "" {
		opts.DefaultBaseURL = fallbackBaseURL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		waitlist:   waitlist,
		tracking:   tracking,
		dispatcher: dispatcher,
		renderer:   renderer,
		opts:       opts,
		log:        logger.With("component", "approval"),
	}
}

// Send delivers the approval email for req.WaitlistID.
//
// Validation order: missing id, unknown record, record not approved, then
// (first sends only) an approval email already sent. Nothing is written
// unless the provider accepts the message.
func (s *Service) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	id := strings.TrimSpace(req.WaitlistID)
	if id == "" {
		return nil, ErrInvalidRequest
	}

	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := s.waitlist.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load waitlist record: %w", err)
	}
	if !rec.IsBetaUser {
		return nil, ErrNotApproved
	}
	if !req.IsResend && rec.HasBeenSent() {
		return nil, &AlreadySentError{SentAt: *rec.ApprovalEmailSentAt}
	}

	name := rec.DisplayName(DefaultDisplayName)
	html, err := s.renderer.Render(TemplateApproval, map[string]string{
		VarUserName:    name,
		VarSignupURL:   s.opts.SignupURL,
		VarTrackingURL: s.trackingURL(req.BaseURL, rec.Email, domain.EmailTypeBetaApproval),
	})
	if err != nil {
		return nil, fmt.Errorf("render approval email: %w", err)
	}

	msg := s.message(rec.Email, name, s.opts.ApprovalSubject, html, domain.EmailTypeBetaApproval)
	res, err := s.dispatch(ctx, msg, domain.EmailTypeBetaApproval)
	if err != nil {
		return nil, err
	}
	sentAt := s.opts.Now().UTC()
	if s.opts.Metrics != nil {
		s.opts.Metrics.EmailsSent.WithLabelValues(string(domain.EmailTypeBetaApproval), strconv.FormatBool(req.IsResend)).Inc()
	}

	// The message is out. From here on failures are logged, not returned.
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	resendCount := 1
	var originalSentAt *time.Time
	if req.IsResend {
		resendCount = s.nextResendCount(bctx, id)
		originalSentAt = rec.ApprovalEmailSentAt
	}

	entry := &domain.EmailTrackingEntry{
		WaitlistID:     id,
		EmailType:      domain.EmailTypeBetaApproval,
		RecipientEmail: rec.Email,
		Subject:        msg.Subject,
		Status:         domain.TrackingSent,
		Metadata: domain.TrackingMetadata{
			IsResend:       req.IsResend,
			OriginalSentAt: originalSentAt,
			ResendCount:    resendCount,
			Extra: map[string]any{
				"name":       name,
				"signup_url": s.opts.SignupURL,
			},
		},
		CreatedAt: sentAt,
	}
	if res.MessageID != "" {
		mid := res.MessageID
		entry.ProviderMessageID = &mid
	}
	if _, err := s.tracking.Append(bctx, entry); err != nil {
		s.bookkeepingFailed("tracking_log", id, err)
	}

	var firstSentAt *time.Time
	if !req.IsResend {
		firstSentAt = &sentAt
	}
	if err := s.waitlist.MarkApprovalSent(bctx, id, firstSentAt); err != nil {
		s.bookkeepingFailed("waitlist_status", id, err)
	}

	s.log.Info("approval email sent", "waitlist_id", id, "email", rec.Email,
		"message_id", res.MessageID, "resend", req.IsResend, "resend_count", resendCount)

	return &SendResult{
		EmailID:     res.MessageID,
		SentAt:      sentAt,
		IsResend:    req.IsResend,
		ResendCount: resendCount,
	}, nil
}

// SendRejection emails a waitlist signup that was not accepted into the beta.
// It logs a beta_rejection tracking entry and leaves approval fields untouched.
func (s *Service) SendRejection(ctx context.Context, waitlistID, baseURL string) (*SendResult, error) {
	id := strings.TrimSpace(waitlistID)
	if id == "" {
		return nil, ErrInvalidRequest
	}
	rec, err := s.waitlist.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load waitlist record: %w", err)
	}

	name := rec.DisplayName(DefaultDisplayName)
	html, err := s.renderer.Render(TemplateRejection, map[string]string{
		VarUserName:    name,
		VarTrackingURL: s.trackingURL(baseURL, rec.Email, domain.EmailTypeBetaRejection),
	})
	if err != nil {
		return nil, fmt.Errorf("render rejection email: %w", err)
	}

	msg := s.message(rec.Email, name, s.opts.RejectionSubject, html, domain.EmailTypeBetaRejection)
	res, err := s.dispatch(ctx, msg, domain.EmailTypeBetaRejection)
	if err != nil {
		return nil, err
	}
	sentAt := s.opts.Now().UTC()
	if s.opts.Metrics != nil {
		s.opts.Metrics.EmailsSent.WithLabelValues(string(domain.EmailTypeBetaRejection), "false").Inc()
	}

	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()
	entry := &domain.EmailTrackingEntry{
		WaitlistID:     id,
		EmailType:      domain.EmailTypeBetaRejection,
		RecipientEmail: rec.Email,
		Subject:        msg.Subject,
		Status:         domain.TrackingSent,
		Metadata: domain.TrackingMetadata{
			ResendCount: 1,
			Extra:       map[string]any{"name": name},
		},
		CreatedAt: sentAt,
	}
	if res.MessageID != "" {
		mid := res.MessageID
		entry.ProviderMessageID = &mid
	}
	if _, err := s.tracking.Append(bctx, entry); err != nil {
		s.bookkeepingFailed("tracking_log", id, err)
	}

	return &SendResult{EmailID: res.MessageID, SentAt: sentAt, ResendCount: 1}, nil
}

// RecordOpen applies an open-tracking beacon hit. It never fails: missing
// parameters are ignored and store errors are logged.
func (s *Service) RecordOpen(ctx context.Context, email, emailType string) OpenResult {
	var out OpenResult
	email = strings.TrimSpace(email)
	emailType = strings.TrimSpace(emailType)
	if email == "" || emailType == "" {
		return out
	}
	typ := domain.EmailType(emailType)

	marked, err := s.tracking.MarkLatestOpened(ctx, email, typ, s.opts.Now().UTC())
	if err != nil {
		s.log.Warn("open tracking: update log entry", "email", email, "type", emailType, "error", err)
	}
	out.EntryMarked = marked

	if typ == domain.EmailTypeBetaApproval {
		advanced, err := s.waitlist.AdvanceOpened(ctx, email)
		if err != nil {
			s.log.Warn("open tracking: update waitlist status", "email", email, "error", err)
		}
		out.RecordAdvanced = advanced
	}

	if s.opts.Metrics != nil {
		outcome := "unmatched"
		if out.EntryMarked || out.RecordAdvanced {
			outcome = "recorded"
		}
		// The type comes straight from an unauthenticated query string.
		label := emailType
		if !typ.Known() {
			label = "other"
		}
		s.opts.Metrics.OpensRecorded.WithLabelValues(label, outcome).Inc()
	}
	return out
}

// CountResends returns how many approval emails to this record were resends.
// Store errors count as zero.
func (s *Service) CountResends(ctx context.Context, waitlistID string) int {
	n, err := s.tracking.CountResends(ctx, waitlistID, domain.EmailTypeBetaApproval)
	if err != nil {
		s.log.Warn("count resends", "waitlist_id", waitlistID, "error", err)
		return 0
	}
	return n
}

// nextResendCount prefers the atomic counter and falls back to counting the
// log when the counter cannot be advanced.
func (s *Service) nextResendCount(ctx context.Context, id string) int {
	n, err := s.waitlist.NextResendCount(ctx, id)
	if err == nil && n > 0 {
		return n
	}
	if err != nil {
		s.log.Warn("advance resend counter", "waitlist_id", id, "error", err)
	}
	return s.CountResends(ctx, id) + 1
}

func (s *Service) dispatch(ctx context.Context, msg *domain.EmailMessage, typ domain.EmailType) (*domain.SendResult, error) {
	dctx, cancel := context.WithTimeout(ctx, s.opts.DispatchTimeout)
	defer cancel()

	res, err := s.dispatcher.Send(dctx, msg)
	if err != nil {
		if errors.Is(err, ErrDispatcherNotConfigured) {
			return nil, err
		}
		if s.opts.Metrics != nil {
			s.opts.Metrics.DispatchFailures.WithLabelValues(string(typ)).Inc()
		}
		s.log.Error("email dispatch failed", "email", msg.To, "type", string(typ), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	if res == nil {
		res = &domain.SendResult{}
	}
	return res, nil
}

func (s *Service) message(to, name, subject, html string, typ domain.EmailType) *domain.EmailMessage {
	return &domain.EmailMessage{
		FromName:  s.opts.FromName,
		FromEmail: s.opts.FromEmail,
		To:        to,
		ToName:    name,
		Subject:   subject,
		HTML:      html,
		Headers:   map[string]string{"X-Entity-Ref-ID": to},
		Tags:      map[string]string{"email_type": string(typ)},
	}
}

// trackingURL builds the beacon link embedded in the email body.
func (s *Service) trackingURL(baseURL, email string, typ domain.EmailType) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = strings.TrimRight(s.opts.DefaultBaseURL, "/")
	}
	q := url.Values{}
	q.Set("email", email)
	q.Set("type", string(typ))
	return base + TrackOpenPath + "?" + q.Encode()
}

// lock takes the per-record send lock when one is configured. A lock backend
// outage does not block sends.
func (s *Service) lock(ctx context.Context, id string) (func(), error) {
	noop := func() {}
	if s.opts.Locks == nil {
		return noop, nil
	}
	l := s.opts.Locks.New(id)
	ok, err := l.Acquire(ctx)
	if err != nil {
		s.log.Warn("send lock unavailable, continuing without it", "waitlist_id", id, "error", err)
		return noop, nil
	}
	if !ok {
		if s.opts.Metrics != nil {
			s.opts.Metrics.SendLockContentions.Inc()
		}
		return nil, ErrSendInProgress
	}
	return func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("release send lock", "waitlist_id", id, "error", err)
		}
	}, nil
}

func (s *Service) bookkeepingFailed(step, id string, err error) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.BookkeepingFailures.WithLabelValues(step).Inc()
	}
	s.log.Error("post-dispatch write failed", "step", step, "waitlist_id", id, "error", err)
}

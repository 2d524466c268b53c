package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/agentdrop/admin-console/internal/domain"
)

const (
	recentDays   = 7
	topReferrers = 5
)

// Service builds the dashboard reports.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an analytics service. now may be nil.
func NewService(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// EmailAnalytics summarizes every approval email ever logged plus a
// seven-day daily breakdown, oldest day first.
func (s *Service) EmailAnalytics(ctx context.Context) (*domain.EmailAnalytics, error) {
	events, err := s.repo.EmailEvents(ctx, domain.EmailTypeBetaApproval)
	if err != nil {
		return nil, fmt.Errorf("load email events: %w", err)
	}

	var st domain.EmailStatistics
	st.Total = len(events)
	for _, e := range events {
		switch e.Status {
		case domain.TrackingSent:
			st.Sent++
		case domain.TrackingDelivered:
			st.Delivered++
		case domain.TrackingOpened:
			st.Opened++
		case domain.TrackingFailed:
			st.Failed++
		}
		if e.IsResend {
			st.ResendEmails++
		}
	}
	st.FirstTimeEmails = st.Total - st.ResendEmails
	st.DeliveryRate = percent(st.Delivered, st.Total)
	st.OpenRate = percent(st.Opened, st.Delivered)
	st.FailureRate = percent(st.Failed, st.Total)

	now := s.now().UTC()
	since := now.AddDate(0, 0, -recentDays)
	byDay := make(map[string]int)
	recent := 0
	for _, e := range events {
		if e.CreatedAt.Before(since) {
			continue
		}
		recent++
		byDay[e.CreatedAt.UTC().Format(time.DateOnly)]++
	}
	daily := make([]domain.DailyCount, 0, recentDays)
	for i := recentDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(time.DateOnly)
		daily = append(daily, domain.DailyCount{Date: day, Count: byDay[day]})
	}

	return &domain.EmailAnalytics{
		Statistics:     st,
		RecentActivity: domain.RecentEmailActivity{Last7Days: recent, DailyStats: daily},
	}, nil
}

// DashboardStats returns the admin home page counters.
func (s *Service) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	wc, err := s.repo.WaitlistCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("waitlist counts: %w", err)
	}
	pc, err := s.repo.ProfileCounts(ctx, s.window())
	if err != nil {
		return nil, fmt.Errorf("profile counts: %w", err)
	}
	return &domain.DashboardStats{
		TotalUsers:     pc.Total,
		TotalWaitlist:  wc.Total,
		BetaInvited:    wc.Invited,
		BetaActivated:  wc.Activated,
		ConversionRate: ratio(wc.Activated, wc.Invited),
		RecentSignups:  pc.SinceWeekAgo,
	}, nil
}

// Analytics returns the growth report.
func (s *Service) Analytics(ctx context.Context) (*domain.Analytics, error) {
	wc, err := s.repo.WaitlistCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("waitlist counts: %w", err)
	}
	pc, err := s.repo.ProfileCounts(ctx, s.window())
	if err != nil {
		return nil, fmt.Errorf("profile counts: %w", err)
	}
	top, err := s.repo.TopSources(ctx, topReferrers)
	if err != nil {
		return nil, fmt.Errorf("top sources: %w", err)
	}
	if top == nil {
		top = []domain.ReferrerCount{}
	}
	return &domain.Analytics{
		TotalUsers:     pc.Total,
		ActiveUsers:    pc.Active,
		NewUsers:       pc.SinceMonth,
		ConversionRate: ratio(wc.Approved, wc.Total),
		TotalWaitlist:  wc.Total,
		ApprovedUsers:  wc.Approved,
		PendingUsers:   wc.Pending,
		RecentActivity: pc.SinceWeekAgo,
		TopReferrers:   top,
	}, nil
}

func (s *Service) window() ProfileWindow {
	now := s.now()
	return ProfileWindow{
		Now:        now,
		MonthStart: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		WeekAgo:    now.AddDate(0, 0, -recentDays),
	}
}

// percent is part/whole*100 rounded to two decimals, or 0 for an empty whole.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*100*100) / 100
}

// ratio formats part/whole as a percentage string with two decimals, or "0".
func ratio(part, whole int) string {
	if whole <= 0 {
		return "0"
	}
	return fmt.Sprintf("%.2f", float64(part)/float64(whole)*100)
}

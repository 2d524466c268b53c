package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/service/analytics"
)

type fakeRepo struct {
	events   []analytics.EmailEvent
	waitlist analytics.WaitlistCounts
	profiles analytics.ProfileCounts
	sources  []domain.ReferrerCount
	err      error

	gotType   domain.EmailType
	gotWindow analytics.ProfileWindow
	gotLimit  int
}

func (f *fakeRepo) EmailEvents(_ context.Context, typ domain.EmailType) ([]analytics.EmailEvent, error) {
	f.gotType = typ
	return f.events, f.err
}

func (f *fakeRepo) WaitlistCounts(context.Context) (analytics.WaitlistCounts, error) {
	return f.waitlist, f.err
}

func (f *fakeRepo) ProfileCounts(_ context.Context, w analytics.ProfileWindow) (analytics.ProfileCounts, error) {
	f.gotWindow = w
	return f.profiles, f.err
}

func (f *fakeRepo) TopSources(_ context.Context, limit int) ([]domain.ReferrerCount, error) {
	f.gotLimit = limit
	return f.sources, f.err
}

var now = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

func TestEmailAnalytics(t *testing.T) {
	repo := &fakeRepo{events: []analytics.EmailEvent{
		{Status: domain.TrackingSent, CreatedAt: now.Add(-time.Hour)},
		{Status: domain.TrackingDelivered, CreatedAt: now.Add(-24 * time.Hour)},
		{Status: domain.TrackingOpened, IsResend: true, CreatedAt: now.Add(-26 * time.Hour)},
		{Status: domain.TrackingFailed, CreatedAt: now.AddDate(0, 0, -30)},
		{Status: domain.TrackingDelivered, IsResend: true, CreatedAt: now.AddDate(0, 0, -6)},
		{Status: domain.TrackingOpened, CreatedAt: now.AddDate(0, 0, -8)},
	}}
	svc := analytics.NewService(repo, fixedNow)

	got, err := svc.EmailAnalytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.EmailTypeBetaApproval, repo.gotType)

	st := got.Statistics
	assert.Equal(t, 6, st.Total)
	assert.Equal(t, 1, st.Sent)
	assert.Equal(t, 2, st.Delivered)
	assert.Equal(t, 2, st.Opened)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 2, st.ResendEmails)
	assert.Equal(t, 4, st.FirstTimeEmails)
	assert.InDelta(t, 33.33, st.DeliveryRate, 1e-9)
	assert.InDelta(t, 100.0, st.OpenRate, 1e-9)
	assert.InDelta(t, 16.67, st.FailureRate, 1e-9)

	assert.Equal(t, 4, got.RecentActivity.Last7Days)
	assert.Equal(t, []domain.DailyCount{
		{Date: "2025-05-04", Count: 1},
		{Date: "2025-05-05", Count: 0},
		{Date: "2025-05-06", Count: 0},
		{Date: "2025-05-07", Count: 0},
		{Date: "2025-05-08", Count: 0},
		{Date: "2025-05-09", Count: 2},
		{Date: "2025-05-10", Count: 1},
	}, got.RecentActivity.DailyStats)
}

func TestEmailAnalytics_Empty(t *testing.T) {
	got, err := analytics.NewService(&fakeRepo{}, fixedNow).EmailAnalytics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got.Statistics.DeliveryRate)
	assert.Zero(t, got.Statistics.OpenRate)
	assert.Zero(t, got.Statistics.FailureRate)
	assert.Len(t, got.RecentActivity.DailyStats, 7)
}

func TestDashboardStats(t *testing.T) {
	repo := &fakeRepo{
		waitlist: analytics.WaitlistCounts{Total: 10, Approved: 4, Pending: 6, Invited: 3, Activated: 1},
		profiles: analytics.ProfileCounts{Total: 25, Active: 5, SinceMonth: 7, SinceWeekAgo: 2},
	}
	got, err := analytics.NewService(repo, fixedNow).DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &domain.DashboardStats{
		TotalUsers:     25,
		TotalWaitlist:  10,
		BetaInvited:    3,
		BetaActivated:  1,
		ConversionRate: "33.33",
		RecentSignups:  2,
	}, got)

	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), repo.gotWindow.MonthStart)
	assert.Equal(t, now.AddDate(0, 0, -7), repo.gotWindow.WeekAgo)
}

func TestAnalytics(t *testing.T) {
	repo := &fakeRepo{
		waitlist: analytics.WaitlistCounts{Total: 10, Approved: 4, Pending: 6},
		profiles: analytics.ProfileCounts{Total: 25, Active: 5, SinceMonth: 7, SinceWeekAgo: 2},
		sources:  []domain.ReferrerCount{{Source: "Twitter", Count: 6}, {Source: "Website", Count: 3}},
	}
	got, err := analytics.NewService(repo, fixedNow).Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "40.00", got.ConversionRate)
	assert.Equal(t, 5, got.ActiveUsers)
	assert.Equal(t, 7, got.NewUsers)
	assert.Equal(t, 2, got.RecentActivity)
	assert.Equal(t, 6, got.PendingUsers)
	assert.Equal(t, 5, repo.gotLimit)
	assert.Len(t, got.TopReferrers, 2)
}

func TestAnalytics_EmptyTables(t *testing.T) {
	got, err := analytics.NewService(&fakeRepo{}, fixedNow).Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0", got.ConversionRate)
	assert.NotNil(t, got.TopReferrers)

	stats, err := analytics.NewService(&fakeRepo{}, fixedNow).DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0", stats.ConversionRate)
}

func TestReportsPropagateErrors(t *testing.T) {
	svc := analytics.NewService(&fakeRepo{err: errors.New("db down")}, fixedNow)
	ctx := context.Background()

	_, err := svc.EmailAnalytics(ctx)
	assert.Error(t, err)
	_, err = svc.DashboardStats(ctx)
	assert.Error(t, err)
	_, err = svc.Analytics(ctx)
	assert.Error(t, err)
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/service/analytics"
)

func TestStatsRepo_EmailEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	at := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM email_tracking").
		WithArgs("beta_approval").
		WillReturnRows(sqlmock.NewRows([]string{"status", "is_resend", "created_at"}).
			AddRow("sent", false, at).
			AddRow("opened", true, at))

	out, err := NewStatsRepo(db).EmailEvents(context.Background(), domain.EmailTypeBetaApproval)
	require.NoError(t, err)
	assert.Equal(t, []analytics.EmailEvent{
		{Status: domain.TrackingSent, CreatedAt: at},
		{Status: domain.TrackingOpened, IsResend: true, CreatedAt: at},
	}, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_Counts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewStatsRepo(db)

	mock.ExpectQuery("FROM waitlist").
		WillReturnRows(sqlmock.NewRows([]string{"total", "approved", "pending", "invited", "activated"}).
			AddRow(10, 4, 6, 3, 1))
	wc, err := repo.WaitlistCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, analytics.WaitlistCounts{Total: 10, Approved: 4, Pending: 6, Invited: 3, Activated: 1}, wc)

	w := analytics.ProfileWindow{
		Now:        time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		MonthStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		WeekAgo:    time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
	}
	mock.ExpectQuery("FROM profiles").
		WithArgs(w.Now, w.MonthStart, w.WeekAgo).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active", "month", "week"}).AddRow(20, 5, 7, 2))
	pc, err := repo.ProfileCounts(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, analytics.ProfileCounts{Total: 20, Active: 5, SinceMonth: 7, SinceWeekAgo: 2}, pc)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_TopSources(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("GROUP BY source").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"source", "n"}).
			AddRow("twitter", 8).
			AddRow("hn", 3))

	out, err := NewStatsRepo(db).TopSources(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []domain.ReferrerCount{{Source: "twitter", Count: 8}, {Source: "hn", Count: 3}}, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

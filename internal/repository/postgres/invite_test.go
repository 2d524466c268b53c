package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/service/invite"
)

var inviteCols = []string{
	"id", "code", "description", "max_uses", "used_count", "plan_type",
	"duration_months", "expires_at", "is_active", "created_by", "created_at",
}

func TestInviteRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM invite_codes ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(inviteCols).
			AddRow("i-2", "LAUNCH", "launch week", 10, 1, "pro", 3, nil, true, "admin@agentdrop.io", at).
			AddRow("i-1", "FRIEND", nil, 1, 0, "pro", 1, at, false, nil, at.Add(-time.Hour)))
	mock.ExpectQuery("FROM invite_code_redemptions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "invite_code_id", "user_email", "redeemed_at", "plan_granted", "expires_at"}).
			AddRow("r-1", "i-2", "ada@example.com", at, "pro", nil))

	out, err := NewInviteRepo(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "LAUNCH", out[0].Code)
	require.Len(t, out[0].Redemptions, 1)
	assert.Equal(t, "ada@example.com", out[0].Redemptions[0].UserEmail)
	assert.NotNil(t, out[1].Redemptions)
	assert.Empty(t, out[1].Redemptions)
	assert.Nil(t, out[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteRepo_ListEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM invite_codes").WillReturnRows(sqlmock.NewRows(inviteCols))

	out, err := NewInviteRepo(db).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewInviteRepo(db)
	c := &domain.InviteCode{ID: "i-1", Code: "LAUNCH", MaxUses: 1, PlanType: "pro", DurationMonths: 1, IsActive: true, CreatedAt: time.Now()}

	mock.ExpectExec("INSERT INTO invite_codes").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), c))

	mock.ExpectExec("INSERT INTO invite_codes").WillReturnError(&pq.Error{Code: "23505"})
	assert.ErrorIs(t, repo.Create(context.Background(), c), invite.ErrDuplicateCode)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteRepo_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewInviteRepo(db)
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	code := "SPRING"
	active := false
	mock.ExpectQuery("UPDATE invite_codes SET code = \\$1, is_active = \\$2 WHERE id = \\$3 RETURNING").
		WithArgs("SPRING", false, "i-1").
		WillReturnRows(sqlmock.NewRows(inviteCols).
			AddRow("i-1", "SPRING", nil, 1, 0, "pro", 1, nil, false, nil, at))
	c, err := repo.Update(context.Background(), "i-1", invite.UpdateInput{Code: &code, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "SPRING", c.Code)
	assert.False(t, c.IsActive)

	mock.ExpectQuery("UPDATE invite_codes").WillReturnError(sql.ErrNoRows)
	_, err = repo.Update(context.Background(), "gone", invite.UpdateInput{Code: &code})
	assert.ErrorIs(t, err, invite.ErrNotFound)

	mock.ExpectQuery("SELECT").WithArgs("i-1").
		WillReturnRows(sqlmock.NewRows(inviteCols).
			AddRow("i-1", "SPRING", nil, 1, 0, "pro", 1, nil, false, nil, at))
	_, err = repo.Update(context.Background(), "i-1", invite.UpdateInput{})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteRepo_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewInviteRepo(db)

	mock.ExpectExec("DELETE FROM invite_codes").WithArgs("i-1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "i-1"))

	mock.ExpectExec("DELETE FROM invite_codes").WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), invite.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteRepo_MalformedIDIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewInviteRepo(db)
	badUUID := &pq.Error{Code: "22P02"}
	active := false

	mock.ExpectQuery("UPDATE invite_codes SET is_active").WillReturnError(badUUID)
	_, err = repo.Update(context.Background(), "nope", invite.UpdateInput{IsActive: &active})
	assert.ErrorIs(t, err, invite.ErrNotFound)

	mock.ExpectExec("DELETE FROM invite_codes").WithArgs("nope").WillReturnError(badUUID)
	assert.ErrorIs(t, repo.Delete(context.Background(), "nope"), invite.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

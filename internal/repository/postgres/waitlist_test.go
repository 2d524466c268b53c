package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/agentdrop/admin-console/internal/domain"
	"github.com/agentdrop/admin-console/internal/service/approval"
	"github.com/agentdrop/admin-console/internal/service/waitlist"
)

var waitlistCols = []string{
	"id", "email", "name", "source", "created_at", "is_beta_user",
	"approval_email_sent_at", "approval_email_status", "approval_email_resend_count",
	"beta_invited_at", "beta_activated_at",
}

func TestWaitlistRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()
	repo := NewWaitlistRepo(db)
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("FROM waitlist WHERE id = \\$1").
			WithArgs("w-1").
			WillReturnRows(sqlmock.NewRows(waitlistCols).
				AddRow("w-1", "ada@example.com", "Ada", nil, created, true, nil, "not_sent", 0, nil, nil))

		w, err := repo.Get(context.Background(), "w-1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if w.Email != "ada@example.com" || w.Name == nil || *w.Name != "Ada" {
			t.Errorf("Get() = %+v", w)
		}
		if w.Source != nil || w.ApprovalEmailSentAt != nil {
			t.Errorf("Get() nullable columns should be nil: %+v", w)
		}
		if w.ApprovalEmailStatus != domain.ApprovalNotSent {
			t.Errorf("Get() status = %s", w.ApprovalEmailStatus)
		}
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("FROM waitlist WHERE id = \\$1").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "missing")
		if !errors.Is(err, approval.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestWaitlistRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()
	sent := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM waitlist ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(waitlistCols).
			AddRow("w-2", "bo@example.com", nil, "twitter", sent, true, sent, "opened", 2, sent, nil).
			AddRow("w-1", "ada@example.com", "Ada", nil, sent.Add(-time.Hour), false, nil, "not_sent", 0, nil, nil))

	out, err := NewWaitlistRepo(db).List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("List() len = %d, want 2", len(out))
	}
	if out[0].ResendCount != 2 || out[0].ApprovalEmailSentAt == nil || !out[0].ApprovalEmailSentAt.Equal(sent) {
		t.Errorf("List()[0] = %+v", out[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestWaitlistRepo_SetBetaUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()
	repo := NewWaitlistRepo(db)

	mock.ExpectExec("UPDATE waitlist SET is_beta_user").
		WithArgs(true, "w-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.SetBetaUser(context.Background(), "w-1", true); err != nil {
		t.Errorf("SetBetaUser() error = %v", err)
	}

	mock.ExpectExec("UPDATE waitlist SET is_beta_user").
		WithArgs(false, "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.SetBetaUser(context.Background(), "nope", false); !errors.Is(err, waitlist.ErrNotFound) {
		t.Errorf("SetBetaUser() error = %v, want ErrNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestWaitlistRepo_MarkApprovalSent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()
	repo := NewWaitlistRepo(db)
	at := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("SET approval_email_status = 'sent'").
		WithArgs("w-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.MarkApprovalSent(context.Background(), "w-1", &at); err != nil {
		t.Errorf("MarkApprovalSent() error = %v", err)
	}

	// A resend keeps the first-send time.
	mock.ExpectExec("COALESCE\\(\\$2::timestamptz, approval_email_sent_at\\)").
		WithArgs("w-1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.MarkApprovalSent(context.Background(), "w-1", nil); err != nil {
		t.Errorf("MarkApprovalSent(nil) error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestWaitlistRepo_NextResendCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()
	repo := NewWaitlistRepo(db)

	mock.ExpectQuery("RETURNING approval_email_resend_count").
		WithArgs("w-1").
		WillReturnRows(sqlmock.NewRows([]string{"approval_email_resend_count"}).AddRow(3))
	n, err := repo.NextResendCount(context.Background(), "w-1")
	if err != nil || n != 3 {
		t.Errorf("NextResendCount() = %d, %v; want 3", n, err)
	}

	mock.ExpectQuery("RETURNING approval_email_resend_count").
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)
	if _, err := repo.NextResendCount(context.Background(), "gone"); !errors.Is(err, approval.ErrNotFound) {
		t.Errorf("NextResendCount() error = %v, want ErrNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestWaitlistRepo_AdvanceOpened(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()
	repo := NewWaitlistRepo(db)

	mock.ExpectExec("approval_email_status = 'sent'").
		WithArgs("ADA@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.AdvanceOpened(context.Background(), "ADA@example.com")
	if err != nil || !ok {
		t.Errorf("AdvanceOpened() = %v, %v; want true", ok, err)
	}

	mock.ExpectExec("approval_email_status = 'sent'").
		WithArgs("ada@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.AdvanceOpened(context.Background(), "ada@example.com")
	if err != nil || ok {
		t.Errorf("AdvanceOpened() = %v, %v; want false", ok, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestWaitlistRepo_MalformedIDIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()
	repo := NewWaitlistRepo(db)
	badUUID := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "W1"`}
	ctx := context.Background()

	mock.ExpectQuery("FROM waitlist WHERE id = \\$1").WithArgs("W1").WillReturnError(badUUID)
	if _, err := repo.Get(ctx, "W1"); !errors.Is(err, approval.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	mock.ExpectExec("UPDATE waitlist SET is_beta_user").WithArgs(true, "W1").WillReturnError(badUUID)
	if err := repo.SetBetaUser(ctx, "W1", true); !errors.Is(err, waitlist.ErrNotFound) {
		t.Errorf("SetBetaUser() error = %v, want ErrNotFound", err)
	}

	mock.ExpectExec("SET approval_email_status = 'sent'").WillReturnError(badUUID)
	if err := repo.MarkApprovalSent(ctx, "W1", nil); !errors.Is(err, approval.ErrNotFound) {
		t.Errorf("MarkApprovalSent() error = %v, want ErrNotFound", err)
	}

	mock.ExpectQuery("RETURNING approval_email_resend_count").WithArgs("W1").WillReturnError(badUUID)
	if _, err := repo.NextResendCount(ctx, "W1"); !errors.Is(err, approval.ErrNotFound) {
		t.Errorf("NextResendCount() error = %v, want ErrNotFound", err)
	}

	// Other driver errors still surface.
	mock.ExpectQuery("FROM waitlist WHERE id = \\$1").WithArgs("w-2").
		WillReturnError(&pq.Error{Code: "57014", Message: "canceling statement"})
	if _, err := repo.Get(ctx, "w-2"); err == nil || errors.Is(err, approval.ErrNotFound) {
		t.Errorf("Get() error = %v, want a wrapped driver error", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestWaitlistRepo_UnknownStatusReadsAsNotSent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM waitlist WHERE id = \\$1").
		WithArgs("w-1").
		WillReturnRows(sqlmock.NewRows(waitlistCols).
			AddRow("w-1", "ada@example.com", nil, nil, time.Now(), false, nil, "bounced", 0, nil, nil))

	w, err := NewWaitlistRepo(db).Get(context.Background(), "w-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if w.ApprovalEmailStatus != domain.ApprovalNotSent {
		t.Errorf("Get() status = %q, want not_sent", w.ApprovalEmailStatus)
	}
}

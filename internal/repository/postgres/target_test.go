package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/phishsim/internal/domain"
	"github.com/ignite/phishsim/internal/service/ledger"
)

func TestMarkClickedFirstTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewTargetRepo(db)
	at := time.Now().UTC()

	// First click matches the conditional UPDATE: 1 row affected
	mock.ExpectExec(`UPDATE phish_targets`).
		WithArgs("abc123", at, "1.2.3.4", "UA").
		WillReturnResult(sqlmock.NewResult(0, 1))

	wasFirst, err := repo.MarkClicked(context.Background(), "abc123", "1.2.3.4", "UA", at)
	if err != nil {
		t.Fatalf("mark clicked: %v", err)
	}
	if !wasFirst {
		t.Fatal("expected wasFirst=true when the row transitions")
	}

	// Second click: flag already true, no row matches
	mock.ExpectExec(`UPDATE phish_targets`).
		WithArgs("abc123", at, "9.9.9.9", "OtherUA").
		WillReturnResult(sqlmock.NewResult(0, 0))

	wasFirst, err = repo.MarkClicked(context.Background(), "abc123", "9.9.9.9", "OtherUA", at)
	if err != nil {
		t.Fatalf("second mark clicked: %v", err)
	}
	if wasFirst {
		t.Fatal("expected wasFirst=false when no row transitions")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkCredentialsSubmittedSetsClick(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewTargetRepo(db)
	at := time.Now().UTC()

	// The statement must set link_clicked alongside credentials_submitted
	mock.ExpectExec(`SET credentials_submitted = true, credentials_submitted_at = \$2,\s+link_clicked = true`).
		WithArgs("abc123", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	wasFirst, err := repo.MarkCredentialsSubmitted(context.Background(), "abc123", at)
	if err != nil {
		t.Fatalf("mark credentials: %v", err)
	}
	if !wasFirst {
		t.Fatal("expected wasFirst=true")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByCodeNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewTargetRepo(db)

	mock.ExpectQuery(`SELECT(.|\s)+FROM phish_targets WHERE tracking_code = \$1`).
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetByCode(context.Background(), "unknown")
	if err != ledger.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewTargetRepo(db)
	created := time.Now().UTC()
	clickedAt := created.Add(time.Minute)

	cols := []string{
		"id", "campaign_id", "user_id", "tracking_code",
		"email_sent", "email_sent_at",
		"email_opened", "email_opened_at",
		"link_clicked", "link_clicked_at", "click_ip", "click_user_agent",
		"credentials_submitted", "credentials_submitted_at",
		"created_at",
	}
	mock.ExpectQuery(`SELECT(.|\s)+FROM phish_targets WHERE tracking_code = \$1`).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"t1", "c1", "u1", "abc123",
			true, created,
			false, nil,
			true, clickedAt, "1.2.3.4", "UA",
			false, nil,
			created,
		))

	got, err := repo.GetByCode(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got.ID != "t1" || !got.LinkClicked || got.ClickIP != "1.2.3.4" {
		t.Fatalf("bad target: %+v", got)
	}
	if got.EmailOpened || got.CredentialsSubmitted {
		t.Fatalf("unexpected flags: %+v", got)
	}
}

func TestInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewTargetRepo(db)
	now := time.Now().UTC()
	tgt := &domain.Target{
		ID:           "t1",
		CampaignID:   "c1",
		UserID:       "u1",
		TrackingCode: "abc123",
		CreatedAt:    now,
	}

	mock.ExpectExec(`INSERT INTO phish_targets`).
		WithArgs("t1", "c1", "u1", "abc123", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Insert(context.Background(), tgt); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

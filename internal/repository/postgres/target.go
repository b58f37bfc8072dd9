package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/phishsim/internal/domain"
	"github.com/ignite/phishsim/internal/service/ledger"
)

// TargetRepo implements ledger.Repository against PostgreSQL.
//
// Every Mark* method is a single conditional UPDATE scoped to "set flag
// where flag is currently false". RowsAffected decides whether this call
// performed the transition, which is what makes "was_first" race-free:
// two concurrent requests both run the statement, the database serializes
// the row update, and exactly one statement matches.
type TargetRepo struct{ db *sql.DB }

// NewTargetRepo creates a Postgres-backed target repository.
func NewTargetRepo(db *sql.DB) *TargetRepo { return &TargetRepo{db: db} }

const targetColumns = `
	id, campaign_id, user_id, tracking_code,
	email_sent, email_sent_at,
	email_opened, email_opened_at,
	link_clicked, link_clicked_at, COALESCE(click_ip,''), COALESCE(click_user_agent,''),
	credentials_submitted, credentials_submitted_at,
	created_at`

func scanTarget(row *sql.Row) (*domain.Target, error) {
	t := &domain.Target{}
	err := row.Scan(
		&t.ID, &t.CampaignID, &t.UserID, &t.TrackingCode,
		&t.EmailSent, &t.EmailSentAt,
		&t.EmailOpened, &t.EmailOpenedAt,
		&t.LinkClicked, &t.LinkClickedAt, &t.ClickIP, &t.ClickUserAgent,
		&t.CredentialsSubmitted, &t.CredentialsSubmittedAt,
		&t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan target: %w", err)
	}
	return t, nil
}

func (r *TargetRepo) GetByID(ctx context.Context, id string) (*domain.Target, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+targetColumns+` FROM phish_targets WHERE id = $1`, id)
	return scanTarget(row)
}

func (r *TargetRepo) GetByCode(ctx context.Context, trackingCode string) (*domain.Target, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+targetColumns+` FROM phish_targets WHERE tracking_code = $1`, trackingCode)
	return scanTarget(row)
}

func (r *TargetRepo) ListByCampaign(ctx context.Context, campaignID string) ([]domain.Target, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+targetColumns+` FROM phish_targets WHERE campaign_id = $1 ORDER BY created_at`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var out []domain.Target
	for rows.Next() {
		var t domain.Target
		if err := rows.Scan(
			&t.ID, &t.CampaignID, &t.UserID, &t.TrackingCode,
			&t.EmailSent, &t.EmailSentAt,
			&t.EmailOpened, &t.EmailOpenedAt,
			&t.LinkClicked, &t.LinkClickedAt, &t.ClickIP, &t.ClickUserAgent,
			&t.CredentialsSubmitted, &t.CredentialsSubmittedAt,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TargetRepo) Insert(ctx context.Context, t *domain.Target) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO phish_targets (id, campaign_id, user_id, tracking_code, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.CampaignID, t.UserID, t.TrackingCode, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert target: %w", err)
	}
	return nil
}

func (r *TargetRepo) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE phish_targets
		SET email_sent = true, email_sent_at = $2
		WHERE id = $1 AND email_sent = false
	`, id, at)
	if err != nil {
		return false, fmt.Errorf("mark sent: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *TargetRepo) MarkOpened(ctx context.Context, trackingCode string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE phish_targets
		SET email_opened = true, email_opened_at = $2
		WHERE tracking_code = $1 AND email_opened = false
	`, trackingCode, at)
	if err != nil {
		return false, fmt.Errorf("mark opened: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *TargetRepo) MarkClicked(ctx context.Context, trackingCode, ip, userAgent string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE phish_targets
		SET link_clicked = true, link_clicked_at = $2, click_ip = $3, click_user_agent = $4
		WHERE tracking_code = $1 AND link_clicked = false
	`, trackingCode, at, ip, userAgent)
	if err != nil {
		return false, fmt.Errorf("mark clicked: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *TargetRepo) MarkCredentialsSubmitted(ctx context.Context, trackingCode string, at time.Time) (bool, error) {
	// Also raises link_clicked for submissions that arrive before their
	// click; COALESCE keeps an existing click timestamp.
	res, err := r.db.ExecContext(ctx, `
		UPDATE phish_targets
		SET credentials_submitted = true, credentials_submitted_at = $2,
		    link_clicked = true, link_clicked_at = COALESCE(link_clicked_at, $2)
		WHERE tracking_code = $1 AND credentials_submitted = false
	`, trackingCode, at)
	if err != nil {
		return false, fmt.Errorf("mark credentials submitted: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/phishsim/internal/domain"
	"github.com/ignite/phishsim/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

const campaignColumns = `
	id, organization_id, template_id, name, status, total_targets,
	assigned_module_id, COALESCE(click_page_html,''),
	created_at, scheduled_at, started_at, completed_at`

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM phish_campaigns WHERE id = $1`, id,
	).Scan(
		&c.ID, &c.OrganizationID, &c.TemplateID, &c.Name, &c.Status, &c.TotalTargets,
		&c.AssignedModuleID, &c.ClickPageHTML,
		&c.CreatedAt, &c.ScheduledAt, &c.StartedAt, &c.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) GetWithOrganization(ctx context.Context, id string) (*domain.Campaign, *domain.Organization, error) {
	c := &domain.Campaign{}
	org := &domain.Organization{}
	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.organization_id, c.template_id, c.name, c.status, c.total_targets,
		       c.assigned_module_id, COALESCE(c.click_page_html,''),
		       c.created_at, c.scheduled_at, c.started_at, c.completed_at,
		       o.id, o.name, COALESCE(o.webhook_url,''), o.created_at
		FROM phish_campaigns c
		JOIN phish_organizations o ON o.id = c.organization_id
		WHERE c.id = $1
	`, id).Scan(
		&c.ID, &c.OrganizationID, &c.TemplateID, &c.Name, &c.Status, &c.TotalTargets,
		&c.AssignedModuleID, &c.ClickPageHTML,
		&c.CreatedAt, &c.ScheduledAt, &c.StartedAt, &c.CompletedAt,
		&org.ID, &org.Name, &org.WebhookURL, &org.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get campaign with org: %w", err)
	}
	return c, org, nil
}

// MarkLaunched transitions to running only while the campaign is still
// launchable; the status guard in the WHERE clause makes the transition
// atomic the same way the target flag updates are.
func (r *CampaignRepo) MarkLaunched(ctx context.Context, id string, totalTargets int, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE phish_campaigns
		SET status = 'running', total_targets = $2, started_at = $3
		WHERE id = $1 AND status IN ('draft', 'scheduled')
	`, id, totalTargets, at)
	if err != nil {
		return fmt.Errorf("mark launched: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Distinguish unknown campaign from an already-launched one
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return campaign.ErrAlreadyLaunched
	}
	return nil
}

func (r *CampaignRepo) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE phish_campaigns
		SET status = 'completed', completed_at = $2
		WHERE id = $1 AND status = 'running'
	`, id, at)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Unknown campaign surfaces as ErrNotFound; completing a campaign
		// that already completed is an idempotent no-op.
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

package domain

import "time"

// CampaignStatus enumerates the lifecycle states of a phishing campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignRunning   CampaignStatus = "running"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign represents one phishing simulation run against an organization.
//
// The engagement counters on CampaignStats are views derived from the
// Target records on every read; they are never stored on the campaign row,
// so they cannot drift from the ledger.
type Campaign struct {
	ID             string         `json:"id" db:"id"`
	OrganizationID string         `json:"organization_id" db:"organization_id"`
	TemplateID     *string        `json:"template_id" db:"template_id"`
	Name           string         `json:"name" db:"name"`
	Status         CampaignStatus `json:"status" db:"status"`
	TotalTargets   int            `json:"total_targets" db:"total_targets"`

	// AssignedModuleID is an optional training module assigned to a
	// recipient when they click the phishing link.
	AssignedModuleID *string `json:"assigned_module_id" db:"assigned_module_id"`

	// ClickPageHTML overrides the default landing page shown after a click.
	// Rendered as a Liquid template with per-target variables.
	ClickPageHTML string `json:"click_page_html" db:"click_page_html"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ScheduledAt *time.Time `json:"scheduled_at" db:"scheduled_at"`
	StartedAt   *time.Time `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}

// IsTerminal returns true if the campaign is in a final state.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignCompleted
}

// CampaignStats holds campaign-level engagement counts and rates. Always
// recomputed from the target ledger, never persisted.
type CampaignStats struct {
	CampaignID           string `json:"campaign_id"`
	TotalTargets         int    `json:"total_targets"`
	EmailsSent           int    `json:"emails_sent"`
	EmailsOpened         int    `json:"emails_opened"`
	LinksClicked         int    `json:"links_clicked"`
	CredentialsSubmitted int    `json:"credentials_submitted"`

	// Rates are percentages of EmailsSent, rounded to one decimal place.
	// All are 0 when EmailsSent is 0.
	OpenRate       float64 `json:"open_rate"`
	ClickRate      float64 `json:"click_rate"`
	SubmissionRate float64 `json:"submission_rate"`
}

package domain

import "time"

// Organization is the tenant a campaign runs against.
type Organization struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// WebhookURL is the organization-specific notification endpoint.
	// Empty means no org-level webhook is configured.
	WebhookURL string `json:"webhook_url" db:"webhook_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package domain

import "time"

// NotificationKind enumerates the events that fan out to webhooks.
type NotificationKind string

const (
	NotifyClick            NotificationKind = "click"
	NotifyCredentialSubmit NotificationKind = "credential_submit"
	NotifyCampaignLaunch   NotificationKind = "campaign_launch"
)

// NotificationEvent is a transient value object handed to the dispatcher
// when a tracking transition fires for the first time. It is never stored.
type NotificationEvent struct {
	Kind NotificationKind

	UserID           string
	UserEmail        string
	OrganizationID   string
	OrganizationName string
	CampaignID       string
	CampaignName     string

	// Click metadata, set for click and credential_submit events.
	IPAddress string
	UserAgent string

	// TotalTargets is set for campaign_launch events.
	TotalTargets int

	OccurredAt time.Time
}

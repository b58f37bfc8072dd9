package domain

import "time"

// Target is the per-recipient tracking record for one campaign. There is
// exactly one Target per (campaign, recipient) pair, created when the
// campaign is launched.
//
// The four stage flags are monotonic: once true they are never reset. A
// click can be recorded without a prior open (open tracking via pixel is
// unreliable), but CredentialsSubmitted always implies LinkClicked.
type Target struct {
	ID         string `json:"id" db:"id"`
	CampaignID string `json:"campaign_id" db:"campaign_id"`
	UserID     string `json:"user_id" db:"user_id"`

	// TrackingCode is the opaque, unguessable identifier embedded in the
	// phishing email's links. Recipients never see the internal target ID.
	TrackingCode string `json:"tracking_code" db:"tracking_code"`

	EmailSent   bool       `json:"email_sent" db:"email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at" db:"email_sent_at"`

	EmailOpened   bool       `json:"email_opened" db:"email_opened"`
	EmailOpenedAt *time.Time `json:"email_opened_at" db:"email_opened_at"`

	LinkClicked    bool       `json:"link_clicked" db:"link_clicked"`
	LinkClickedAt  *time.Time `json:"link_clicked_at" db:"link_clicked_at"`
	ClickIP        string     `json:"click_ip" db:"click_ip"`
	ClickUserAgent string     `json:"click_user_agent" db:"click_user_agent"`

	CredentialsSubmitted   bool       `json:"credentials_submitted" db:"credentials_submitted"`
	CredentialsSubmittedAt *time.Time `json:"credentials_submitted_at" db:"credentials_submitted_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Stage returns the furthest stage this target has reached, for display.
func (t *Target) Stage() string {
	switch {
	case t.CredentialsSubmitted:
		return "credentials_submitted"
	case t.LinkClicked:
		return "link_clicked"
	case t.EmailOpened:
		return "email_opened"
	case t.EmailSent:
		return "email_sent"
	default:
		return "not_sent"
	}
}

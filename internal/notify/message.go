package notify

import (
	"fmt"
	"time"

	"github.com/ignite/phishsim/internal/domain"
)

// Severity colors for the webhook embeds, in Discord's integer RGB form.
const (
	colorClick      = 0xE67E22 // orange
	colorCredential = 0xE74C3C // red, the highest severity
	colorLaunch     = 0x3498DB // blue
)

// Message is the webhook payload. The embed structure follows the
// Discord webhook schema, which the configured endpoints accept.
type Message struct {
	Embeds []Embed `json:"embeds"`
}

type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// BuildMessage renders an event into its webhook payload. Unknown
// kinds fall back to the click shape so nothing is silently dropped.
func BuildMessage(e domain.NotificationEvent) Message {
	var embed Embed
	switch e.Kind {
	case domain.NotifyCredentialSubmit:
		embed = Embed{
			Title: "Credentials Submitted",
			Description: fmt.Sprintf("%s entered credentials on the landing page for campaign %q.",
				e.UserEmail, e.CampaignName),
			Color:  colorCredential,
			Fields: interactionFields(e),
		}
	case domain.NotifyCampaignLaunch:
		embed = Embed{
			Title: "Campaign Launched",
			Description: fmt.Sprintf("Campaign %q is now running against %s.",
				e.CampaignName, e.OrganizationName),
			Color: colorLaunch,
			Fields: []Field{
				{Name: "Organization", Value: e.OrganizationName, Inline: true},
				{Name: "Campaign", Value: e.CampaignName, Inline: true},
				{Name: "Targets", Value: fmt.Sprintf("%d", e.TotalTargets), Inline: true},
			},
		}
	default:
		embed = Embed{
			Title: "Link Clicked",
			Description: fmt.Sprintf("%s clicked the tracked link in campaign %q.",
				e.UserEmail, e.CampaignName),
			Color:  colorClick,
			Fields: interactionFields(e),
		}
	}

	at := e.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	embed.Timestamp = at.UTC().Format(time.RFC3339)

	return Message{Embeds: []Embed{embed}}
}

func interactionFields(e domain.NotificationEvent) []Field {
	fields := []Field{
		{Name: "User", Value: e.UserEmail, Inline: true},
		{Name: "Organization", Value: e.OrganizationName, Inline: true},
		{Name: "Campaign", Value: e.CampaignName, Inline: true},
	}
	if e.IPAddress != "" {
		fields = append(fields, Field{Name: "IP Address", Value: e.IPAddress, Inline: true})
	}
	if e.UserAgent != "" {
		fields = append(fields, Field{Name: "Device", Value: e.UserAgent})
	}
	return fields
}

package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/ignite/phishsim/internal/domain"
)

// CSVRenderer writes a campaign summary block followed by one row per
// target. Spreadsheet tools open the output directly, which covers the
// Excel-oriented report kinds until a native xlsx writer is needed.
type CSVRenderer struct{}

func (CSVRenderer) ContentType() string { return "text/csv; charset=utf-8" }
func (CSVRenderer) Extension() string   { return ".csv" }

func (CSVRenderer) Render(c *domain.Campaign, targets []domain.Target, stats *domain.CampaignStats) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if c != nil && stats != nil {
		summary := [][]string{
			{"Campaign", c.Name},
			{"Status", string(c.Status)},
			{"Emails Sent", fmt.Sprintf("%d", stats.EmailsSent)},
			{"Emails Opened", fmt.Sprintf("%d", stats.EmailsOpened)},
			{"Links Clicked", fmt.Sprintf("%d", stats.LinksClicked)},
			{"Credentials Submitted", fmt.Sprintf("%d", stats.CredentialsSubmitted)},
			{"Open Rate", fmt.Sprintf("%.1f%%", stats.OpenRate)},
			{"Click Rate", fmt.Sprintf("%.1f%%", stats.ClickRate)},
			{"Submission Rate", fmt.Sprintf("%.1f%%", stats.SubmissionRate)},
			{},
		}
		for _, row := range summary {
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("write summary row: %w", err)
			}
		}
	}

	header := []string{
		"Target ID", "User ID", "Stage",
		"Sent At", "Opened At", "Clicked At", "Submitted At",
		"Click IP", "Click Device",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i := range targets {
		t := &targets[i]
		row := []string{
			t.ID, t.UserID, t.Stage(),
			formatTime(t.EmailSentAt), formatTime(t.EmailOpenedAt),
			formatTime(t.LinkClickedAt), formatTime(t.CredentialsSubmittedAt),
			t.ClickIP, t.ClickUserAgent,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write target row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

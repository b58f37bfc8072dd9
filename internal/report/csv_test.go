package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/phishsim/internal/domain"
)

func TestCSVRender(t *testing.T) {
	sent := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	clicked := sent.Add(2 * time.Hour)

	c := &domain.Campaign{ID: "c1", Name: "Q3 Awareness", Status: domain.CampaignRunning}
	stats := &domain.CampaignStats{
		CampaignID: "c1", TotalTargets: 2, EmailsSent: 2,
		EmailsOpened: 1, LinksClicked: 1, CredentialsSubmitted: 0,
		OpenRate: 50.0, ClickRate: 50.0, SubmissionRate: 0,
	}
	targets := []domain.Target{
		{
			ID: "t1", UserID: "u1", EmailSent: true, EmailSentAt: &sent,
			LinkClicked: true, LinkClickedAt: &clicked,
			ClickIP: "1.2.3.4", ClickUserAgent: "Mozilla/5.0",
		},
		{ID: "t2", UserID: "u2", EmailSent: true, EmailSentAt: &sent},
	}

	data, err := CSVRenderer{}.Render(c, targets, stats)
	require.NoError(t, err)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // summary and target rows differ in width
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Campaign", "Q3 Awareness"}, rows[0])
	assert.Contains(t, rows, []string{"Click Rate", "50.0%"})

	// Last two rows are the targets, after the summary and header
	last := rows[len(rows)-1]
	assert.Equal(t, "t2", last[0])
	assert.Equal(t, "email_sent", last[2])

	clickRow := rows[len(rows)-2]
	assert.Equal(t, "t1", clickRow[0])
	assert.Equal(t, "link_clicked", clickRow[2])
	assert.Equal(t, "1.2.3.4", clickRow[7])
}

func TestCSVRenderEmptyCampaign(t *testing.T) {
	data, err := CSVRenderer{}.Render(nil, nil, nil)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Target ID", rows[0][0])
}

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind("phishing_excel"))
	assert.True(t, ValidKind("phishing_pdf"))
	assert.True(t, ValidKind("training_excel"))
	assert.False(t, ValidKind("phishing_csv"))
	assert.False(t, ValidKind(""))
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	c := &domain.Campaign{Name: "Q3 Awareness"}
	assert.Equal(t, "Q3 Awareness_2026-08-30.csv", Filename(c, CSVRenderer{}, now))
	assert.Equal(t, "campaign_2026-08-30.csv", Filename(nil, CSVRenderer{}, now))
}

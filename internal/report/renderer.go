// Package report turns a campaign's ledger into downloadable bytes.
// Rendering is a pure transformation: it reads nothing but its
// arguments and has no side effects, so any renderer can be swapped in
// behind the download endpoint.
package report

import (
	"fmt"
	"time"

	"github.com/ignite/phishsim/internal/domain"
)

// Report kinds accepted by the export endpoints. Anything else is
// rejected before a token is ever issued.
const (
	KindPhishingExcel = "phishing_excel"
	KindPhishingPDF   = "phishing_pdf"
	KindTrainingExcel = "training_excel"
)

// ValidKind reports whether s names a known report kind.
func ValidKind(s string) bool {
	switch s {
	case KindPhishingExcel, KindPhishingPDF, KindTrainingExcel:
		return true
	}
	return false
}

// Renderer produces the download bytes for one campaign report.
type Renderer interface {
	Render(c *domain.Campaign, targets []domain.Target, stats *domain.CampaignStats) ([]byte, error)
	ContentType() string
	Extension() string
}

// Filename builds the suggested download name from the campaign name
// and the current date, e.g. "Q3 Awareness_2026-08-30.csv".
func Filename(c *domain.Campaign, r Renderer, now time.Time) string {
	name := "campaign"
	if c != nil && c.Name != "" {
		name = c.Name
	}
	return fmt.Sprintf("%s_%s%s", name, now.Format("2006-01-02"), r.Extension())
}

// Package stats derives campaign-level engagement numbers from the target
// ledger. Nothing here is cached or persisted: stats are recomputed on
// every read so they can never drift from the latest recorded event. The
// recomputation cost is bounded by campaign size (tens of thousands of
// targets at most) and is a deliberate trade for correctness.
package stats

import (
	"context"
	"fmt"
	"math"

	"github.com/ignite/phishsim/internal/domain"
	"github.com/ignite/phishsim/internal/service/ledger"
)

// Service computes campaign statistics from the target ledger.
type Service struct {
	targets ledger.Repository
}

// NewService creates a stats service reading from the given target repository.
func NewService(targets ledger.Repository) *Service {
	return &Service{targets: targets}
}

// CampaignStats reads all targets for a campaign and computes counts and
// rates. Rates are percentages of emails sent, rounded to one decimal
// place; all rates are 0 when no emails have been sent.
func (s *Service) CampaignStats(ctx context.Context, campaignID string) (*domain.CampaignStats, error) {
	targets, err := s.targets.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}

	out := &domain.CampaignStats{
		CampaignID:   campaignID,
		TotalTargets: len(targets),
	}
	for i := range targets {
		t := &targets[i]
		if t.EmailSent {
			out.EmailsSent++
		}
		if t.EmailOpened {
			out.EmailsOpened++
		}
		if t.LinkClicked {
			out.LinksClicked++
		}
		if t.CredentialsSubmitted {
			out.CredentialsSubmitted++
		}
	}

	out.OpenRate = rate(out.EmailsOpened, out.EmailsSent)
	out.ClickRate = rate(out.LinksClicked, out.EmailsSent)
	out.SubmissionRate = rate(out.CredentialsSubmitted, out.EmailsSent)
	return out, nil
}

// rate returns count/total as a percentage rounded to one decimal place,
// or 0 when total is 0.
func rate(count, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(count) / float64(total) * 100
	return math.Round(pct*10) / 10
}

// Package api serves the authenticated admin surface: campaign stats,
// launches, and export token issuance, plus the public token-gated
// download endpoint.
package api

import (
	"context"
	"time"

	"github.com/ignite/phishsim/internal/export"
	"github.com/ignite/phishsim/internal/report"
	"github.com/ignite/phishsim/internal/service/campaign"
	"github.com/ignite/phishsim/internal/service/ledger"
	"github.com/ignite/phishsim/internal/service/stats"
)

// UserLister supplies the default recipient set for a launch request
// that names no users explicitly.
type UserLister interface {
	ListIDsByOrganization(ctx context.Context, orgID string) ([]string, error)
}

// Archiver keeps a copy of downloaded exports. Optional.
type Archiver interface {
	Archive(ctx context.Context, kind, campaignID string, r report.Renderer, data []byte)
}

// Handlers holds the services the API routes dispatch into.
type Handlers struct {
	campaigns *campaign.Service
	stats     *stats.Service
	targets   *ledger.Service
	users     UserLister
	broker    *export.Broker
	renderers map[string]report.Renderer
	archiver  Archiver

	// baseURL is the externally visible origin used in download URLs.
	baseURL string
	now     func() time.Time
}

// NewHandlers wires the API handlers. archiver may be nil.
func NewHandlers(
	campaigns *campaign.Service,
	statsSvc *stats.Service,
	targets *ledger.Service,
	users UserLister,
	broker *export.Broker,
	archiver Archiver,
	baseURL string,
) *Handlers {
	csv := report.CSVRenderer{}
	return &Handlers{
		campaigns: campaigns,
		stats:     statsSvc,
		targets:   targets,
		users:     users,
		broker:    broker,
		renderers: map[string]report.Renderer{
			report.KindPhishingExcel: csv,
			report.KindPhishingPDF:   csv,
			report.KindTrainingExcel: csv,
		},
		archiver: archiver,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

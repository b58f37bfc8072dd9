package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/phishsim/internal/pkg/httputil"
	"github.com/ignite/phishsim/internal/service/campaign"
	"github.com/ignite/phishsim/internal/service/ledger"
)

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

// GetCampaign returns one campaign.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.campaigns.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			httputil.NotFound(w, "campaign not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, c)
}

// GetCampaignStats recomputes and returns engagement stats.
func (h *Handlers) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.campaigns.Get(r.Context(), id); err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			httputil.NotFound(w, "campaign not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	s, err := h.stats.CampaignStats(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, s)
}

// ListCampaignTargets returns the per-recipient ledger for a campaign.
func (h *Handlers) ListCampaignTargets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.campaigns.Get(r.Context(), id); err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			httputil.NotFound(w, "campaign not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	targets, err := h.targets.List(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"targets": targets, "count": len(targets)})
}

type launchRequest struct {
	// UserIDs limits the launch to specific recipients. Empty means
	// every user enrolled in the campaign's organization.
	UserIDs []string `json:"user_ids"`
}

// LaunchCampaign creates targets and transitions the campaign to running.
func (h *Handlers) LaunchCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req launchRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !httputil.Decode(w, r, &req) {
			return
		}
	}

	userIDs := req.UserIDs
	if len(userIDs) == 0 {
		c, err := h.campaigns.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, campaign.ErrNotFound) {
				httputil.NotFound(w, "campaign not found")
				return
			}
			httputil.InternalError(w, err)
			return
		}
		userIDs, err = h.users.ListIDsByOrganization(r.Context(), c.OrganizationID)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
	}

	n, err := h.campaigns.Launch(r.Context(), id, userIDs)
	switch {
	case err == nil:
		httputil.OK(w, map[string]interface{}{"campaign_id": id, "targets_created": n})
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, campaign.ErrNoRecipients):
		httputil.BadRequest(w, "campaign has no recipients")
	case errors.Is(err, campaign.ErrAlreadyLaunched):
		httputil.Error(w, http.StatusConflict, "campaign already launched")
	case errors.Is(err, campaign.ErrLaunchInProgress):
		httputil.Error(w, http.StatusConflict, "launch already in progress")
	default:
		httputil.InternalError(w, err)
	}
}

// CompleteCampaign transitions a running campaign to completed.
func (h *Handlers) CompleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.campaigns.Complete(r.Context(), id); err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			httputil.NotFound(w, "campaign not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"campaign_id": id, "status": "completed"})
}

// MarkTargetSent records a delivery for one target. The sending worker
// calls this after handing the message to the mail provider.
func (h *Handlers) MarkTargetSent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.targets.RecordSent(r.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			httputil.NotFound(w, "target not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, t)
}

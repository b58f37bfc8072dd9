package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/phishsim/internal/pkg/httputil"
	"github.com/ignite/phishsim/internal/report"
	"github.com/ignite/phishsim/internal/service/campaign"
)

// IssueExportToken mints a one-time download token for a report. The
// kind is validated here, before a token exists, so the broker only
// ever stores known kinds.
func (h *Handlers) IssueExportToken(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	id := chi.URLParam(r, "id")

	if !report.ValidKind(kind) {
		httputil.BadRequest(w, "unknown report kind")
		return
	}
	if _, err := h.campaigns.Get(r.Context(), id); err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			httputil.NotFound(w, "campaign not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	token := h.broker.Issue(kind, id)
	httputil.OK(w, map[string]interface{}{
		"download_url":       fmt.Sprintf("%s/exports/%s/%s?token=%s", h.baseURL, kind, id, token),
		"expires_in_seconds": int(h.broker.TTL().Seconds()),
	})
}

// DownloadExport redeems a token and streams the rendered report.
// Every failure path returns the same 401 body: a caller probing with
// a stolen or expired token learns nothing about why it was refused,
// and the attempt has already consumed the token either way.
func (h *Handlers) DownloadExport(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	id := chi.URLParam(r, "id")
	token := r.URL.Query().Get("token")

	if !h.broker.Redeem(token, kind, id) {
		httputil.Unauthorized(w, "invalid or expired token")
		return
	}

	renderer, ok := h.renderers[kind]
	if !ok {
		httputil.Unauthorized(w, "invalid or expired token")
		return
	}

	c, err := h.campaigns.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			httputil.Unauthorized(w, "invalid or expired token")
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
	statsData, err := h.stats.CampaignStats(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	data, err := renderer.Render(c, targets, statsData)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	if h.archiver != nil {
		h.archiver.Archive(r.Context(), kind, id, renderer, data)
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", report.Filename(c, renderer, h.now())))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

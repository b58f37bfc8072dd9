// Package tracking serves the public, unauthenticated endpoints hit by
// campaign recipients: the open pixel, the tracked click, and the
// credential form post. Every endpoint responds success even for
// unknown tracking codes, so the responses cannot be used to probe
// which codes exist.
package tracking

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/phishsim/internal/domain"
	"github.com/ignite/phishsim/internal/landing"
	"github.com/ignite/phishsim/internal/pkg/logger"
	"github.com/ignite/phishsim/internal/service/ledger"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Notifier receives first-transition events for webhook fan-out.
type Notifier interface {
	Dispatch(event domain.NotificationEvent, orgWebhookURL string)
}

// CampaignDirectory supplies campaign and organization context for
// notifications and landing pages.
type CampaignDirectory interface {
	GetWithOrganization(ctx context.Context, id string) (*domain.Campaign, *domain.Organization, error)
}

// UserDirectory resolves recipient ids to email addresses.
type UserDirectory interface {
	GetEmail(ctx context.Context, id string) (string, error)
}

type Handler struct {
	targets   *ledger.Service
	campaigns CampaignDirectory
	users     UserDirectory
	notifier  Notifier
	pages     *landing.TemplateService
}

// NewHandler wires the tracking endpoints. notifier may be nil when
// webhook fan-out is disabled.
func NewHandler(targets *ledger.Service, campaigns CampaignDirectory, users UserDirectory, notifier Notifier, pages *landing.TemplateService) *Handler {
	if pages == nil {
		pages = landing.NewTemplateService()
	}
	return &Handler{
		targets:   targets,
		campaigns: campaigns,
		users:     users,
		notifier:  notifier,
		pages:     pages,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/t/open/{code}", h.HandleOpen)
	r.Get("/t/click/{code}", h.HandleClick)
	r.Post("/t/submit/{code}", h.HandleSubmit)
	r.Get("/health", h.HandleHealth)
	return r
}

func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	// The pixel is served no matter what; an open that cannot be
	// recorded is not the recipient's problem.
	if _, err := h.targets.RecordOpened(r.Context(), code); err != nil && err != ledger.ErrNotFound {
		logger.Error("record open", "error", err.Error())
	}
	h.servePixel(w)
}

func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	ip := realIP(r)
	ua := r.UserAgent()

	t, wasFirst, err := h.targets.RecordClick(r.Context(), code, ip, ua)
	if err != nil {
		// Unknown codes get the same page as valid ones.
		if err != ledger.ErrNotFound {
			logger.Error("record click", "error", err.Error())
		}
		h.serveHTML(w, landing.DefaultClickPage)
		return
	}

	c, org, email := h.campaignContext(r.Context(), t)
	if wasFirst {
		h.notify(domain.NotifyClick, t, c, org, email, ip, ua)
	}
	h.serveHTML(w, h.pages.ClickPage(c, org, email))
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	ip := realIP(r)
	ua := r.UserAgent()

	// The posted form fields are deliberately never read: recording
	// that a submission happened is the whole point of the exercise.
	t, wasFirst, err := h.targets.RecordCredentialsSubmitted(r.Context(), code)
	if err != nil {
		if err != ledger.ErrNotFound {
			logger.Error("record submit", "error", err.Error())
		}
		h.serveHTML(w, landing.SubmitPage)
		return
	}

	if wasFirst {
		c, org, email := h.campaignContext(r.Context(), t)
		h.notify(domain.NotifyCredentialSubmit, t, c, org, email, ip, ua)
	}
	h.serveHTML(w, landing.SubmitPage)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// campaignContext loads what the landing page and notifications need.
// Lookups are best effort; a missing campaign or user degrades the
// page and the alert, never the tracking response.
func (h *Handler) campaignContext(ctx context.Context, t *domain.Target) (*domain.Campaign, *domain.Organization, string) {
	var (
		c     *domain.Campaign
		org   *domain.Organization
		email string
	)
	if h.campaigns != nil {
		var err error
		c, org, err = h.campaigns.GetWithOrganization(ctx, t.CampaignID)
		if err != nil {
			logger.Warn("campaign lookup failed", "campaign_id", t.CampaignID, "error", err.Error())
		}
	}
	if h.users != nil {
		var err error
		email, err = h.users.GetEmail(ctx, t.UserID)
		if err != nil {
			logger.Warn("user lookup failed", "user_id", t.UserID, "error", err.Error())
		}
	}
	return c, org, email
}

func (h *Handler) notify(kind domain.NotificationKind, t *domain.Target, c *domain.Campaign, org *domain.Organization, email, ip, ua string) {
	if h.notifier == nil {
		return
	}
	evt := domain.NotificationEvent{
		Kind:       kind,
		UserID:     t.UserID,
		UserEmail:  email,
		CampaignID: t.CampaignID,
		IPAddress:  ip,
		UserAgent:  ua,
	}
	var orgWebhook string
	if c != nil {
		evt.CampaignName = c.Name
	}
	if org != nil {
		evt.OrganizationID = org.ID
		evt.OrganizationName = org.Name
		orgWebhook = org.WebhookURL
	}
	switch kind {
	case domain.NotifyCredentialSubmit:
		if t.CredentialsSubmittedAt != nil {
			evt.OccurredAt = *t.CredentialsSubmittedAt
		}
	default:
		if t.LinkClickedAt != nil {
			evt.OccurredAt = *t.LinkClickedAt
		}
	}
	h.notifier.Dispatch(evt, orgWebhook)
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}

func (h *Handler) serveHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

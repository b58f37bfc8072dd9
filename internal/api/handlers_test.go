package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/phishsim/internal/domain"
	"github.com/ignite/phishsim/internal/export"
	"github.com/ignite/phishsim/internal/pkg/distlock"
	"github.com/ignite/phishsim/internal/service/campaign"
	"github.com/ignite/phishsim/internal/service/ledger"
	"github.com/ignite/phishsim/internal/service/stats"
)

// --- fakes ---

type memLedger struct {
	mu      sync.Mutex
	targets map[string]*domain.Target // by ID
}

func newMemLedger() *memLedger {
	return &memLedger{targets: make(map[string]*domain.Target)}
}

func (r *memLedger) GetByID(ctx context.Context, id string) (*domain.Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.targets[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memLedger) GetByCode(ctx context.Context, code string) (*domain.Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.targets {
		if t.TrackingCode == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (r *memLedger) ListByCampaign(ctx context.Context, campaignID string) ([]domain.Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Target
	for _, t := range r.targets {
		if t.CampaignID == campaignID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memLedger) Insert(ctx context.Context, t *domain.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.targets[t.ID] = &cp
	return nil
}

func (r *memLedger) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.targets[id]
	if !ok || t.EmailSent {
		return false, nil
	}
	t.EmailSent = true
	t.EmailSentAt = &at
	return true, nil
}

func (r *memLedger) MarkOpened(ctx context.Context, code string, at time.Time) (bool, error) {
	return false, nil
}

func (r *memLedger) MarkClicked(ctx context.Context, code, ip, ua string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.targets {
		if t.TrackingCode == code {
			if t.LinkClicked {
				return false, nil
			}
			t.LinkClicked = true
			t.LinkClickedAt = &at
			t.ClickIP = ip
			t.ClickUserAgent = ua
			return true, nil
		}
	}
	return false, nil
}

func (r *memLedger) MarkCredentialsSubmitted(ctx context.Context, code string, at time.Time) (bool, error) {
	return false, nil
}

type memCampaigns struct {
	mu   sync.Mutex
	byID map[string]*domain.Campaign
	orgs map[string]*domain.Organization
}

func (r *memCampaigns) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCampaigns) GetWithOrganization(ctx context.Context, id string) (*domain.Campaign, *domain.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil, campaign.ErrNotFound
	}
	org := r.orgs[c.OrganizationID]
	cp := *c
	ocp := *org
	return &cp, &ocp, nil
}

func (r *memCampaigns) MarkLaunched(ctx context.Context, id string, totalTargets int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return campaign.ErrNotFound
	}
	if c.Status != domain.CampaignDraft && c.Status != domain.CampaignScheduled {
		return campaign.ErrAlreadyLaunched
	}
	c.Status = domain.CampaignRunning
	c.TotalTargets = totalTargets
	c.StartedAt = &at
	return nil
}

func (r *memCampaigns) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.Status = domain.CampaignCompleted
	c.CompletedAt = &at
	return nil
}

type localLock struct{ mu *sync.Mutex }

func (l localLock) Acquire(ctx context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

func (l localLock) Release(ctx context.Context) error {
	l.mu.Unlock()
	return nil
}

func localLockFactory() distlock.Factory {
	var mu sync.Mutex
	return func(key string, ttl time.Duration) distlock.DistLock {
		return localLock{mu: &mu}
	}
}

type staticUsers struct{ ids []string }

func (u staticUsers) ListIDsByOrganization(ctx context.Context, orgID string) ([]string, error) {
	return u.ids, nil
}

type fixture struct {
	handlers  *Handlers
	router    http.Handler
	ledgerDB  *memLedger
	campaigns *memCampaigns
	broker    *export.Broker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ledgerDB := newMemLedger()
	campaignDB := &memCampaigns{
		byID: map[string]*domain.Campaign{
			"c1": {ID: "c1", OrganizationID: "org1", Name: "Q3 Awareness", Status: domain.CampaignDraft},
		},
		orgs: map[string]*domain.Organization{
			"org1": {ID: "org1", Name: "Acme Corp"},
		},
	}

	targetSvc := ledger.NewService(ledgerDB)
	campaignSvc := campaign.NewService(campaignDB, targetSvc, localLockFactory(), nil)
	statsSvc := stats.NewService(ledgerDB)
	broker := export.NewBroker(0)

	h := NewHandlers(campaignSvc, statsSvc, targetSvc, staticUsers{ids: []string{"u1", "u2"}},
		broker, nil, "http://localhost:8080")

	return &fixture{
		handlers:  h,
		router:    SetupRoutes(h, nil),
		ledgerDB:  ledgerDB,
		campaigns: campaignDB,
		broker:    broker,
	}
}

func (f *fixture) do(method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestLaunchCampaign(t *testing.T) {
	f := newFixture(t)

	rec := f.do("POST", "/api/campaigns/c1/launch", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["targets_created"])

	// Second launch conflicts
	rec = f.do("POST", "/api/campaigns/c1/launch", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLaunchCampaignExplicitRecipients(t *testing.T) {
	f := newFixture(t)

	rec := f.do("POST", "/api/campaigns/c1/launch", `{"user_ids":["u9"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	targets, err := f.ledgerDB.ListByCampaign(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "u9", targets[0].UserID)
}

func TestLaunchCampaignNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do("POST", "/api/campaigns/nope/launch", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCampaignStats(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, http.StatusOK, f.do("POST", "/api/campaigns/c1/launch", "").Code)

	// Mark both sent, then one clicked
	targets, _ := f.ledgerDB.ListByCampaign(context.Background(), "c1")
	for _, tgt := range targets {
		rec := f.do("POST", "/api/targets/"+tgt.ID+"/sent", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	_, _, err := f.handlers.targets.RecordClick(context.Background(), targets[0].TrackingCode, "1.2.3.4", "UA")
	require.NoError(t, err)

	rec := f.do("GET", "/api/campaigns/c1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var s domain.CampaignStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 2, s.EmailsSent)
	assert.Equal(t, 1, s.LinksClicked)
	assert.Equal(t, 50.0, s.ClickRate)
}

func TestGetCampaignStatsNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do("GET", "/api/campaigns/nope/stats", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkTargetSentUnknown(t *testing.T) {
	f := newFixture(t)
	rec := f.do("POST", "/api/targets/nope/sent", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssueAndDownloadExport(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do("POST", "/api/campaigns/c1/launch", "").Code)

	rec := f.do("POST", "/api/exports/phishing_excel/c1/token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		DownloadURL      string `json:"download_url"`
		ExpiresInSeconds int    `json:"expires_in_seconds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 300, resp.ExpiresInSeconds)
	require.Contains(t, resp.DownloadURL, "/exports/phishing_excel/c1?token=")

	path := strings.TrimPrefix(resp.DownloadURL, "http://localhost:8080")
	rec = f.do("GET", path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Q3 Awareness")
	assert.Contains(t, rec.Body.String(), "Q3 Awareness")

	// The link is single use
	rec = f.do("GET", path, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIssueExportTokenRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	rec := f.do("POST", "/api/exports/phishing_csv/c1/token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadExportFailuresLookIdentical(t *testing.T) {
	f := newFixture(t)

	// Absent token
	noToken := f.do("GET", "/exports/phishing_excel/c1?token=bogus", "")
	assert.Equal(t, http.StatusUnauthorized, noToken.Code)

	// Kind mismatch: token issued for one kind, redeemed for another
	token := f.broker.Issue("phishing_excel", "c1")
	mismatch := f.do("GET", "/exports/phishing_pdf/c1?token="+token, "")
	assert.Equal(t, http.StatusUnauthorized, mismatch.Code)
	assert.Equal(t, noToken.Body.String(), mismatch.Body.String(),
		"failure responses must not reveal the failure mode")

	// The mismatch burned the token: the right kind now fails too
	burned := f.do("GET", "/exports/phishing_excel/c1?token="+token, "")
	assert.Equal(t, http.StatusUnauthorized, burned.Code)
	assert.Equal(t, noToken.Body.String(), burned.Body.String())
}

func TestCompleteCampaign(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do("POST", "/api/campaigns/c1/launch", "").Code)

	rec := f.do("POST", "/api/campaigns/c1/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)

	c, err := f.campaigns.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignCompleted, c.Status)
}

func TestHealthNoAuth(t *testing.T) {
	f := newFixture(t)
	rec := f.do("GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

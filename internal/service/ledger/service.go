package ledger

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/phishsim/internal/domain"
	"github.com/ignite/phishsim/internal/pkg/logger"
)

// Service implements the target tracking state machine on top of a
// Repository. All public methods are safe for concurrent use if the
// underlying repository is concurrency-safe.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a ledger service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// RecordSent marks a target's email as sent. Idempotent: re-recording is a
// no-op returning the current record. Returns ErrNotFound for unknown IDs.
func (s *Service) RecordSent(ctx context.Context, targetID string) (*domain.Target, error) {
	if _, err := s.repo.MarkSent(ctx, targetID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("mark sent: %w", err)
	}
	return s.repo.GetByID(ctx, targetID)
}

// RecordOpened marks a target's email as opened, looked up by tracking code.
func (s *Service) RecordOpened(ctx context.Context, trackingCode string) (*domain.Target, error) {
	if _, err := s.repo.MarkOpened(ctx, trackingCode, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("mark opened: %w", err)
	}
	return s.repo.GetByCode(ctx, trackingCode)
}

// RecordClick records a link click. Only the first click sets the flag and
// captures IP/user agent; later clicks are tolerated no-ops so recipients
// who click twice are neither double-counted nor re-notified. wasFirst is
// true for exactly one caller, even under concurrent requests.
func (s *Service) RecordClick(ctx context.Context, trackingCode, ip, userAgent string) (*domain.Target, bool, error) {
	wasFirst, err := s.repo.MarkClicked(ctx, trackingCode, ip, userAgent, s.now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("mark clicked: %w", err)
	}
	t, err := s.repo.GetByCode(ctx, trackingCode)
	if err != nil {
		return nil, false, err
	}
	if wasFirst {
		logger.Info("first click recorded",
			"campaign_id", t.CampaignID, "target_id", t.ID, "ip", ip)
	}
	return t, wasFirst, nil
}

// RecordCredentialsSubmitted records a credential submission. First-wins
// like RecordClick. Also sets link_clicked if it is somehow still unset:
// a submission cannot happen without a click in this model, but the state
// machine tolerates out-of-order arrival.
func (s *Service) RecordCredentialsSubmitted(ctx context.Context, trackingCode string) (*domain.Target, bool, error) {
	wasFirst, err := s.repo.MarkCredentialsSubmitted(ctx, trackingCode, s.now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("mark credentials submitted: %w", err)
	}
	t, err := s.repo.GetByCode(ctx, trackingCode)
	if err != nil {
		return nil, false, err
	}
	if wasFirst {
		logger.Warn("credentials submitted",
			"campaign_id", t.CampaignID, "target_id", t.ID)
	}
	return t, wasFirst, nil
}

// List returns all targets for a campaign.
func (s *Service) List(ctx context.Context, campaignID string) ([]domain.Target, error) {
	return s.repo.ListByCampaign(ctx, campaignID)
}

// CreateForCampaign creates one target per recipient with a fresh tracking
// code each. Returns the number of targets created. Callers serialize
// launches (see service/campaign) so this is not re-entrant per campaign.
func (s *Service) CreateForCampaign(ctx context.Context, campaignID string, userIDs []string) (int, error) {
	created := 0
	for _, userID := range userIDs {
		t := &domain.Target{
			ID:           uuid.New().String(),
			CampaignID:   campaignID,
			UserID:       userID,
			TrackingCode: NewTrackingCode(),
			CreatedAt:    s.now().UTC(),
		}
		if err := s.repo.Insert(ctx, t); err != nil {
			return created, fmt.Errorf("insert target for user %s: %w", userID, err)
		}
		created++
	}
	return created, nil
}

// NewTrackingCode returns an opaque, unguessable, URL-safe tracking code.
// 16 random bytes gives 128 bits of entropy, enough that codes cannot be
// enumerated by recipients.
func NewTrackingCode() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; if it ever does,
		// refusing to continue beats issuing a guessable code.
		panic(fmt.Sprintf("ledger: crypto/rand failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

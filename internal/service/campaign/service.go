package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/phishsim/internal/domain"
	"github.com/ignite/phishsim/internal/pkg/distlock"
	"github.com/ignite/phishsim/internal/pkg/logger"
	"github.com/ignite/phishsim/internal/service/ledger"
)

// launchLockTTL bounds how long a crashed launcher can hold the lock.
const launchLockTTL = 2 * time.Minute

// Notifier receives events for webhook fan-out. Dispatch must not block:
// the dispatcher queues internally and delivers on its own worker.
type Notifier interface {
	Dispatch(event domain.NotificationEvent, orgWebhookURL string)
}

// Service implements campaign lifecycle logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo     Repository
	targets  *ledger.Service
	locks    distlock.Factory
	notifier Notifier
	now      func() time.Time
}

// NewService creates a campaign service. notifier may be nil when webhook
// fan-out is disabled.
func NewService(repo Repository, targets *ledger.Service, locks distlock.Factory, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		targets:  targets,
		locks:    locks,
		notifier: notifier,
		now:      time.Now,
	}
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// Launch creates one target per recipient and transitions the campaign to
// running. Concurrent launches of the same campaign are serialized by a
// distributed lock; the loser sees ErrLaunchInProgress or
// ErrAlreadyLaunched, never a duplicated target set.
// Returns the number of targets created.
func (s *Service) Launch(ctx context.Context, campaignID string, userIDs []string) (int, error) {
	if len(userIDs) == 0 {
		return 0, ErrNoRecipients
	}

	lock := s.locks(fmt.Sprintf("campaign-launch:%s", campaignID), launchLockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire launch lock: %w", err)
	}
	if !acquired {
		return 0, ErrLaunchInProgress
	}
	defer lock.Release(ctx)

	c, org, err := s.repo.GetWithOrganization(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	if c.Status != domain.CampaignDraft && c.Status != domain.CampaignScheduled {
		return 0, ErrAlreadyLaunched
	}

	n, err := s.targets.CreateForCampaign(ctx, campaignID, userIDs)
	if err != nil {
		return 0, fmt.Errorf("create targets: %w", err)
	}

	if err := s.repo.MarkLaunched(ctx, campaignID, n, s.now().UTC()); err != nil {
		return 0, fmt.Errorf("transition to running: %w", err)
	}

	logger.Info("campaign launched", "campaign_id", campaignID, "targets", n)

	if s.notifier != nil {
		s.notifier.Dispatch(domain.NotificationEvent{
			Kind:             domain.NotifyCampaignLaunch,
			OrganizationID:   org.ID,
			OrganizationName: org.Name,
			CampaignID:       c.ID,
			CampaignName:     c.Name,
			TotalTargets:     n,
			OccurredAt:       s.now().UTC(),
		}, org.WebhookURL)
	}

	return n, nil
}

// Complete transitions a running campaign to completed.
func (s *Service) Complete(ctx context.Context, campaignID string) error {
	return s.repo.MarkCompleted(ctx, campaignID, s.now().UTC())
}

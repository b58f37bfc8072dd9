package campaign

import (
	"context"
	"time"

	"github.com/ignite/phishsim/internal/domain"
)

// Repository defines the data access contract for campaigns and their
// organizations. Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// GetWithOrganization returns a campaign together with its organization.
	GetWithOrganization(ctx context.Context, id string) (*domain.Campaign, *domain.Organization, error)

	// MarkLaunched transitions a draft/scheduled campaign to running and
	// records the target count and start time. The transition is guarded
	// in the store: it applies only while the campaign is still launchable
	// and returns ErrAlreadyLaunched otherwise.
	MarkLaunched(ctx context.Context, id string, totalTargets int, at time.Time) error

	// MarkCompleted transitions a running campaign to completed.
	MarkCompleted(ctx context.Context, id string, at time.Time) error
}

package ledger

import (
	"context"
	"time"

	"github.com/ignite/phishsim/internal/domain"
)

// Repository defines the data access contract for targets.
// Implementations must be safe for concurrent use.
//
// The Mark* methods are conditional writes: they set the flag (and its
// metadata) only where the flag is currently false, in one atomic
// operation, and report whether this call performed the transition.
// A read-then-write implementation would race and is not acceptable.
type Repository interface {
	// GetByID returns a target by internal ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.Target, error)

	// GetByCode returns a target by tracking code. Returns ErrNotFound if absent.
	GetByCode(ctx context.Context, trackingCode string) (*domain.Target, error)

	// ListByCampaign returns all targets for a campaign.
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.Target, error)

	// Insert persists a new target.
	Insert(ctx context.Context, t *domain.Target) error

	// MarkSent sets email_sent where it is currently false.
	// Returns true if this call performed the transition.
	MarkSent(ctx context.Context, id string, at time.Time) (bool, error)

	// MarkOpened sets email_opened where it is currently false.
	MarkOpened(ctx context.Context, trackingCode string, at time.Time) (bool, error)

	// MarkClicked sets link_clicked plus click metadata where link_clicked
	// is currently false. Metadata is first-write-wins: later calls must
	// not overwrite the stored IP or user agent.
	MarkClicked(ctx context.Context, trackingCode, ip, userAgent string, at time.Time) (bool, error)

	// MarkCredentialsSubmitted sets credentials_submitted where it is
	// currently false, and sets link_clicked as well if still unset
	// (submissions can arrive before their click due to network races).
	// The returned bool reflects the credentials_submitted transition.
	MarkCredentialsSubmitted(ctx context.Context, trackingCode string, at time.Time) (bool, error)
}

package linktoken

import (
	"context"

	"github.com/givebridge/givebridge/internal/domain"
)

// Repository defines the data access contract for link tokens.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Create inserts a new token after verifying, inside one transaction,
	// that the campaign (and the contact or segment, when set) exists and
	// belongs to the organizer. Returns a not-found error otherwise.
	Create(ctx context.Context, t *domain.LinkToken, organizerID string) error

	// CreatePublic inserts an organizer-less share token. Only campaign
	// existence is checked.
	CreatePublic(ctx context.Context, t *domain.LinkToken) error

	// Get returns a token with no ownership check. Used by the public
	// tracking endpoints, which are intentionally unauthenticated.
	Get(ctx context.Context, id string) (*domain.LinkToken, error)

	// GetForOrganizer returns a token only if its campaign belongs to the
	// organizer.
	GetForOrganizer(ctx context.Context, id, organizerID string) (*domain.LinkToken, error)

	// IncrementClicks atomically bumps clicks_count and stamps
	// last_clicked_at. Returns a not-found error if the token is absent.
	IncrementClicks(ctx context.Context, id string) error

	// DeleteUnsafe hard-deletes a token with no ownership check. Only used
	// as compensation when the email for a just-created token failed to send.
	DeleteUnsafe(ctx context.Context, id string) error
}

package emailevent

import (
	"context"

	"github.com/givebridge/givebridge/internal/domain"
)

// Repository defines the data access contract for the event log.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Insert appends one event. The log is append-only; there is no update.
	Insert(ctx context.Context, e *domain.EmailEvent) error

	// InsertUnique records the first (link_token_id, contact_id, type)
	// occurrence via an atomic insert-if-absent. Returns true when this
	// call won the insert, false when the pair was already recorded.
	InsertUnique(ctx context.Context, linkTokenID, contactID string, t domain.EmailEventType) (bool, error)

	// TypeCounts returns raw and distinct-contact counts per event type for
	// all tokens of one funding campaign.
	TypeCounts(ctx context.Context, campaignID string) ([]domain.EventTypeCount, error)

	// Ownership-scoped reads. The organizer filter joins through the
	// token's campaign; a missing or foreign id yields a not-found error.
	ListByLinkToken(ctx context.Context, linkTokenID, organizerID string, limit, offset int) ([]domain.EmailEvent, int, error)
	ListByCampaign(ctx context.Context, campaignID, organizerID string, limit, offset int) ([]domain.EmailEvent, int, error)
	ListByOutreachCampaign(ctx context.Context, outreachCampaignID, organizerID string, limit, offset int) ([]domain.EmailEvent, int, error)
}

package outreach

import (
	"context"
	"time"

	"github.com/givebridge/givebridge/internal/domain"
)

// UpdateFields holds the optional fields of an outreach campaign update.
// Nil means "leave unchanged".
type UpdateFields struct {
	Name        *string
	Description *string
	Status      *domain.OutreachCampaignStatus
}

// Repository defines the data access contract for outreach campaigns and
// their recipient rows. Implementations must be safe for concurrent use.
type Repository interface {
	// Create inserts an outreach campaign after verifying the funding
	// campaign belongs to the organizer. A duplicate name within the same
	// funding campaign returns a conflict error.
	Create(ctx context.Context, oc *domain.OutreachCampaign, organizerID string) error

	// Get returns an outreach campaign only if the organizer owns its
	// funding campaign.
	Get(ctx context.Context, id, organizerID string) (*domain.OutreachCampaign, error)

	// ListByCampaign returns a funding campaign's outreach campaigns,
	// newest first. Archived ones are included only when requested.
	ListByCampaign(ctx context.Context, campaignID, organizerID string, includeArchived bool) ([]domain.OutreachCampaign, error)

	// Update applies the set fields and returns the updated row.
	Update(ctx context.Context, id, organizerID string, fields UpdateFields) (*domain.OutreachCampaign, error)

	// AddRecipients inserts recipient rows, silently skipping contacts
	// already in the outreach campaign. Returns the number inserted.
	AddRecipients(ctx context.Context, outreachCampaignID string, recipients []domain.OutreachRecipient) (int, error)

	// Recipients returns all recipient rows of an owned outreach campaign.
	Recipients(ctx context.Context, outreachCampaignID, organizerID string) ([]domain.OutreachRecipient, error)

	// RecipientsByStatus returns recipient rows in one send state.
	RecipientsByStatus(ctx context.Context, outreachCampaignID string, status domain.RecipientStatus) ([]domain.OutreachRecipient, error)

	// RecipientsByEngagement returns recipient rows matching an engagement
	// filter, resolved set-based against the cached flags.
	RecipientsByEngagement(ctx context.Context, outreachCampaignID string, filter domain.EngagementFilter) ([]domain.OutreachRecipient, error)

	// MarkRecipientSent flips a recipient to sent and stamps the send time,
	// clearing any previous failure reason.
	MarkRecipientSent(ctx context.Context, recipientID string, at time.Time) error

	// MarkRecipientFailed flips a recipient to failed with a reason.
	MarkRecipientFailed(ctx context.Context, recipientID, reason string) error

	// MarkRecipientDonated sets the donated flag and amount for the
	// contact's row in the outreach campaign, if present.
	MarkRecipientDonated(ctx context.Context, outreachCampaignID, contactID string, amount float64) error

	// Stats aggregates the recipient rows into a snapshot.
	Stats(ctx context.Context, outreachCampaignID, organizerID string) (*domain.OutreachCampaignStats, error)
}

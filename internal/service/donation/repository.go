package donation

import (
	"context"

	"github.com/givebridge/givebridge/internal/domain"
)

// CampaignDonationStats is the per-campaign donation rollup, computed
// from completed donations only.
type CampaignDonationStats struct {
	CampaignID      string  `json:"campaign_id"`
	DonationCount   int     `json:"donation_count"`
	TotalAmount     float64 `json:"total_amount"`
	AttributedCount int     `json:"attributed_count"`
	AttributedTotal float64 `json:"attributed_total"`
}

// Repository defines the data access contract for donations. Donation
// rows are written by the external payment flow; this backend only
// stamps attribution on them and reads them for analytics.
type Repository interface {
	// Get returns a donation by id.
	Get(ctx context.Context, id string) (*domain.Donation, error)

	// UpdateAttribution stamps link token and contact on a donation and
	// returns the updated row.
	UpdateAttribution(ctx context.Context, donationID string, linkTokenID, contactID *string) (*domain.Donation, error)

	// ListByCampaign returns a campaign's donations, newest first, scoped
	// to the organizer who owns the campaign.
	ListByCampaign(ctx context.Context, campaignID, organizerID string, limit, offset int) ([]domain.Donation, int, error)

	// StatsByCampaign aggregates completed donations for one campaign.
	StatsByCampaign(ctx context.Context, campaignID string) (*CampaignDonationStats, error)
}

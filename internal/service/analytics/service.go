package analytics

import (
	"context"

	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/service/donation"
	"github.com/givebridge/givebridge/internal/service/emailevent"
)

// CampaignDirectory looks up funding campaigns with ownership enforced.
type CampaignDirectory interface {
	Get(ctx context.Context, id, organizerID string) (*domain.Campaign, error)
}

// EventStats aggregates the email event log per campaign.
type EventStats interface {
	StatsByCampaign(ctx context.Context, campaignID string) (*domain.CampaignEventStats, error)
}

// DonationStats aggregates completed donations per campaign.
type DonationStats interface {
	StatsByCampaign(ctx context.Context, campaignID string) (*donation.CampaignDonationStats, error)
}

// Service assembles analytics rollups from the other services' stats.
type Service struct {
	repo      Repository
	campaigns CampaignDirectory
	events    EventStats
	donations DonationStats
}

// NewService wires the analytics service.
func NewService(repo Repository, campaigns CampaignDirectory, events EventStats, donations DonationStats) *Service {
	return &Service{repo: repo, campaigns: campaigns, events: events, donations: donations}
}

// CampaignAnalytics is the full per-campaign rollup.
type CampaignAnalytics struct {
	Campaign  *domain.Campaign                `json:"campaign"`
	Tokens    *TokenCounts                    `json:"tokens"`
	Events    *domain.CampaignEventStats      `json:"events"`
	Donations *donation.CampaignDonationStats `json:"donations"`
	Shares    *ShareStats                     `json:"shares"`

	// ConversionRate is attributed donations over unique clicks, as a
	// percentage rounded to two decimals.
	ConversionRate float64 `json:"conversion_rate"`
}

// ForCampaign builds the rollup for one owned campaign.
func (s *Service) ForCampaign(ctx context.Context, campaignID, organizerID string) (*CampaignAnalytics, error) {
	campaign, err := s.campaigns.Get(ctx, campaignID, organizerID)
	if err != nil {
		return nil, err
	}

	tokens, err := s.repo.TokenCounts(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.StatsByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	donations, err := s.donations.StatsByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	shares, err := s.repo.ShareStats(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	return &CampaignAnalytics{
		Campaign:       campaign,
		Tokens:         tokens,
		Events:         events,
		Donations:      donations,
		Shares:         shares,
		ConversionRate: emailevent.Rate(donations.AttributedCount, events.UniqueClicks),
	}, nil
}

// OrganizerAnalytics is the organizer-wide dashboard rollup.
type OrganizerAnalytics struct {
	Campaigns           int     `json:"campaigns"`
	Sends               int     `json:"sends"`
	UniqueSends         int     `json:"unique_sends"`
	Opens               int     `json:"opens"`
	UniqueOpens         int     `json:"unique_opens"`
	Clicks              int     `json:"clicks"`
	UniqueClicks        int     `json:"unique_clicks"`
	Donations           int     `json:"donations"`
	AttributedDonations int     `json:"attributed_donations"`
	TotalRaised         float64 `json:"total_raised"`
	OpenRate            float64 `json:"open_rate"`
	ClickRate           float64 `json:"click_rate"`
	ConversionRate      float64 `json:"conversion_rate"`

	TopSegments []SegmentEngagement `json:"top_segments"`
	TopContacts []ContactEngagement `json:"top_contacts"`
}

// topN bounds the leaderboard sizes in the organizer rollup.
const topN = 5

// ForOrganizer builds the dashboard rollup across all the organizer's
// campaigns. Rates are recomputed from the summed unique counts, not
// averaged across campaigns.
func (s *Service) ForOrganizer(ctx context.Context, organizerID string) (*OrganizerAnalytics, error) {
	ids, err := s.repo.CampaignIDs(ctx, organizerID)
	if err != nil {
		return nil, err
	}

	out := &OrganizerAnalytics{Campaigns: len(ids)}
	for _, id := range ids {
		events, err := s.events.StatsByCampaign(ctx, id)
		if err != nil {
			return nil, err
		}
		donations, err := s.donations.StatsByCampaign(ctx, id)
		if err != nil {
			return nil, err
		}

		out.Sends += events.Sends
		out.UniqueSends += events.UniqueSends
		out.Opens += events.Opens
		out.UniqueOpens += events.UniqueOpens
		out.Clicks += events.Clicks
		out.UniqueClicks += events.UniqueClicks
		out.Donations += donations.DonationCount
		out.AttributedDonations += donations.AttributedCount
		out.TotalRaised += donations.TotalAmount
	}

	out.OpenRate = emailevent.Rate(out.UniqueOpens, out.UniqueSends)
	out.ClickRate = emailevent.Rate(out.UniqueClicks, out.UniqueOpens)
	out.ConversionRate = emailevent.Rate(out.AttributedDonations, out.UniqueClicks)

	if out.TopSegments, err = s.repo.TopSegments(ctx, organizerID, topN); err != nil {
		return nil, err
	}
	if out.TopContacts, err = s.repo.TopContacts(ctx, organizerID, topN); err != nil {
		return nil, err
	}
	return out, nil
}

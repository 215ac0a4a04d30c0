package analytics

import (
	"context"

	"github.com/givebridge/givebridge/internal/domain"
)

// TokenCounts summarizes a campaign's link tokens.
type TokenCounts struct {
	Total       int                          `json:"total"`
	ByType      map[domain.LinkTokenType]int `json:"by_type"`
	TotalClicks int                          `json:"total_clicks"`
}

// ShareStats summarizes a campaign's public share links.
type ShareStats struct {
	ShareTokens int `json:"share_tokens"`
	ShareClicks int `json:"share_clicks"`
}

// SegmentEngagement ranks one segment by recipient engagement.
type SegmentEngagement struct {
	SegmentID   string `json:"segment_id"`
	SegmentName string `json:"segment_name"`
	Contacts    int    `json:"contacts"`
	Opens       int    `json:"opens"`
	Clicks      int    `json:"clicks"`
}

// ContactEngagement ranks one contact by engagement.
type ContactEngagement struct {
	ContactID string `json:"contact_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Opens     int    `json:"opens"`
	Clicks    int    `json:"clicks"`
}

// Repository defines the read-only queries backing analytics.
type Repository interface {
	// CampaignIDs returns the ids of every campaign the organizer owns.
	CampaignIDs(ctx context.Context, organizerID string) ([]string, error)

	// TokenCounts summarizes a campaign's tokens and their click totals.
	TokenCounts(ctx context.Context, campaignID string) (*TokenCounts, error)

	// ShareStats summarizes a campaign's share tokens and their clicks.
	ShareStats(ctx context.Context, campaignID string) (*ShareStats, error)

	// TopSegments returns the organizer's segments ranked by clicks then
	// opens, at most limit rows.
	TopSegments(ctx context.Context, organizerID string, limit int) ([]SegmentEngagement, error)

	// TopContacts returns the organizer's contacts ranked by clicks then
	// opens, at most limit rows.
	TopContacts(ctx context.Context, organizerID string, limit int) ([]ContactEngagement, error)
}

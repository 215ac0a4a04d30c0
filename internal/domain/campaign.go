package domain

import "time"

// CampaignStatus enumerates the lifecycle states of a funding campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Campaign represents a funding campaign owned by an organizer.
type Campaign struct {
	ID          string         `json:"id" db:"id"`
	OrganizerID string         `json:"organizer_id" db:"organizer_id"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	ShareSlug   string         `json:"share_slug" db:"share_slug"`
	Status      CampaignStatus `json:"status" db:"status"`
	GoalAmount  float64        `json:"goal_amount" db:"goal_amount"`

	// Stats (read-only, populated by queries)
	RaisedAmount  float64 `json:"raised_amount" db:"raised_amount"`
	DonationCount int     `json:"donation_count" db:"donation_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true if the campaign is in a final state.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignCompleted || c.Status == CampaignCancelled
}

package domain

import "time"

// LinkTokenType enumerates the kinds of outreach sends a token can belong to.
type LinkTokenType string

const (
	TokenInvite LinkTokenType = "invite"
	TokenUpdate LinkTokenType = "update"
	TokenThanks LinkTokenType = "thanks"
	TokenShare  LinkTokenType = "share"
)

// ValidLinkTokenType reports whether t is one of the known token types.
func ValidLinkTokenType(t LinkTokenType) bool {
	switch t {
	case TokenInvite, TokenUpdate, TokenThanks, TokenShare:
		return true
	}
	return false
}

// LinkToken is one per-recipient tracking token for a single send.
// ClicksCount is mutated only by the click-tracking endpoint.
type LinkToken struct {
	ID                 string        `json:"id" db:"id"`
	CampaignID         string        `json:"campaign_id" db:"campaign_id"`
	ContactID          *string       `json:"contact_id" db:"contact_id"`
	SegmentID          *string       `json:"segment_id" db:"segment_id"`
	OutreachCampaignID *string       `json:"outreach_campaign_id" db:"outreach_campaign_id"`
	Type               LinkTokenType `json:"type" db:"type"`
	PrefillAmount      float64       `json:"prefill_amount" db:"prefill_amount"`
	PersonalizedMsg    string        `json:"personalized_message" db:"personalized_message"`
	UTMSource          string        `json:"utm_source" db:"utm_source"`
	UTMMedium          string        `json:"utm_medium" db:"utm_medium"`
	UTMCampaign        string        `json:"utm_campaign" db:"utm_campaign"`
	UTMContent         string        `json:"utm_content" db:"utm_content"`
	ClicksCount        int           `json:"clicks_count" db:"clicks_count"`
	LastClickedAt      *time.Time    `json:"last_clicked_at" db:"last_clicked_at"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
}

// AudienceKind tags the recipient selection of an outreach operation.
type AudienceKind string

const (
	AudienceContact     AudienceKind = "contact"
	AudienceSegment     AudienceKind = "segment"
	AudienceAllContacts AudienceKind = "all"
)

// Audience is a tagged recipient selection: a single contact, one segment,
// or every contact the organizer owns. It replaces the legacy "all"
// sentinel that overloaded the segment id field.
type Audience struct {
	Kind      AudienceKind `json:"kind"`
	ContactID string       `json:"contact_id,omitempty"`
	SegmentID string       `json:"segment_id,omitempty"`
}

// EngagementFilter narrows an update send to recipients by prior behavior.
type EngagementFilter string

const (
	EngageAll               EngagementFilter = "all"
	EngageOpenedNotClicked  EngagementFilter = "opened-not-clicked"
	EngageClickedNotDonated EngagementFilter = "clicked-not-donated"
	EngageDonated           EngagementFilter = "donated"
)

// OutreachCampaignStatus enumerates outreach campaign states. Archival is a
// status flip only; outreach campaigns are never hard-deleted.
type OutreachCampaignStatus string

const (
	OutreachDraft    OutreachCampaignStatus = "draft"
	OutreachActive   OutreachCampaignStatus = "active"
	OutreachArchived OutreachCampaignStatus = "archived"
)

// OutreachCampaign groups link-token sends into a named batch scoped to one
// funding campaign. Name is unique per campaign.
type OutreachCampaign struct {
	ID          string                 `json:"id" db:"id"`
	CampaignID  string                 `json:"campaign_id" db:"campaign_id"`
	Name        string                 `json:"name" db:"name"`
	Description string                 `json:"description" db:"description"`
	Status      OutreachCampaignStatus `json:"status" db:"status"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at" db:"updated_at"`
}

// RecipientStatus enumerates per-recipient send outcomes.
type RecipientStatus string

const (
	RecipientPending RecipientStatus = "pending"
	RecipientSent    RecipientStatus = "sent"
	RecipientFailed  RecipientStatus = "failed"
)

// OutreachRecipient is the denormalized per-recipient row for one outreach
// campaign. It mirrors facts from the event log and donations for fast
// aggregate reads; the event log and donations tables stay authoritative.
type OutreachRecipient struct {
	ID                 string          `json:"id" db:"id"`
	OutreachCampaignID string          `json:"outreach_campaign_id" db:"outreach_campaign_id"`
	ContactID          string          `json:"contact_id" db:"contact_id"`
	Email              string          `json:"email" db:"email"`
	Status             RecipientStatus `json:"status" db:"status"`
	Opened             bool            `json:"opened" db:"opened"`
	Clicked            bool            `json:"clicked" db:"clicked"`
	Donated            bool            `json:"donated" db:"donated"`
	DonatedAmount      float64         `json:"donated_amount" db:"donated_amount"`
	LastSendAt         *time.Time      `json:"last_send_at" db:"last_send_at"`
	FailureReason      string          `json:"failure_reason" db:"failure_reason"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// OutreachCampaignStats is the aggregate snapshot for one outreach campaign.
type OutreachCampaignStats struct {
	OutreachCampaignID string  `json:"outreach_campaign_id"`
	Recipients         int     `json:"recipients"`
	Sends              int     `json:"sends"`
	Failures           int     `json:"failures"`
	Opens              int     `json:"opens"`
	Clicks             int     `json:"clicks"`
	Donations          int     `json:"donations"`
	DonatedAmount      float64 `json:"donated_amount"`
	OpenRate           float64 `json:"open_rate"`
	ClickRate          float64 `json:"click_rate"`
	ConversionRate     float64 `json:"conversion_rate"`
}

package domain

import "time"

// EmailEventType enumerates the kinds of outreach email events.
type EmailEventType string

const (
	EventSent  EmailEventType = "sent"
	EventOpen  EmailEventType = "open"
	EventClick EmailEventType = "click"
)

// EmailEvent is one append-only fact about a link token. Multiple open and
// click rows per token are legal; unique counts are derived per contact.
type EmailEvent struct {
	ID          string         `json:"id" db:"id"`
	LinkTokenID string         `json:"link_token_id" db:"link_token_id"`
	ContactID   *string        `json:"contact_id" db:"contact_id"`
	Type        EmailEventType `json:"type" db:"type"`
	UserAgent   string         `json:"user_agent" db:"user_agent"`
	IPAddress   string         `json:"ip_address" db:"ip_address"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// EventTypeCount holds raw and distinct-contact counts for one event type.
type EventTypeCount struct {
	Type           EmailEventType `json:"type"`
	Count          int            `json:"count"`
	UniqueContacts int            `json:"unique_contacts"`
}

// CampaignEventStats is the per-campaign event rollup with derived rates.
// Rates are percentages rounded to two decimals; a zero denominator yields
// a zero rate, never NaN.
type CampaignEventStats struct {
	CampaignID   string  `json:"campaign_id"`
	Sends        int     `json:"sends"`
	UniqueSends  int     `json:"unique_sends"`
	Opens        int     `json:"opens"`
	UniqueOpens  int     `json:"unique_opens"`
	Clicks       int     `json:"clicks"`
	UniqueClicks int     `json:"unique_clicks"`
	OpenRate     float64 `json:"open_rate"`
	ClickRate    float64 `json:"click_rate"`
}

package domain

import "time"

// DonationStatus enumerates payment states surfaced to this backend.
type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
	DonationRefunded  DonationStatus = "refunded"
	DonationFailed    DonationStatus = "failed"
)

// Donation is written by the external payment flow and consumed here for
// attribution and analytics. LinkTokenID/ContactID are captured at checkout
// when the donor arrived through a tracked link.
type Donation struct {
	ID          string         `json:"id" db:"id"`
	CampaignID  string         `json:"campaign_id" db:"campaign_id"`
	DonorEmail  string         `json:"donor_email" db:"donor_email"`
	Amount      float64        `json:"amount" db:"amount"`
	Status      DonationStatus `json:"status" db:"status"`
	LinkTokenID *string        `json:"link_token_id" db:"link_token_id"`
	ContactID   *string        `json:"contact_id" db:"contact_id"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	CompletedAt *time.Time     `json:"completed_at" db:"completed_at"`
}

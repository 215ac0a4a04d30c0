package domain

import "time"

// Segment is a named contact list owned by an organizer.
type Segment struct {
	ID           string    `json:"id" db:"id"`
	OrganizerID  string    `json:"organizer_id" db:"organizer_id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	ContactCount int       `json:"contact_count" db:"contact_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Contact is a single address-book entry. Email is unique within its
// segment, not globally.
type Contact struct {
	ID           string     `json:"id" db:"id"`
	SegmentID    string     `json:"segment_id" db:"segment_id"`
	OrganizerID  string     `json:"organizer_id" db:"organizer_id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Description  string     `json:"description" db:"description"`
	EmailsOpened int        `json:"emails_opened" db:"emails_opened"`
	LastOpenAt   *time.Time `json:"last_open_at" db:"last_open_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

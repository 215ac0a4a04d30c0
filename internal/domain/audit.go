package domain

import "time"

// AuditEntry is one append-only record of an authenticated mutation.
type AuditEntry struct {
	ID          string         `json:"id" db:"id"`
	OrganizerID string         `json:"organizer_id" db:"organizer_id"`
	Action      string         `json:"action" db:"action"`
	EntityType  string         `json:"entity_type" db:"entity_type"`
	EntityID    string         `json:"entity_id" db:"entity_id"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

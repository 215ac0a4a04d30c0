package contact

import (
	"context"

	"github.com/givebridge/givebridge/internal/domain"
)

// Repository defines the data access contract for segments and contacts.
// Implementations must be safe for concurrent use.
type Repository interface {
	// CreateSegment inserts a segment owned by the organizer.
	CreateSegment(ctx context.Context, s *domain.Segment) error

	// GetSegment returns a segment only if the organizer owns it.
	GetSegment(ctx context.Context, id, organizerID string) (*domain.Segment, error)

	// ListSegments returns all segments of an organizer with contact counts.
	ListSegments(ctx context.Context, organizerID string) ([]domain.Segment, error)

	// BulkInsertContacts inserts contacts into one segment, skipping rows
	// whose email already exists in the segment (case-insensitive).
	// Returns the number actually inserted.
	BulkInsertContacts(ctx context.Context, segmentID string, contacts []domain.Contact) (int, error)

	// ListContacts returns a segment's contacts ordered by creation.
	ListContacts(ctx context.Context, segmentID, organizerID string, limit, offset int) ([]domain.Contact, int, error)

	// ContactsBySegment returns every contact of one owned segment.
	ContactsBySegment(ctx context.Context, segmentID, organizerID string) ([]domain.Contact, error)

	// AllContacts returns every contact the organizer owns, de-duplicated
	// by email across segments (first occurrence wins).
	AllContacts(ctx context.Context, organizerID string) ([]domain.Contact, error)

	// GetContact returns a contact only if the organizer owns it.
	GetContact(ctx context.Context, id, organizerID string) (*domain.Contact, error)

	// IncrementOpens bumps the contact's open counter (pixel endpoint).
	IncrementOpens(ctx context.Context, id string) error
}

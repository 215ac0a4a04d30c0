package contact

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
)

// Service implements address book business logic.
type Service struct {
	repo Repository
}

// NewService creates a contact service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateSegment validates and persists a new segment.
func (s *Service) CreateSegment(ctx context.Context, organizerID, name, description string) (*domain.Segment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("segment name is required")
	}
	seg := &domain.Segment{
		ID:          uuid.New().String(),
		OrganizerID: organizerID,
		Name:        strings.TrimSpace(name),
		Description: description,
	}
	if err := s.repo.CreateSegment(ctx, seg); err != nil {
		return nil, err
	}
	return seg, nil
}

// ListSegments returns the organizer's segments.
func (s *Service) ListSegments(ctx context.Context, organizerID string) ([]domain.Segment, error) {
	return s.repo.ListSegments(ctx, organizerID)
}

// ContactInput is one row of a bulk import.
type ContactInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

// BulkResult reports the outcome of a bulk import.
type BulkResult struct {
	CreatedCount    int `json:"created_count"`
	SkippedExisting int `json:"skipped_existing"`
	SkippedInvalid  int `json:"skipped_invalid"`
}

// BulkInsertContacts imports contacts into an owned segment. Rows with a
// malformed email are skipped and counted; rows whose email already exists
// in the segment are skipped by the database, never duplicated. Duplicates
// inside the input batch itself are collapsed before insert.
func (s *Service) BulkInsertContacts(ctx context.Context, segmentID, organizerID string, inputs []ContactInput) (*BulkResult, error) {
	if _, err := s.repo.GetSegment(ctx, segmentID, organizerID); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, apperr.Validation("no contacts provided")
	}

	res := &BulkResult{}
	seen := make(map[string]bool, len(inputs))
	rows := make([]domain.Contact, 0, len(inputs))
	for _, in := range inputs {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			res.SkippedInvalid++
			continue
		}
		if seen[email] {
			res.SkippedExisting++
			continue
		}
		seen[email] = true
		rows = append(rows, domain.Contact{
			ID:          uuid.New().String(),
			SegmentID:   segmentID,
			OrganizerID: organizerID,
			Name:        strings.TrimSpace(in.Name),
			Email:       email,
			Description: in.Description,
		})
	}

	created, err := s.repo.BulkInsertContacts(ctx, segmentID, rows)
	if err != nil {
		return nil, err
	}
	res.CreatedCount = created
	res.SkippedExisting += len(rows) - created
	return res, nil
}

// ListContacts returns a page of an owned segment's contacts.
func (s *Service) ListContacts(ctx context.Context, segmentID, organizerID string, limit, offset int) ([]domain.Contact, int, error) {
	return s.repo.ListContacts(ctx, segmentID, organizerID, limit, offset)
}

// Resolve expands an audience selection into concrete contacts.
func (s *Service) Resolve(ctx context.Context, organizerID string, aud domain.Audience) ([]domain.Contact, error) {
	switch aud.Kind {
	case domain.AudienceContact:
		c, err := s.repo.GetContact(ctx, aud.ContactID, organizerID)
		if err != nil {
			return nil, err
		}
		return []domain.Contact{*c}, nil
	case domain.AudienceSegment:
		return s.repo.ContactsBySegment(ctx, aud.SegmentID, organizerID)
	case domain.AudienceAllContacts:
		return s.repo.AllContacts(ctx, organizerID)
	default:
		return nil, apperr.Validation("unknown audience kind %q", aud.Kind)
	}
}

// RecordOpen bumps a contact's open counter. Best-effort; callers on the
// tracking path swallow the error.
func (s *Service) RecordOpen(ctx context.Context, contactID string) error {
	return s.repo.IncrementOpens(ctx, contactID)
}

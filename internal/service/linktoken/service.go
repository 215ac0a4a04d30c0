package linktoken

import (
	"context"

	"github.com/google/uuid"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
)

// Service implements link token business logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a link token service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds the fields for creating a new link token.
type CreateInput struct {
	CampaignID         string  `json:"campaign_id"`
	ContactID          *string `json:"contact_id"`
	SegmentID          *string `json:"segment_id"`
	OutreachCampaignID *string `json:"outreach_campaign_id"`
	Type               string  `json:"type"`
	PrefillAmount      float64 `json:"prefill_amount"`
	PersonalizedMsg    string  `json:"personalized_message"`
	UTMSource          string  `json:"utm_source"`
	UTMMedium          string  `json:"utm_medium"`
	UTMCampaign        string  `json:"utm_campaign"`
	UTMContent         string  `json:"utm_content"`
}

func (in CreateInput) toToken() *domain.LinkToken {
	return &domain.LinkToken{
		ID:                 uuid.New().String(),
		CampaignID:         in.CampaignID,
		ContactID:          in.ContactID,
		SegmentID:          in.SegmentID,
		OutreachCampaignID: in.OutreachCampaignID,
		Type:               domain.LinkTokenType(in.Type),
		PrefillAmount:      in.PrefillAmount,
		PersonalizedMsg:    in.PersonalizedMsg,
		UTMSource:          in.UTMSource,
		UTMMedium:          in.UTMMedium,
		UTMCampaign:        in.UTMCampaign,
		UTMContent:         in.UTMContent,
	}
}

// Create validates and persists a new token owned by the organizer.
// Exactly one of ContactID/SegmentID must be set, except for share tokens
// which may have neither. Outreach-campaign sends always resolve segments
// to individual contacts first, so their tokens carry a ContactID only.
func (s *Service) Create(ctx context.Context, in CreateInput, organizerID string) (*domain.LinkToken, error) {
	if in.CampaignID == "" {
		return nil, apperr.Validation("campaign_id is required")
	}
	t := domain.LinkTokenType(in.Type)
	if !domain.ValidLinkTokenType(t) {
		return nil, apperr.Validation("invalid link token type %q", in.Type)
	}

	hasContact := in.ContactID != nil && *in.ContactID != ""
	hasSegment := in.SegmentID != nil && *in.SegmentID != ""
	if hasContact && hasSegment {
		return nil, apperr.Validation("contact_id and segment_id are mutually exclusive")
	}
	if !hasContact && !hasSegment && t != domain.TokenShare {
		return nil, apperr.Validation("one of contact_id or segment_id is required for %s tokens", t)
	}

	tok := in.toToken()
	if err := s.repo.Create(ctx, tok, organizerID); err != nil {
		return nil, err
	}
	return tok, nil
}

// CreatePublicShare persists an organizer-less share token for a campaign's
// public share links. Only campaign existence is validated.
func (s *Service) CreatePublicShare(ctx context.Context, in CreateInput) (*domain.LinkToken, error) {
	if in.CampaignID == "" {
		return nil, apperr.Validation("campaign_id is required")
	}
	in.Type = string(domain.TokenShare)
	in.ContactID = nil
	in.SegmentID = nil

	tok := in.toToken()
	if err := s.repo.CreatePublic(ctx, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// GetByID returns a token. An empty organizerID bypasses the ownership
// check; the public tracking endpoints rely on this.
func (s *Service) GetByID(ctx context.Context, id, organizerID string) (*domain.LinkToken, error) {
	if organizerID == "" {
		return s.repo.Get(ctx, id)
	}
	return s.repo.GetForOrganizer(ctx, id, organizerID)
}

// IncrementClickCount atomically bumps the token's click counter.
func (s *Service) IncrementClickCount(ctx context.Context, id string) error {
	return s.repo.IncrementClicks(ctx, id)
}

// DeleteUnsafe removes a token with no ownership check. Callers must only
// use this to compensate a failed send of a token they just created.
func (s *Service) DeleteUnsafe(ctx context.Context, id string) error {
	return s.repo.DeleteUnsafe(ctx, id)
}

package donation

import (
	"context"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/pkg/logger"
)

// TokenDirectory resolves link tokens. Lookups run without ownership
// checks; the payment-completion flow is not authenticated as the
// organizer.
type TokenDirectory interface {
	GetByID(ctx context.Context, id, organizerID string) (*domain.LinkToken, error)
}

// RecipientMarker updates the cached donated flag on recipient rows.
type RecipientMarker interface {
	MarkRecipientDonated(ctx context.Context, outreachCampaignID, contactID string, amount float64) error
}

// RefreshPublisher enqueues a stats-refresh task.
type RefreshPublisher interface {
	PublishRefresh(outreachCampaignID string)
}

// Service attributes donations to outreach tokens and serves donation
// rollups. Donation rows themselves are written by the payment flow.
type Service struct {
	repo       Repository
	tokens     TokenDirectory
	recipients RecipientMarker
	refresh    RefreshPublisher
}

// NewService wires the donation service.
func NewService(repo Repository, tokens TokenDirectory, recipients RecipientMarker, refresh RefreshPublisher) *Service {
	return &Service{repo: repo, tokens: tokens, recipients: recipients, refresh: refresh}
}

// AttributeInput holds the fields the payment-completion flow reports.
// LinkTokenID is set when the donor arrived through a tracked link;
// ContactID may be passed directly when no token was involved.
type AttributeInput struct {
	DonationID  string `json:"donation_id"`
	LinkTokenID string `json:"link_token_id"`
	ContactID   string `json:"contact_id"`
}

// Attribute stamps a completed donation with the link token and contact
// it came through, and flips the matching recipient row's donated cache.
// Attribution is write-once; a second call conflicts.
func (s *Service) Attribute(ctx context.Context, in AttributeInput) (*domain.Donation, error) {
	if in.DonationID == "" {
		return nil, apperr.Validation("donation_id is required")
	}
	if in.LinkTokenID == "" && in.ContactID == "" {
		return nil, apperr.Validation("one of link_token_id or contact_id is required")
	}

	d, err := s.repo.Get(ctx, in.DonationID)
	if err != nil {
		return nil, err
	}
	if d.LinkTokenID != nil || d.ContactID != nil {
		return nil, apperr.Conflict("donation %s is already attributed", d.ID)
	}

	var tokenID, contactID *string
	var tok *domain.LinkToken
	if in.LinkTokenID != "" {
		tok, err = s.tokens.GetByID(ctx, in.LinkTokenID, "")
		if err != nil {
			return nil, err
		}
		if tok.CampaignID != d.CampaignID {
			return nil, apperr.Validation("link token %s belongs to another campaign", tok.ID)
		}
		tokenID = &tok.ID
		contactID = tok.ContactID
	}
	if contactID == nil && in.ContactID != "" {
		contactID = &in.ContactID
	}

	updated, err := s.repo.UpdateAttribution(ctx, d.ID, tokenID, contactID)
	if err != nil {
		return nil, err
	}

	// Cache write; the donations table stays authoritative, so a failure
	// here is logged and repaired by the next stats refresh.
	if tok != nil && tok.OutreachCampaignID != nil && contactID != nil {
		if err := s.recipients.MarkRecipientDonated(ctx, *tok.OutreachCampaignID, *contactID, updated.Amount); err != nil {
			logger.Error("marking recipient donated", "error", err.Error(),
				"outreach_campaign_id", *tok.OutreachCampaignID)
		}
		if s.refresh != nil {
			s.refresh.PublishRefresh(*tok.OutreachCampaignID)
		}
	}

	return updated, nil
}

// ListByCampaign returns a page of a campaign's donations.
func (s *Service) ListByCampaign(ctx context.Context, campaignID, organizerID string, limit, offset int) ([]domain.Donation, int, error) {
	return s.repo.ListByCampaign(ctx, campaignID, organizerID, limit, offset)
}

// StatsByCampaign aggregates completed donations for one campaign.
func (s *Service) StatsByCampaign(ctx context.Context, campaignID string) (*CampaignDonationStats, error) {
	return s.repo.StatsByCampaign(ctx, campaignID)
}

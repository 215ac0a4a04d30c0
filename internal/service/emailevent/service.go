package emailevent

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
)

// Service implements event log business logic.
type Service struct {
	repo Repository
}

// NewService creates an event log service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordInput holds the fields of one event.
type RecordInput struct {
	LinkTokenID string
	ContactID   *string
	Type        domain.EmailEventType
	UserAgent   string
	IPAddress   string
}

// Record appends one event unconditionally. The only validation is the
// event type itself; DB constraint failures surface as database errors.
func (s *Service) Record(ctx context.Context, in RecordInput) error {
	switch in.Type {
	case domain.EventSent, domain.EventOpen, domain.EventClick:
	default:
		return apperr.Validation("invalid event type %q", in.Type)
	}

	return s.repo.Insert(ctx, &domain.EmailEvent{
		ID:          uuid.New().String(),
		LinkTokenID: in.LinkTokenID,
		ContactID:   in.ContactID,
		Type:        in.Type,
		UserAgent:   in.UserAgent,
		IPAddress:   in.IPAddress,
	})
}

// RecordUnique classifies whether this is the first event of its type for
// the (token, contact) pair, atomically. The raw log row is still appended
// separately via Record; this only answers "is it new".
func (s *Service) RecordUnique(ctx context.Context, linkTokenID, contactID string, t domain.EmailEventType) (bool, error) {
	return s.repo.InsertUnique(ctx, linkTokenID, contactID, t)
}

// StatsByCampaign aggregates the event log for one funding campaign and
// derives open/click rates. Zero denominators yield zero rates.
func (s *Service) StatsByCampaign(ctx context.Context, campaignID string) (*domain.CampaignEventStats, error) {
	counts, err := s.repo.TypeCounts(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	stats := &domain.CampaignEventStats{CampaignID: campaignID}
	for _, c := range counts {
		switch c.Type {
		case domain.EventSent:
			stats.Sends = c.Count
			stats.UniqueSends = c.UniqueContacts
		case domain.EventOpen:
			stats.Opens = c.Count
			stats.UniqueOpens = c.UniqueContacts
		case domain.EventClick:
			stats.Clicks = c.Count
			stats.UniqueClicks = c.UniqueContacts
		}
	}

	stats.OpenRate = Rate(stats.UniqueOpens, stats.UniqueSends)
	stats.ClickRate = Rate(stats.UniqueClicks, stats.UniqueOpens)
	return stats, nil
}

// EventsByLinkToken returns the token's events, newest first, scoped to the
// organizer who owns the token's campaign.
func (s *Service) EventsByLinkToken(ctx context.Context, linkTokenID, organizerID string, limit, offset int) ([]domain.EmailEvent, int, error) {
	return s.repo.ListByLinkToken(ctx, linkTokenID, organizerID, limit, offset)
}

// EventsByCampaign returns all events of a funding campaign's tokens.
func (s *Service) EventsByCampaign(ctx context.Context, campaignID, organizerID string, limit, offset int) ([]domain.EmailEvent, int, error) {
	return s.repo.ListByCampaign(ctx, campaignID, organizerID, limit, offset)
}

// EventsByOutreachCampaign returns all events of one outreach campaign.
func (s *Service) EventsByOutreachCampaign(ctx context.Context, outreachCampaignID, organizerID string, limit, offset int) ([]domain.EmailEvent, int, error) {
	return s.repo.ListByOutreachCampaign(ctx, outreachCampaignID, organizerID, limit, offset)
}

// Rate returns num/denom as a percentage rounded to two decimals.
// A zero denominator yields 0, never NaN or Inf.
func Rate(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(denom)*100*100) / 100
}

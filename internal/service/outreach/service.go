package outreach

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/mailer"
	"github.com/givebridge/givebridge/internal/service/emailevent"
	"github.com/givebridge/givebridge/internal/service/linktoken"
	"github.com/givebridge/givebridge/internal/tracking"
)

// CampaignDirectory looks up funding campaigns with ownership enforced.
type CampaignDirectory interface {
	Get(ctx context.Context, id, organizerID string) (*domain.Campaign, error)
}

// ContactDirectory expands audience selections into concrete contacts.
type ContactDirectory interface {
	Resolve(ctx context.Context, organizerID string, aud domain.Audience) ([]domain.Contact, error)
}

// TokenFactory creates and compensates link tokens.
type TokenFactory interface {
	Create(ctx context.Context, in linktoken.CreateInput, organizerID string) (*domain.LinkToken, error)
	DeleteUnsafe(ctx context.Context, id string) error
}

// EventLog appends email events.
type EventLog interface {
	Record(ctx context.Context, in emailevent.RecordInput) error
}

// RefreshPublisher enqueues a stats-refresh task for an outreach campaign.
// Publishing is fire-and-forget; implementations must not block the caller.
type RefreshPublisher interface {
	PublishRefresh(outreachCampaignID string)
}

// Service implements outreach campaign business logic and the send loop.
type Service struct {
	repo      Repository
	campaigns CampaignDirectory
	contacts  ContactDirectory
	tokens    TokenFactory
	events    EventLog
	provider  mailer.Provider
	renderer  *mailer.Renderer
	links     tracking.Links
	refresh   RefreshPublisher
	fromName  string
}

// NewService wires the outreach service.
func NewService(
	repo Repository,
	campaigns CampaignDirectory,
	contacts ContactDirectory,
	tokens TokenFactory,
	events EventLog,
	provider mailer.Provider,
	renderer *mailer.Renderer,
	links tracking.Links,
	refresh RefreshPublisher,
	fromName string,
) *Service {
	return &Service{
		repo:      repo,
		campaigns: campaigns,
		contacts:  contacts,
		tokens:    tokens,
		events:    events,
		provider:  provider,
		renderer:  renderer,
		links:     links,
		refresh:   refresh,
		fromName:  fromName,
	}
}

// CreateInput holds the fields for creating an outreach campaign.
type CreateInput struct {
	CampaignID  string `json:"campaign_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create validates and persists a new outreach campaign in draft state.
func (s *Service) Create(ctx context.Context, in CreateInput, organizerID string) (*domain.OutreachCampaign, error) {
	if in.CampaignID == "" {
		return nil, apperr.Validation("campaign_id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}

	oc := &domain.OutreachCampaign{
		ID:          uuid.New().String(),
		CampaignID:  in.CampaignID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Status:      domain.OutreachDraft,
	}
	if err := s.repo.Create(ctx, oc, organizerID); err != nil {
		return nil, err
	}
	return oc, nil
}

// Get returns one owned outreach campaign.
func (s *Service) Get(ctx context.Context, id, organizerID string) (*domain.OutreachCampaign, error) {
	return s.repo.Get(ctx, id, organizerID)
}

// List returns a funding campaign's outreach campaigns.
func (s *Service) List(ctx context.Context, campaignID, organizerID string, includeArchived bool) ([]domain.OutreachCampaign, error) {
	return s.repo.ListByCampaign(ctx, campaignID, organizerID, includeArchived)
}

// Update applies a partial update. Archived campaigns only accept a
// status change back to active.
func (s *Service) Update(ctx context.Context, id, organizerID string, fields UpdateFields) (*domain.OutreachCampaign, error) {
	if fields.Name != nil && strings.TrimSpace(*fields.Name) == "" {
		return nil, apperr.Validation("name cannot be empty")
	}
	if fields.Status != nil {
		switch *fields.Status {
		case domain.OutreachDraft, domain.OutreachActive, domain.OutreachArchived:
		default:
			return nil, apperr.Validation("invalid status %q", *fields.Status)
		}
	}
	return s.repo.Update(ctx, id, organizerID, fields)
}

// Archive soft-deletes an outreach campaign by flipping its status.
// Its tokens, events, and recipient rows all survive.
func (s *Service) Archive(ctx context.Context, id, organizerID string) (*domain.OutreachCampaign, error) {
	st := domain.OutreachArchived
	return s.repo.Update(ctx, id, organizerID, UpdateFields{Status: &st})
}

// AddResult reports the outcome of adding recipients.
type AddResult struct {
	AddedCount   int `json:"added_count"`
	SkippedCount int `json:"skipped_count"`
}

// AddRecipients resolves an audience and enrolls its contacts as pending
// recipients. Contacts already enrolled are skipped, never duplicated.
func (s *Service) AddRecipients(ctx context.Context, id, organizerID string, aud domain.Audience) (*AddResult, error) {
	oc, err := s.repo.Get(ctx, id, organizerID)
	if err != nil {
		return nil, err
	}
	if oc.Status == domain.OutreachArchived {
		return nil, apperr.Conflict("outreach campaign is archived")
	}

	contacts, err := s.contacts.Resolve(ctx, organizerID, aud)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, apperr.Validation("audience resolved to no contacts")
	}

	rows := make([]domain.OutreachRecipient, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, domain.OutreachRecipient{
			ID:                 uuid.New().String(),
			OutreachCampaignID: oc.ID,
			ContactID:          c.ID,
			Email:              c.Email,
			Status:             domain.RecipientPending,
		})
	}

	added, err := s.repo.AddRecipients(ctx, oc.ID, rows)
	if err != nil {
		return nil, err
	}
	return &AddResult{AddedCount: added, SkippedCount: len(rows) - added}, nil
}

// Recipients returns an outreach campaign's recipient rows.
func (s *Service) Recipients(ctx context.Context, id, organizerID string) ([]domain.OutreachRecipient, error) {
	return s.repo.Recipients(ctx, id, organizerID)
}

// Stats returns the aggregate snapshot for one outreach campaign.
func (s *Service) Stats(ctx context.Context, id, organizerID string) (*domain.OutreachCampaignStats, error) {
	return s.repo.Stats(ctx, id, organizerID)
}

// SendInput holds the per-batch options of a send operation.
type SendInput struct {
	PrefillAmount   float64                 `json:"prefill_amount"`
	PersonalMessage string                  `json:"personal_message"`
	Filter          domain.EngagementFilter `json:"filter"` // update sends only
}

// SendResult is the outcome for one recipient.
type SendResult struct {
	RecipientID string                 `json:"recipient_id"`
	ContactID   string                 `json:"contact_id"`
	Email       string                 `json:"email"`
	Status      domain.RecipientStatus `json:"status"`
	Error       string                 `json:"error,omitempty"`
}

// SendReport summarizes one send batch.
type SendReport struct {
	OutreachCampaignID string       `json:"outreach_campaign_id"`
	Attempted          int          `json:"attempted"`
	Sent               int          `json:"sent"`
	Failed             int          `json:"failed"`
	Results            []SendResult `json:"results"`
}

// SendInvitations sends the invite email to every recipient that has not
// been sent to yet.
func (s *Service) SendInvitations(ctx context.Context, id, organizerID string, in SendInput) (*SendReport, error) {
	oc, campaign, err := s.sendable(ctx, id, organizerID)
	if err != nil {
		return nil, err
	}
	recips, err := s.repo.RecipientsByStatus(ctx, oc.ID, domain.RecipientPending)
	if err != nil {
		return nil, err
	}
	return s.sendBatch(ctx, oc, campaign, organizerID, recips, domain.TokenInvite, in)
}

// SendUpdates sends the progress-update email to recipients matching the
// engagement filter. An empty filter means all recipients already sent to.
func (s *Service) SendUpdates(ctx context.Context, id, organizerID string, in SendInput) (*SendReport, error) {
	oc, campaign, err := s.sendable(ctx, id, organizerID)
	if err != nil {
		return nil, err
	}

	filter := in.Filter
	if filter == "" {
		filter = domain.EngageAll
	}
	switch filter {
	case domain.EngageAll, domain.EngageOpenedNotClicked, domain.EngageClickedNotDonated, domain.EngageDonated:
	default:
		return nil, apperr.Validation("invalid engagement filter %q", filter)
	}

	recips, err := s.repo.RecipientsByEngagement(ctx, oc.ID, filter)
	if err != nil {
		return nil, err
	}
	return s.sendBatch(ctx, oc, campaign, organizerID, recips, domain.TokenUpdate, in)
}

// SendThanks sends the thank-you email to recipients who donated.
func (s *Service) SendThanks(ctx context.Context, id, organizerID string, in SendInput) (*SendReport, error) {
	oc, campaign, err := s.sendable(ctx, id, organizerID)
	if err != nil {
		return nil, err
	}
	recips, err := s.repo.RecipientsByEngagement(ctx, oc.ID, domain.EngageDonated)
	if err != nil {
		return nil, err
	}
	return s.sendBatch(ctx, oc, campaign, organizerID, recips, domain.TokenThanks, in)
}

// ResendFailed retries delivery for every recipient whose last send
// failed, using the invite template.
func (s *Service) ResendFailed(ctx context.Context, id, organizerID string, in SendInput) (*SendReport, error) {
	oc, campaign, err := s.sendable(ctx, id, organizerID)
	if err != nil {
		return nil, err
	}
	recips, err := s.repo.RecipientsByStatus(ctx, oc.ID, domain.RecipientFailed)
	if err != nil {
		return nil, err
	}
	return s.sendBatch(ctx, oc, campaign, organizerID, recips, domain.TokenInvite, in)
}

// DirectSendInput holds the fields of a one-off tracked send outside any
// outreach campaign.
type DirectSendInput struct {
	CampaignID      string          `json:"campaign_id"`
	Audience        domain.Audience `json:"audience"`
	Type            string          `json:"type"`
	PrefillAmount   float64         `json:"prefill_amount"`
	PersonalMessage string          `json:"personal_message"`
}

// SendDirect delivers a tracked email to an audience without enrolling it
// in an outreach campaign. Tokens carry the contact only.
func (s *Service) SendDirect(ctx context.Context, organizerID string, in DirectSendInput) (*SendReport, error) {
	campaign, err := s.campaigns.Get(ctx, in.CampaignID, organizerID)
	if err != nil {
		return nil, err
	}

	t := domain.LinkTokenType(in.Type)
	switch t {
	case domain.TokenInvite, domain.TokenUpdate, domain.TokenThanks:
	default:
		return nil, apperr.Validation("invalid send type %q", in.Type)
	}

	contacts, err := s.contacts.Resolve(ctx, organizerID, in.Audience)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, apperr.Validation("audience resolved to no contacts")
	}

	report := &SendReport{Attempted: len(contacts)}
	for _, c := range contacts {
		res := SendResult{ContactID: c.ID, Email: c.Email}
		err := s.sendOne(ctx, campaign, organizerID, nil, c.ID, c.Name, c.Email, t, "direct", SendInput{
			PrefillAmount:   in.PrefillAmount,
			PersonalMessage: in.PersonalMessage,
		})
		if err != nil {
			res.Status = domain.RecipientFailed
			res.Error = err.Error()
			report.Failed++
		} else {
			res.Status = domain.RecipientSent
			report.Sent++
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// sendable loads the outreach campaign and its funding campaign and
// rejects sends to archived batches or terminal campaigns.
func (s *Service) sendable(ctx context.Context, id, organizerID string) (*domain.OutreachCampaign, *domain.Campaign, error) {
	oc, err := s.repo.Get(ctx, id, organizerID)
	if err != nil {
		return nil, nil, err
	}
	if oc.Status == domain.OutreachArchived {
		return nil, nil, apperr.Conflict("outreach campaign is archived")
	}
	campaign, err := s.campaigns.Get(ctx, oc.CampaignID, organizerID)
	if err != nil {
		return nil, nil, err
	}
	if campaign.IsTerminal() {
		return nil, nil, apperr.Conflict("campaign %s is %s", campaign.ID, campaign.Status)
	}
	return oc, campaign, nil
}

// sendBatch runs the per-recipient send loop sequentially. Each failure
// is isolated: the recipient is marked failed and the loop moves on.
func (s *Service) sendBatch(ctx context.Context, oc *domain.OutreachCampaign, campaign *domain.Campaign, organizerID string, recips []domain.OutreachRecipient, t domain.LinkTokenType, in SendInput) (*SendReport, error) {
	report := &SendReport{OutreachCampaignID: oc.ID, Attempted: len(recips)}

	for _, r := range recips {
		res := SendResult{RecipientID: r.ID, ContactID: r.ContactID, Email: r.Email}

		err := s.sendOne(ctx, campaign, organizerID, &oc.ID, r.ContactID, "", r.Email, t, oc.Name, in)
		if err != nil {
			if mErr := s.repo.MarkRecipientFailed(ctx, r.ID, err.Error()); mErr != nil {
				err = mErr
			}
			res.Status = domain.RecipientFailed
			res.Error = err.Error()
			report.Failed++
		} else {
			if err := s.repo.MarkRecipientSent(ctx, r.ID, time.Now().UTC()); err != nil {
				res.Error = err.Error()
			}
			res.Status = domain.RecipientSent
			report.Sent++
		}
		report.Results = append(report.Results, res)
	}

	if report.Sent > 0 && oc.Status == domain.OutreachDraft {
		st := domain.OutreachActive
		if _, err := s.repo.Update(ctx, oc.ID, organizerID, UpdateFields{Status: &st}); err != nil {
			return report, err
		}
	}
	if s.refresh != nil {
		s.refresh.PublishRefresh(oc.ID)
	}
	return report, nil
}

// sendOne creates the token, renders the email, and delivers it. On a
// delivery failure the token is deleted so it never shows up in stats.
func (s *Service) sendOne(ctx context.Context, campaign *domain.Campaign, organizerID string, outreachID *string, contactID, contactName, email string, t domain.LinkTokenType, utmCampaign string, in SendInput) error {
	tok, err := s.tokens.Create(ctx, linktoken.CreateInput{
		CampaignID:         campaign.ID,
		ContactID:          &contactID,
		OutreachCampaignID: outreachID,
		Type:               string(t),
		PrefillAmount:      in.PrefillAmount,
		PersonalizedMsg:    in.PersonalMessage,
		UTMSource:          "email",
		UTMMedium:          "outreach",
		UTMCampaign:        utmCampaign,
		UTMContent:         string(t),
	}, organizerID)
	if err != nil {
		return err
	}

	subject, body, err := s.renderer.Render(t, mailer.TemplateVars{
		RecipientName:   contactName,
		OrganizerName:   s.fromName,
		CampaignTitle:   campaign.Title,
		GoalAmount:      campaign.GoalAmount,
		RaisedAmount:    campaign.RaisedAmount,
		PersonalMessage: in.PersonalMessage,
		ClickURL:        s.links.ClickURL(tok.ID),
		PixelURL:        s.links.PixelURL(tok.ID),
		PrefillAmount:   in.PrefillAmount,
	})
	if err == nil {
		err = s.provider.Send(ctx, mailer.Message{
			To:       email,
			ToName:   contactName,
			Subject:  subject,
			HTMLBody: body,
		})
	}
	if err != nil {
		// Compensate: a token with no email behind it must not exist.
		if delErr := s.tokens.DeleteUnsafe(ctx, tok.ID); delErr != nil {
			err = apperr.Database(delErr, "deleting token after failed send")
		}
		return err
	}

	return s.events.Record(ctx, emailevent.RecordInput{
		LinkTokenID: tok.ID,
		ContactID:   &contactID,
		Type:        domain.EventSent,
	})
}

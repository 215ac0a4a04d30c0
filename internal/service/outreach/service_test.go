package outreach_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/mailer"
	"github.com/givebridge/givebridge/internal/service/emailevent"
	"github.com/givebridge/givebridge/internal/service/linktoken"
	"github.com/givebridge/givebridge/internal/service/outreach"
	"github.com/givebridge/givebridge/internal/tracking"
)

const testOrg = "org-1"

type fakeRepo struct {
	mu         sync.Mutex
	campaigns  map[string]*domain.OutreachCampaign
	recipients map[string]*domain.OutreachRecipient
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		campaigns:  make(map[string]*domain.OutreachCampaign),
		recipients: make(map[string]*domain.OutreachRecipient),
	}
}

func (f *fakeRepo) Create(_ context.Context, oc *domain.OutreachCampaign, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.campaigns {
		if existing.CampaignID == oc.CampaignID && existing.Name == oc.Name {
			return apperr.Conflict("outreach campaign %q already exists", oc.Name)
		}
	}
	cp := *oc
	f.campaigns[oc.ID] = &cp
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id, _ string) (*domain.OutreachCampaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	oc, ok := f.campaigns[id]
	if !ok {
		return nil, apperr.NotFound("outreach campaign not found")
	}
	cp := *oc
	return &cp, nil
}

func (f *fakeRepo) ListByCampaign(_ context.Context, campaignID, _ string, includeArchived bool) ([]domain.OutreachCampaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.OutreachCampaign
	for _, oc := range f.campaigns {
		if oc.CampaignID != campaignID {
			continue
		}
		if oc.Status == domain.OutreachArchived && !includeArchived {
			continue
		}
		out = append(out, *oc)
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, id, _ string, fields outreach.UpdateFields) (*domain.OutreachCampaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	oc, ok := f.campaigns[id]
	if !ok {
		return nil, apperr.NotFound("outreach campaign not found")
	}
	if fields.Name != nil {
		oc.Name = *fields.Name
	}
	if fields.Description != nil {
		oc.Description = *fields.Description
	}
	if fields.Status != nil {
		oc.Status = *fields.Status
	}
	cp := *oc
	return &cp, nil
}

func (f *fakeRepo) AddRecipients(_ context.Context, outreachCampaignID string, rows []domain.OutreachRecipient) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	enrolled := map[string]bool{}
	for _, r := range f.recipients {
		if r.OutreachCampaignID == outreachCampaignID {
			enrolled[r.ContactID] = true
		}
	}
	added := 0
	for _, r := range rows {
		if enrolled[r.ContactID] {
			continue
		}
		enrolled[r.ContactID] = true
		cp := r
		f.recipients[r.ID] = &cp
		added++
	}
	return added, nil
}

func (f *fakeRepo) Recipients(_ context.Context, outreachCampaignID, _ string) ([]domain.OutreachRecipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.OutreachRecipient
	for _, r := range f.recipients {
		if r.OutreachCampaignID == outreachCampaignID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) RecipientsByStatus(_ context.Context, outreachCampaignID string, status domain.RecipientStatus) ([]domain.OutreachRecipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.OutreachRecipient
	for _, r := range f.recipients {
		if r.OutreachCampaignID == outreachCampaignID && r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) RecipientsByEngagement(_ context.Context, outreachCampaignID string, filter domain.EngagementFilter) ([]domain.OutreachRecipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.OutreachRecipient
	for _, r := range f.recipients {
		if r.OutreachCampaignID != outreachCampaignID || r.Status != domain.RecipientSent {
			continue
		}
		switch filter {
		case domain.EngageAll:
		case domain.EngageOpenedNotClicked:
			if !r.Opened || r.Clicked {
				continue
			}
		case domain.EngageClickedNotDonated:
			if !r.Clicked || r.Donated {
				continue
			}
		case domain.EngageDonated:
			if !r.Donated {
				continue
			}
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) MarkRecipientSent(_ context.Context, recipientID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipients[recipientID]
	if !ok {
		return apperr.NotFound("recipient not found")
	}
	r.Status = domain.RecipientSent
	r.LastSendAt = &at
	r.FailureReason = ""
	return nil
}

func (f *fakeRepo) MarkRecipientFailed(_ context.Context, recipientID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipients[recipientID]
	if !ok {
		return apperr.NotFound("recipient not found")
	}
	r.Status = domain.RecipientFailed
	r.FailureReason = reason
	return nil
}

func (f *fakeRepo) MarkRecipientDonated(_ context.Context, outreachCampaignID, contactID string, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recipients {
		if r.OutreachCampaignID == outreachCampaignID && r.ContactID == contactID {
			r.Donated = true
			r.DonatedAmount += amount
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) Stats(_ context.Context, outreachCampaignID, _ string) (*domain.OutreachCampaignStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &domain.OutreachCampaignStats{OutreachCampaignID: outreachCampaignID}
	for _, r := range f.recipients {
		if r.OutreachCampaignID != outreachCampaignID {
			continue
		}
		stats.Recipients++
		switch r.Status {
		case domain.RecipientSent:
			stats.Sends++
		case domain.RecipientFailed:
			stats.Failures++
		}
	}
	return stats, nil
}

type fakeCampaigns struct {
	byID map[string]*domain.Campaign
}

func (f *fakeCampaigns) Get(_ context.Context, id, organizerID string) (*domain.Campaign, error) {
	c, ok := f.byID[id]
	if !ok || c.OrganizerID != organizerID {
		return nil, apperr.NotFound("campaign not found")
	}
	cp := *c
	return &cp, nil
}

type fakeContacts struct {
	contacts []domain.Contact
}

func (f *fakeContacts) Resolve(_ context.Context, _ string, aud domain.Audience) ([]domain.Contact, error) {
	switch aud.Kind {
	case domain.AudienceContact:
		for _, c := range f.contacts {
			if c.ID == aud.ContactID {
				return []domain.Contact{c}, nil
			}
		}
		return nil, apperr.NotFound("contact not found")
	case domain.AudienceSegment, domain.AudienceAllContacts:
		return f.contacts, nil
	}
	return nil, apperr.Validation("unknown audience kind %q", aud.Kind)
}

type fakeTokens struct {
	mu      sync.Mutex
	created []domain.LinkToken
	deleted []string
	seq     int
}

func (f *fakeTokens) Create(_ context.Context, in linktoken.CreateInput, _ string) (*domain.LinkToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	tok := domain.LinkToken{
		ID:                 fmt.Sprintf("tok-%d", f.seq),
		CampaignID:         in.CampaignID,
		ContactID:          in.ContactID,
		OutreachCampaignID: in.OutreachCampaignID,
		Type:               domain.LinkTokenType(in.Type),
		PrefillAmount:      in.PrefillAmount,
		UTMCampaign:        in.UTMCampaign,
	}
	f.created = append(f.created, tok)
	return &tok, nil
}

func (f *fakeTokens) DeleteUnsafe(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeEvents struct {
	mu       sync.Mutex
	recorded []emailevent.RecordInput
}

func (f *fakeEvents) Record(_ context.Context, in emailevent.RecordInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, in)
	return nil
}

type fakeProvider struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail map[string]bool
}

func (f *fakeProvider) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[msg.To] {
		return errors.New("smtp 550 mailbox unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeRefresh struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeRefresh) PublishRefresh(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
}

type fixture struct {
	svc      *outreach.Service
	repo     *fakeRepo
	tokens   *fakeTokens
	events   *fakeEvents
	provider *fakeProvider
	refresh  *fakeRefresh
}

func newFixture(t *testing.T, contacts []domain.Contact) (*fixture, *domain.OutreachCampaign) {
	t.Helper()

	repo := newFakeRepo()
	tokens := &fakeTokens{}
	events := &fakeEvents{}
	provider := &fakeProvider{fail: map[string]bool{}}
	refresh := &fakeRefresh{}
	campaigns := &fakeCampaigns{byID: map[string]*domain.Campaign{
		"camp-1": {
			ID:          "camp-1",
			OrganizerID: testOrg,
			Title:       "River Cleanup",
			Status:      domain.CampaignActive,
			GoalAmount:  5000,
		},
	}}

	svc := outreach.NewService(
		repo,
		campaigns,
		&fakeContacts{contacts: contacts},
		tokens,
		events,
		provider,
		mailer.NewRenderer(),
		tracking.Links{BaseURL: "https://track.example.com", FrontendURL: "https://give.example.com"},
		refresh,
		"Grace",
	)

	oc, err := svc.Create(context.Background(), outreach.CreateInput{
		CampaignID: "camp-1",
		Name:       "Spring Drive",
	}, testOrg)
	require.NoError(t, err)

	return &fixture{svc: svc, repo: repo, tokens: tokens, events: events, provider: provider, refresh: refresh}, oc
}

func springContacts() []domain.Contact {
	return []domain.Contact{
		{ID: "con-a", OrganizerID: testOrg, Name: "Ada", Email: "ada@example.com"},
		{ID: "con-b", OrganizerID: testOrg, Name: "Grace", Email: "grace@example.com"},
		{ID: "con-c", OrganizerID: testOrg, Name: "Lin", Email: "lin@example.com"},
	}
}

func TestCreateDuplicateNameConflicts(t *testing.T) {
	fix, _ := newFixture(t, nil)
	_, err := fix.svc.Create(context.Background(), outreach.CreateInput{
		CampaignID: "camp-1",
		Name:       "Spring Drive",
	}, testOrg)
	assert.True(t, apperr.IsConflict(err))
}

func TestAddRecipientsSkipsEnrolled(t *testing.T) {
	fix, oc := newFixture(t, springContacts())
	ctx := context.Background()

	first, err := fix.svc.AddRecipients(ctx, oc.ID, testOrg, domain.Audience{Kind: domain.AudienceAllContacts})
	require.NoError(t, err)
	assert.Equal(t, 3, first.AddedCount)

	second, err := fix.svc.AddRecipients(ctx, oc.ID, testOrg, domain.Audience{Kind: domain.AudienceAllContacts})
	require.NoError(t, err)
	assert.Equal(t, 0, second.AddedCount)
	assert.Equal(t, 3, second.SkippedCount)
}

func TestSendInvitations(t *testing.T) {
	fix, oc := newFixture(t, springContacts())
	ctx := context.Background()

	_, err := fix.svc.AddRecipients(ctx, oc.ID, testOrg, domain.Audience{Kind: domain.AudienceAllContacts})
	require.NoError(t, err)

	report, err := fix.svc.SendInvitations(ctx, oc.ID, testOrg, outreach.SendInput{PrefillAmount: 25})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 3, report.Sent)
	assert.Equal(t, 0, report.Failed)

	// one token per recipient, each tied to the outreach campaign
	require.Len(t, fix.tokens.created, 3)
	for _, tok := range fix.tokens.created {
		require.NotNil(t, tok.OutreachCampaignID)
		assert.Equal(t, oc.ID, *tok.OutreachCampaignID)
		assert.Equal(t, domain.TokenInvite, tok.Type)
		assert.Equal(t, "Spring Drive", tok.UTMCampaign)
	}

	// one sent event per delivery
	require.Len(t, fix.events.recorded, 3)
	for _, e := range fix.events.recorded {
		assert.Equal(t, domain.EventSent, e.Type)
	}

	// draft flips to active, and a refresh is queued
	updated, err := fix.svc.Get(ctx, oc.ID, testOrg)
	require.NoError(t, err)
	assert.Equal(t, domain.OutreachActive, updated.Status)
	assert.Equal(t, []string{oc.ID}, fix.refresh.ids)

	// a second invitation pass finds nothing pending
	again, err := fix.svc.SendInvitations(ctx, oc.ID, testOrg, outreach.SendInput{})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Attempted)
}

func TestSendPartialFailureCompensatesToken(t *testing.T) {
	fix, oc := newFixture(t, springContacts())
	ctx := context.Background()

	_, err := fix.svc.AddRecipients(ctx, oc.ID, testOrg, domain.Audience{Kind: domain.AudienceAllContacts})
	require.NoError(t, err)

	fix.provider.fail["grace@example.com"] = true

	report, err := fix.svc.SendInvitations(ctx, oc.ID, testOrg, outreach.SendInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)

	// the failed recipient's token was deleted, the others were not
	require.Len(t, fix.tokens.deleted, 1)
	assert.Len(t, fix.events.recorded, 2)

	// the failed recipient keeps the failure reason and stays retryable
	recips, err := fix.svc.Recipients(ctx, oc.ID, testOrg)
	require.NoError(t, err)
	var failed *domain.OutreachRecipient
	for i := range recips {
		if recips[i].Status == domain.RecipientFailed {
			failed = &recips[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "grace@example.com", failed.Email)
	assert.Contains(t, failed.FailureReason, "mailbox unavailable")

	// resend-failed retries only that one
	fix.provider.fail = map[string]bool{}
	retry, err := fix.svc.ResendFailed(ctx, oc.ID, testOrg, outreach.SendInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Attempted)
	assert.Equal(t, 1, retry.Sent)
}

func TestSendUpdatesHonorsEngagementFilter(t *testing.T) {
	fix, oc := newFixture(t, springContacts())
	ctx := context.Background()

	_, err := fix.svc.AddRecipients(ctx, oc.ID, testOrg, domain.Audience{Kind: domain.AudienceAllContacts})
	require.NoError(t, err)
	_, err = fix.svc.SendInvitations(ctx, oc.ID, testOrg, outreach.SendInput{})
	require.NoError(t, err)

	// only Ada opened without clicking
	for _, r := range fix.repo.recipients {
		if r.ContactID == "con-a" {
			r.Opened = true
		}
	}

	report, err := fix.svc.SendUpdates(ctx, oc.ID, testOrg, outreach.SendInput{
		Filter: domain.EngageOpenedNotClicked,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, "ada@example.com", report.Results[0].Email)
}

func TestSendUpdatesRejectsUnknownFilter(t *testing.T) {
	fix, oc := newFixture(t, springContacts())
	_, err := fix.svc.SendUpdates(context.Background(), oc.ID, testOrg, outreach.SendInput{
		Filter: domain.EngagementFilter("bounced"),
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestSendThanksTargetsDonors(t *testing.T) {
	fix, oc := newFixture(t, springContacts())
	ctx := context.Background()

	_, err := fix.svc.AddRecipients(ctx, oc.ID, testOrg, domain.Audience{Kind: domain.AudienceAllContacts})
	require.NoError(t, err)
	_, err = fix.svc.SendInvitations(ctx, oc.ID, testOrg, outreach.SendInput{})
	require.NoError(t, err)

	require.NoError(t, fix.repo.MarkRecipientDonated(ctx, oc.ID, "con-c", 50))

	report, err := fix.svc.SendThanks(ctx, oc.ID, testOrg, outreach.SendInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, "lin@example.com", report.Results[0].Email)
}

func TestSendToArchivedRejected(t *testing.T) {
	fix, oc := newFixture(t, springContacts())
	ctx := context.Background()

	_, err := fix.svc.Archive(ctx, oc.ID, testOrg)
	require.NoError(t, err)

	_, err = fix.svc.SendInvitations(ctx, oc.ID, testOrg, outreach.SendInput{})
	assert.True(t, apperr.IsConflict(err))

	_, err = fix.svc.AddRecipients(ctx, oc.ID, testOrg, domain.Audience{Kind: domain.AudienceAllContacts})
	assert.True(t, apperr.IsConflict(err))
}

func TestSendDirect(t *testing.T) {
	fix, _ := newFixture(t, springContacts())

	report, err := fix.svc.SendDirect(context.Background(), testOrg, outreach.DirectSendInput{
		CampaignID: "camp-1",
		Audience:   domain.Audience{Kind: domain.AudienceContact, ContactID: "con-a"},
		Type:       "invite",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)

	// direct sends never belong to an outreach campaign
	require.Len(t, fix.tokens.created, 1)
	assert.Nil(t, fix.tokens.created[0].OutreachCampaignID)

	_, err = fix.svc.SendDirect(context.Background(), testOrg, outreach.DirectSendInput{
		CampaignID: "camp-1",
		Audience:   domain.Audience{Kind: domain.AudienceContact, ContactID: "con-a"},
		Type:       "share",
	})
	assert.True(t, apperr.IsValidation(err))
}

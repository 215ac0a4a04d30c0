package donation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/service/donation"
)

type memRepo struct {
	mu        sync.Mutex
	donations map[string]*domain.Donation
}

func newMemRepo(ds ...*domain.Donation) *memRepo {
	m := &memRepo{donations: make(map[string]*domain.Donation)}
	for _, d := range ds {
		m.donations[d.ID] = d
	}
	return m
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.donations[id]
	if !ok {
		return nil, apperr.NotFound("donation not found")
	}
	cp := *d
	return &cp, nil
}

func (m *memRepo) UpdateAttribution(_ context.Context, id string, linkTokenID, contactID *string) (*domain.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.donations[id]
	if !ok {
		return nil, apperr.NotFound("donation not found")
	}
	d.LinkTokenID = linkTokenID
	d.ContactID = contactID
	cp := *d
	return &cp, nil
}

func (m *memRepo) ListByCampaign(_ context.Context, campaignID, _ string, _, _ int) ([]domain.Donation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Donation
	for _, d := range m.donations {
		if d.CampaignID == campaignID {
			out = append(out, *d)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) StatsByCampaign(_ context.Context, campaignID string) (*donation.CampaignDonationStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &donation.CampaignDonationStats{CampaignID: campaignID}
	for _, d := range m.donations {
		if d.CampaignID != campaignID || d.Status != domain.DonationCompleted {
			continue
		}
		stats.DonationCount++
		stats.TotalAmount += d.Amount
		if d.LinkTokenID != nil {
			stats.AttributedCount++
			stats.AttributedTotal += d.Amount
		}
	}
	return stats, nil
}

type fakeTokens struct {
	byID map[string]*domain.LinkToken
}

func (f *fakeTokens) GetByID(_ context.Context, id, _ string) (*domain.LinkToken, error) {
	tok, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("link token not found")
	}
	cp := *tok
	return &cp, nil
}

type markCall struct {
	outreachID string
	contactID  string
	amount     float64
}

type fakeRecipients struct {
	mu    sync.Mutex
	calls []markCall
}

func (f *fakeRecipients) MarkRecipientDonated(_ context.Context, outreachID, contactID string, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, markCall{outreachID, contactID, amount})
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

func strptr(s string) *string { return &s }

func newService(ds ...*domain.Donation) (*donation.Service, *fakeRecipients, *fakeRefresh) {
	recipients := &fakeRecipients{}
	refresh := &fakeRefresh{}
	tokens := &fakeTokens{byID: map[string]*domain.LinkToken{
		"tok-1": {
			ID:                 "tok-1",
			CampaignID:         "camp-1",
			ContactID:          strptr("con-a"),
			OutreachCampaignID: strptr("oc-1"),
			Type:               domain.TokenInvite,
		},
		"tok-share": {
			ID:         "tok-share",
			CampaignID: "camp-1",
			Type:       domain.TokenShare,
		},
	}}
	return donation.NewService(newMemRepo(ds...), tokens, recipients, refresh), recipients, refresh
}

func completedDonation(id string) *domain.Donation {
	return &domain.Donation{
		ID:         id,
		CampaignID: "camp-1",
		DonorEmail: "ada@example.com",
		Amount:     50,
		Status:     domain.DonationCompleted,
	}
}

func TestAttributeTrackedDonation(t *testing.T) {
	svc, recipients, refresh := newService(completedDonation("don-1"))

	d, err := svc.Attribute(context.Background(), donation.AttributeInput{
		DonationID:  "don-1",
		LinkTokenID: "tok-1",
	})
	require.NoError(t, err)

	require.NotNil(t, d.LinkTokenID)
	assert.Equal(t, "tok-1", *d.LinkTokenID)
	require.NotNil(t, d.ContactID)
	assert.Equal(t, "con-a", *d.ContactID)

	require.Len(t, recipients.calls, 1)
	assert.Equal(t, markCall{"oc-1", "con-a", 50}, recipients.calls[0])
	assert.Equal(t, []string{"oc-1"}, refresh.ids)

	stats, err := svc.StatsByCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AttributedCount)
	assert.Equal(t, 50.0, stats.AttributedTotal)
}

func TestAttributeIsWriteOnce(t *testing.T) {
	svc, _, _ := newService(completedDonation("don-1"))
	ctx := context.Background()

	_, err := svc.Attribute(ctx, donation.AttributeInput{DonationID: "don-1", LinkTokenID: "tok-1"})
	require.NoError(t, err)

	_, err = svc.Attribute(ctx, donation.AttributeInput{DonationID: "don-1", LinkTokenID: "tok-1"})
	assert.True(t, apperr.IsConflict(err))
}

func TestAttributeUnknownToken(t *testing.T) {
	svc, recipients, _ := newService(completedDonation("don-1"))

	_, err := svc.Attribute(context.Background(), donation.AttributeInput{
		DonationID:  "don-1",
		LinkTokenID: "tok-gone",
	})
	assert.True(t, apperr.IsNotFound(err))
	assert.Empty(t, recipients.calls)
}

func TestAttributeMismatchedCampaign(t *testing.T) {
	other := completedDonation("don-2")
	other.CampaignID = "camp-2"
	svc, recipients, _ := newService(other)

	_, err := svc.Attribute(context.Background(), donation.AttributeInput{
		DonationID:  "don-2",
		LinkTokenID: "tok-1",
	})
	assert.True(t, apperr.IsValidation(err))
	assert.Empty(t, recipients.calls)
}

func TestAttributeShareTokenSkipsRecipientCache(t *testing.T) {
	svc, recipients, refresh := newService(completedDonation("don-1"))

	d, err := svc.Attribute(context.Background(), donation.AttributeInput{
		DonationID:  "don-1",
		LinkTokenID: "tok-share",
	})
	require.NoError(t, err)

	require.NotNil(t, d.LinkTokenID)
	assert.Nil(t, d.ContactID)
	assert.Empty(t, recipients.calls)
	assert.Empty(t, refresh.ids)
}

func TestAttributeContactOnly(t *testing.T) {
	svc, recipients, _ := newService(completedDonation("don-1"))

	d, err := svc.Attribute(context.Background(), donation.AttributeInput{
		DonationID: "don-1",
		ContactID:  "con-b",
	})
	require.NoError(t, err)

	assert.Nil(t, d.LinkTokenID)
	require.NotNil(t, d.ContactID)
	assert.Equal(t, "con-b", *d.ContactID)
	// no token, so no recipient row to flip
	assert.Empty(t, recipients.calls)
}

func TestAttributeValidation(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Attribute(context.Background(), donation.AttributeInput{LinkTokenID: "tok-1"})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Attribute(context.Background(), donation.AttributeInput{DonationID: "don-1"})
	assert.True(t, apperr.IsValidation(err))
}

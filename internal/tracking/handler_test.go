package tracking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/service/emailevent"
)

type fakeTokens struct {
	tokens map[string]*domain.LinkToken
	clicks map[string]int
}

func (f *fakeTokens) GetByID(_ context.Context, id, _ string) (*domain.LinkToken, error) {
	tok, ok := f.tokens[id]
	if !ok {
		return nil, apperr.NotFound("link token not found")
	}
	return tok, nil
}

func (f *fakeTokens) IncrementClickCount(_ context.Context, id string) error {
	f.clicks[id]++
	return nil
}

type fakeEvents struct {
	recorded  []emailevent.RecordInput
	seen      map[string]bool
	uniqueErr error
}

func (f *fakeEvents) Record(_ context.Context, in emailevent.RecordInput) error {
	f.recorded = append(f.recorded, in)
	return nil
}

func (f *fakeEvents) RecordUnique(_ context.Context, linkTokenID, contactID string, t domain.EmailEventType) (bool, error) {
	if f.uniqueErr != nil {
		return false, f.uniqueErr
	}
	key := linkTokenID + "|" + contactID + "|" + string(t)
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

type fakeContacts struct{ opens map[string]int }

func (f *fakeContacts) RecordOpen(_ context.Context, contactID string) error {
	f.opens[contactID]++
	return nil
}

type fakeRecipients struct {
	opened  []string
	clicked []string
}

func (f *fakeRecipients) MarkRecipientOpened(_ context.Context, ocID, contactID string) error {
	f.opened = append(f.opened, ocID+"/"+contactID)
	return nil
}

func (f *fakeRecipients) MarkRecipientClicked(_ context.Context, ocID, contactID string) error {
	f.clicked = append(f.clicked, ocID+"/"+contactID)
	return nil
}

type fakeSlugs struct{ slugs map[string]string }

func (f *fakeSlugs) Slug(_ context.Context, campaignID string) (string, error) {
	slug, ok := f.slugs[campaignID]
	if !ok {
		return "", apperr.NotFound("campaign not found")
	}
	return slug, nil
}

type fakePub struct{ refreshed []string }

func (f *fakePub) PublishRefresh(ocID string) { f.refreshed = append(f.refreshed, ocID) }

type trackingFixture struct {
	handler    *Handler
	tokens     *fakeTokens
	events     *fakeEvents
	contacts   *fakeContacts
	recipients *fakeRecipients
}

func newTrackingFixture(t *testing.T) *trackingFixture {
	t.Helper()

	contactID := "contact-1"
	ocID := "oc-1"
	tokens := &fakeTokens{
		tokens: map[string]*domain.LinkToken{
			"tok-invite": {
				ID:                 "tok-invite",
				CampaignID:         "camp-1",
				ContactID:          &contactID,
				OutreachCampaignID: &ocID,
				Type:               domain.TokenInvite,
				PrefillAmount:      25,
				UTMSource:          "email",
				UTMMedium:          "outreach",
				UTMCampaign:        "Spring Drive",
				UTMContent:         "invite",
			},
			"tok-share": {
				ID:         "tok-share",
				CampaignID: "camp-1",
				Type:       domain.TokenShare,
				UTMSource:  "social",
				UTMMedium:  "share",
			},
		},
		clicks: map[string]int{},
	}
	events := &fakeEvents{seen: map[string]bool{}}
	contacts := &fakeContacts{opens: map[string]int{}}
	recipients := &fakeRecipients{}
	slugs := &fakeSlugs{slugs: map[string]string{"camp-1": "river-cleanup"}}

	links := Links{BaseURL: "https://track.givebridge.org", FrontendURL: "https://givebridge.org"}
	h := NewHandler(tokens, events, contacts, recipients, slugs, &fakePub{}, links, "https://givebridge.org")
	return &trackingFixture{handler: h, tokens: tokens, events: events, contacts: contacts, recipients: recipients}
}

func TestPixelRecordsOpenAndServesImage(t *testing.T) {
	f := newTrackingFixture(t)
	srv := httptest.NewServer(f.handler.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/pixel/tok-invite.png")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))

	require.Len(t, f.events.recorded, 1)
	assert.Equal(t, domain.EventOpen, f.events.recorded[0].Type)
	assert.Equal(t, "tok-invite", f.events.recorded[0].LinkTokenID)
	assert.Equal(t, 1, f.contacts.opens["contact-1"])
	assert.Equal(t, []string{"oc-1/contact-1"}, f.recipients.opened)
}

func TestPixelSecondOpenDoesNotDoubleCount(t *testing.T) {
	f := newTrackingFixture(t)
	srv := httptest.NewServer(f.handler.Routes())
	defer srv.Close()

	for i := 0; i < 2; i++ {
		resp, err := http.Get(srv.URL + "/pixel/tok-invite.png")
		require.NoError(t, err)
		resp.Body.Close()
	}

	// Raw log keeps both opens; the unique counters move once.
	assert.Len(t, f.events.recorded, 2)
	assert.Equal(t, 1, f.contacts.opens["contact-1"])
	assert.Len(t, f.recipients.opened, 1)
}

func TestPixelUnknownTokenStillServed(t *testing.T) {
	f := newTrackingFixture(t)
	srv := httptest.NewServer(f.handler.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/pixel/no-such-token.png")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Empty(t, f.events.recorded)
}

func TestClickRedirectsToCampaignPage(t *testing.T) {
	f := newTrackingFixture(t)
	srv := httptest.NewServer(f.handler.Routes())
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/click/tok-invite")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)

	assert.Equal(t, "givebridge.org", loc.Host)
	assert.Equal(t, "/c/river-cleanup", loc.Path)
	q := loc.Query()
	assert.Equal(t, "tok-invite", q.Get("lt"))
	assert.Equal(t, "contact-1", q.Get("cid"))
	assert.Equal(t, "email", q.Get("utm_source"))
	assert.Equal(t, "Spring Drive", q.Get("utm_campaign"))
	assert.Equal(t, "25", q.Get("prefillAmount"))

	assert.Equal(t, 1, f.tokens.clicks["tok-invite"])
	require.Len(t, f.events.recorded, 1)
	assert.Equal(t, domain.EventClick, f.events.recorded[0].Type)
	assert.Equal(t, []string{"oc-1/contact-1"}, f.recipients.clicked)
}

func TestClickHonorsRedirectParam(t *testing.T) {
	f := newTrackingFixture(t)
	srv := httptest.NewServer(f.handler.Routes())
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/click/tok-share?redirect=" + url.QueryEscape("https://example.org/story"))
	require.NoError(t, err)
	defer resp.Body.Close()

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "example.org", loc.Host)
	assert.Equal(t, "/story", loc.Path)
	assert.Equal(t, "tok-share", loc.Query().Get("lt"))
}

func TestClickRejectsNonHTTPRedirect(t *testing.T) {
	f := newTrackingFixture(t)
	srv := httptest.NewServer(f.handler.Routes())
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/click/tok-share?redirect=" + url.QueryEscape("javascript:alert(1)"))
	require.NoError(t, err)
	defer resp.Body.Close()

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "givebridge.org", loc.Host)
	assert.Equal(t, "/c/river-cleanup", loc.Path)
}

func TestClickUnknownTokenFallsBack(t *testing.T) {
	f := newTrackingFixture(t)
	srv := httptest.NewServer(f.handler.Routes())
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/click/no-such-token")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://givebridge.org", resp.Header.Get("Location"))
	assert.Empty(t, f.events.recorded)
}

func TestClickShareTokenSkipsRecipientSync(t *testing.T) {
	f := newTrackingFixture(t)
	srv := httptest.NewServer(f.handler.Routes())
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/click/tok-share")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1, f.tokens.clicks["tok-share"])
	assert.Empty(t, f.recipients.clicked)
}

func TestClassifyErrorDoesNotBreakTracking(t *testing.T) {
	f := newTrackingFixture(t)
	f.events.uniqueErr = errors.New("dedup table unavailable")
	srv := httptest.NewServer(f.handler.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/pixel/tok-invite.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err = client.Get(srv.URL + "/click/tok-invite")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	// Raw log and counters still move; only the unique-side effects stop.
	assert.Len(t, f.events.recorded, 2)
	assert.Equal(t, 1, f.tokens.clicks["tok-invite"])
	assert.Empty(t, f.contacts.opens)
	assert.Empty(t, f.recipients.opened)
	assert.Empty(t, f.recipients.clicked)
}

func TestRealIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	assert.Equal(t, "203.0.113.7", realIP(r))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-Ip", "203.0.113.8")
	assert.Equal(t, "203.0.113.8", realIP(r))

	r.Header.Del("X-Real-Ip")
	assert.Equal(t, "10.0.0.1:1234", realIP(r))
}

package tracking

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/givebridge/givebridge/internal/domain"
)

// Links builds the URLs embedded in outreach email and the redirect
// destinations the click endpoint resolves to.
type Links struct {
	// BaseURL is the public base of this service's tracking endpoints.
	BaseURL string
	// FrontendURL hosts the campaign donation pages.
	FrontendURL string
}

// PixelURL returns the open-tracking pixel URL for a token.
func (l Links) PixelURL(tokenID string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/t/pixel/" + tokenID + ".png"
}

// ClickURL returns the click-tracking redirect URL for a token.
func (l Links) ClickURL(tokenID string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/t/click/" + tokenID
}

// CampaignURL returns the public donation page for a campaign slug.
func (l Links) CampaignURL(slug string) string {
	return strings.TrimRight(l.FrontendURL, "/") + "/c/" + slug
}

// Destination builds the final redirect target for a clicked token. The
// token's UTM fields, prefill amount, and personalized message ride along
// as query parameters so the donation page can attribute and prefill.
func (l Links) Destination(base string, tok *domain.LinkToken) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}

	q := u.Query()
	if tok.UTMSource != "" {
		q.Set("utm_source", tok.UTMSource)
	}
	if tok.UTMMedium != "" {
		q.Set("utm_medium", tok.UTMMedium)
	}
	if tok.UTMCampaign != "" {
		q.Set("utm_campaign", tok.UTMCampaign)
	}
	if tok.UTMContent != "" {
		q.Set("utm_content", tok.UTMContent)
	}
	if tok.PrefillAmount > 0 {
		q.Set("prefillAmount", strconv.FormatFloat(tok.PrefillAmount, 'f', -1, 64))
	}
	if tok.PersonalizedMsg != "" {
		q.Set("message", tok.PersonalizedMsg)
	}
	q.Set("lt", tok.ID)
	if tok.ContactID != nil {
		q.Set("cid", *tok.ContactID)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givebridge/givebridge/internal/domain"
)

func TestRenderInvite(t *testing.T) {
	r := NewRenderer()

	subject, body, err := r.Render(domain.TokenInvite, TemplateVars{
		RecipientName: "Ada",
		OrganizerName: "Grace",
		CampaignTitle: "River Cleanup",
		GoalAmount:    5000,
		PrefillAmount: 25,
		ClickURL:      "https://track.example.com/t/click/tok-1",
		PixelURL:      "https://track.example.com/t/pixel/tok-1.png",
	})
	require.NoError(t, err)

	assert.Equal(t, "Grace invited you to support River Cleanup", subject)
	assert.Contains(t, body, "Hi Ada,")
	assert.Contains(t, body, "$5000.00")
	assert.Contains(t, body, `href="https://track.example.com/t/click/tok-1"`)
	assert.Contains(t, body, `src="https://track.example.com/t/pixel/tok-1.png"`)
	assert.Contains(t, body, "Give $25.00 now")
}

func TestRenderDefaultsMissingNames(t *testing.T) {
	r := NewRenderer()

	subject, body, err := r.Render(domain.TokenUpdate, TemplateVars{
		CampaignTitle: "River Cleanup",
		GoalAmount:    5000,
		RaisedAmount:  1234.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "Update from River Cleanup", subject)
	assert.Contains(t, body, "Hi Friend,")
	assert.Contains(t, body, "$1234.50")
}

func TestRenderEscapesPersonalMessage(t *testing.T) {
	r := NewRenderer()

	_, body, err := r.Render(domain.TokenThanks, TemplateVars{
		RecipientName:   "Ada",
		CampaignTitle:   "River Cleanup",
		PersonalMessage: `<script>alert("x")</script>`,
	})
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestRenderUnknownType(t *testing.T) {
	r := NewRenderer()
	_, _, err := r.Render(domain.LinkTokenType("newsletter"), TemplateVars{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no template"))
}

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/givebridge/givebridge/internal/auth"
	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/pkg/httputil"
	"github.com/givebridge/givebridge/internal/service/linktoken"
	"github.com/givebridge/givebridge/internal/service/outreach"
)

// tokenResponse is a created token plus the URLs the caller embeds.
type tokenResponse struct {
	Token    *domain.LinkToken `json:"token"`
	ClickURL string            `json:"click_url"`
	PixelURL string            `json:"pixel_url"`
}

func (h *Handlers) tokenResp(t *domain.LinkToken) tokenResponse {
	return tokenResponse{
		Token:    t,
		ClickURL: h.links.ClickURL(t.ID),
		PixelURL: h.links.PixelURL(t.ID),
	}
}

// CreateLinkToken handles POST /outreach/link-tokens.
func (h *Handlers) CreateLinkToken(w http.ResponseWriter, r *http.Request) {
	var in linktoken.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	orgID := auth.OrganizerID(r.Context())
	tok, err := h.tokens.Create(r.Context(), in, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(r.Context(), orgID, "link_token.create", "link_token", tok.ID,
		map[string]any{"campaign_id": tok.CampaignID, "type": tok.Type})
	httputil.Created(w, h.tokenResp(tok))
}

// CreateShareLink handles POST /outreach/share-links.
func (h *Handlers) CreateShareLink(w http.ResponseWriter, r *http.Request) {
	var in linktoken.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	tok, err := h.tokens.CreatePublicShare(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if orgID := auth.OrganizerID(r.Context()); orgID != "" {
		h.audit.Record(r.Context(), orgID, "share_link.create", "link_token", tok.ID,
			map[string]any{"campaign_id": tok.CampaignID})
	}
	httputil.Created(w, h.tokenResp(tok))
}

// SendEmail handles POST /outreach/send-email, a one-off tracked send
// outside any outreach campaign.
func (h *Handlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	var in outreach.DirectSendInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	orgID := auth.OrganizerID(r.Context())
	report, err := h.outreach.SendDirect(r.Context(), orgID, in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(r.Context(), orgID, "outreach.send_email", "campaign", in.CampaignID,
		map[string]any{"attempted": report.Attempted, "sent": report.Sent, "failed": report.Failed})
	httputil.OK(w, report)
}

// CreateOutreachCampaign handles POST /outreach/campaigns.
func (h *Handlers) CreateOutreachCampaign(w http.ResponseWriter, r *http.Request) {
	var in outreach.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	orgID := auth.OrganizerID(r.Context())
	oc, err := h.outreach.Create(r.Context(), in, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(r.Context(), orgID, "outreach_campaign.create", "outreach_campaign", oc.ID,
		map[string]any{"campaign_id": oc.CampaignID, "name": oc.Name})
	httputil.Created(w, oc)
}

// ListOutreachCampaigns handles GET /outreach/campaigns?campaign_id=.
func (h *Handlers) ListOutreachCampaigns(w http.ResponseWriter, r *http.Request) {
	campaignID := r.URL.Query().Get("campaign_id")
	if campaignID == "" {
		httputil.BadRequest(w, "campaign_id is required")
		return
	}
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	list, err := h.outreach.List(r.Context(), campaignID, auth.OrganizerID(r.Context()), includeArchived)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"outreach_campaigns": list})
}

// GetOutreachCampaign handles GET /outreach/campaigns/{id}.
func (h *Handlers) GetOutreachCampaign(w http.ResponseWriter, r *http.Request) {
	oc, err := h.outreach.Get(r.Context(), chi.URLParam(r, "id"), auth.OrganizerID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, oc)
}

// UpdateOutreachCampaign handles PATCH /outreach/campaigns/{id}.
func (h *Handlers) UpdateOutreachCampaign(w http.ResponseWriter, r *http.Request) {
	var fields outreach.UpdateFields
	if !httputil.Decode(w, r, &fields) {
		return
	}

	orgID := auth.OrganizerID(r.Context())
	id := chi.URLParam(r, "id")
	oc, err := h.outreach.Update(r.Context(), id, orgID, fields)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(r.Context(), orgID, "outreach_campaign.update", "outreach_campaign", id, nil)
	httputil.OK(w, oc)
}

// ArchiveOutreachCampaign handles POST /outreach/campaigns/{id}/archive.
func (h *Handlers) ArchiveOutreachCampaign(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrganizerID(r.Context())
	id := chi.URLParam(r, "id")
	oc, err := h.outreach.Archive(r.Context(), id, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(r.Context(), orgID, "outreach_campaign.archive", "outreach_campaign", id, nil)
	httputil.OK(w, oc)
}

// AddRecipients handles POST /outreach/campaigns/{id}/recipients.
func (h *Handlers) AddRecipients(w http.ResponseWriter, r *http.Request) {
	var aud domain.Audience
	if !httputil.Decode(w, r, &aud) {
		return
	}

	orgID := auth.OrganizerID(r.Context())
	id := chi.URLParam(r, "id")
	res, err := h.outreach.AddRecipients(r.Context(), id, orgID, aud)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(r.Context(), orgID, "outreach_campaign.add_recipients", "outreach_campaign", id,
		map[string]any{"added": res.AddedCount, "skipped": res.SkippedCount})
	httputil.OK(w, res)
}

// ListRecipients handles GET /outreach/campaigns/{id}/recipients.
func (h *Handlers) ListRecipients(w http.ResponseWriter, r *http.Request) {
	recips, err := h.outreach.Recipients(r.Context(), chi.URLParam(r, "id"), auth.OrganizerID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"recipients": recips})
}

type sendOp func(ctx context.Context, id, organizerID string, in outreach.SendInput) (*outreach.SendReport, error)

func (h *Handlers) handleSend(w http.ResponseWriter, r *http.Request, action string, send sendOp) {
	var in outreach.SendInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	orgID := auth.OrganizerID(r.Context())
	id := chi.URLParam(r, "id")
	report, err := send(r.Context(), id, orgID, in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(r.Context(), orgID, action, "outreach_campaign", id,
		map[string]any{"attempted": report.Attempted, "sent": report.Sent, "failed": report.Failed})
	httputil.OK(w, report)
}

// SendInvitations handles POST /outreach/campaigns/{id}/send-invitations.
func (h *Handlers) SendInvitations(w http.ResponseWriter, r *http.Request) {
	h.handleSend(w, r, "outreach_campaign.send_invitations", h.outreach.SendInvitations)
}

// SendUpdates handles POST /outreach/campaigns/{id}/send-updates.
func (h *Handlers) SendUpdates(w http.ResponseWriter, r *http.Request) {
	h.handleSend(w, r, "outreach_campaign.send_updates", h.outreach.SendUpdates)
}

// SendThanks handles POST /outreach/campaigns/{id}/send-thanks.
func (h *Handlers) SendThanks(w http.ResponseWriter, r *http.Request) {
	h.handleSend(w, r, "outreach_campaign.send_thanks", h.outreach.SendThanks)
}

// ResendFailed handles POST /outreach/campaigns/{id}/resend-failed.
func (h *Handlers) ResendFailed(w http.ResponseWriter, r *http.Request) {
	h.handleSend(w, r, "outreach_campaign.resend_failed", h.outreach.ResendFailed)
}

// OutreachEvents handles GET /outreach/campaigns/{id}/events.
func (h *Handlers) OutreachEvents(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r, 50, 500)
	events, total, err := h.events.EventsByOutreachCampaign(
		r.Context(), chi.URLParam(r, "id"), auth.OrganizerID(r.Context()), p.Limit, p.Offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(events, p, int64(total)))
}

// OutreachStats handles GET /outreach/campaigns/{id}/stats.
func (h *Handlers) OutreachStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.outreach.Stats(r.Context(), chi.URLParam(r, "id"), auth.OrganizerID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, stats)
}

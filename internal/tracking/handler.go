package tracking

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/pkg/logger"
	"github.com/givebridge/givebridge/internal/service/emailevent"
)

// 1x1 transparent PNG, served for every pixel request no matter what.
var pixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
	0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41, 0x54,
	0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00, 0x05, 0x00, 0x01,
	0x0d, 0x0a, 0x2d, 0xb4,
	0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// TokenStore resolves tokens and bumps their click counters.
type TokenStore interface {
	GetByID(ctx context.Context, id, organizerID string) (*domain.LinkToken, error)
	IncrementClickCount(ctx context.Context, id string) error
}

// EventLog records raw events and classifies first-time ones.
type EventLog interface {
	Record(ctx context.Context, in emailevent.RecordInput) error
	RecordUnique(ctx context.Context, linkTokenID, contactID string, t domain.EmailEventType) (bool, error)
}

// ContactLog bumps per-contact open counters.
type ContactLog interface {
	RecordOpen(ctx context.Context, contactID string) error
}

// RecipientSync flips cached engagement flags on recipient rows.
type RecipientSync interface {
	MarkRecipientOpened(ctx context.Context, outreachCampaignID, contactID string) error
	MarkRecipientClicked(ctx context.Context, outreachCampaignID, contactID string) error
}

// CampaignSlugs resolves a campaign id to its public page slug.
type CampaignSlugs interface {
	Slug(ctx context.Context, campaignID string) (string, error)
}

// RefreshPublisher enqueues engagement refreshes, fire-and-forget.
type RefreshPublisher interface {
	PublishRefresh(outreachCampaignID string)
}

// Handler serves the public tracking endpoints. Every path through both
// handlers ends in a pixel or a redirect; recording failures are logged
// and dropped.
type Handler struct {
	tokens     TokenStore
	events     EventLog
	contacts   ContactLog
	recipients RecipientSync
	slugs      CampaignSlugs
	pub        RefreshPublisher
	links      Links
	fallback   string
}

// NewHandler wires the tracking handler.
func NewHandler(tokens TokenStore, events EventLog, contacts ContactLog, recipients RecipientSync, slugs CampaignSlugs, pub RefreshPublisher, links Links, fallbackURL string) *Handler {
	return &Handler{
		tokens:     tokens,
		events:     events,
		contacts:   contacts,
		recipients: recipients,
		slugs:      slugs,
		pub:        pub,
		links:      links,
		fallback:   fallbackURL,
	}
}

// Routes returns the public /t subtree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/pixel/{linkTokenID}.png", h.HandlePixel)
	r.Get("/click/{linkTokenID}", h.HandleClick)
	return r
}

// HandlePixel records an open and serves the pixel. The pixel goes out
// on every path, broken token included; mail clients retry 404s.
func (h *Handler) HandlePixel(w http.ResponseWriter, r *http.Request) {
	defer h.servePixel(w)

	id := chi.URLParam(r, "linkTokenID")
	tok, err := h.tokens.GetByID(r.Context(), id, "")
	if err != nil {
		logger.Debug("pixel for unknown token", "link_token_id", id)
		return
	}

	if err := h.events.Record(r.Context(), emailevent.RecordInput{
		LinkTokenID: tok.ID,
		ContactID:   tok.ContactID,
		Type:        domain.EventOpen,
		UserAgent:   r.UserAgent(),
		IPAddress:   realIP(r),
	}); err != nil {
		logger.Error("record open", "error", err.Error(), "link_token_id", tok.ID)
		return
	}

	if tok.ContactID == nil {
		return
	}
	first, err := h.events.RecordUnique(r.Context(), tok.ID, *tok.ContactID, domain.EventOpen)
	if err != nil {
		logger.Error("classify open", "error", err.Error(), "link_token_id", tok.ID)
		return
	}
	if !first {
		return
	}

	if err := h.contacts.RecordOpen(r.Context(), *tok.ContactID); err != nil {
		logger.Error("bump contact opens", "error", err.Error(), "link_token_id", tok.ID)
	}
	if tok.OutreachCampaignID != nil {
		if err := h.recipients.MarkRecipientOpened(r.Context(), *tok.OutreachCampaignID, *tok.ContactID); err != nil {
			logger.Error("mark recipient opened", "error", err.Error(), "link_token_id", tok.ID)
		}
		h.pub.PublishRefresh(*tok.OutreachCampaignID)
	}
}

// HandleClick records a click and redirects. Failures redirect to the
// fallback URL; a donor never sees an error page from a tracking link.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "linkTokenID")
	tok, err := h.tokens.GetByID(r.Context(), id, "")
	if err != nil {
		logger.Debug("click for unknown token", "link_token_id", id)
		http.Redirect(w, r, h.fallback, http.StatusFound)
		return
	}

	if err := h.events.Record(r.Context(), emailevent.RecordInput{
		LinkTokenID: tok.ID,
		ContactID:   tok.ContactID,
		Type:        domain.EventClick,
		UserAgent:   r.UserAgent(),
		IPAddress:   realIP(r),
	}); err != nil {
		logger.Error("record click", "error", err.Error(), "link_token_id", tok.ID)
	}
	if err := h.tokens.IncrementClickCount(r.Context(), tok.ID); err != nil {
		logger.Error("increment clicks", "error", err.Error(), "link_token_id", tok.ID)
	}

	if tok.ContactID != nil {
		first, err := h.events.RecordUnique(r.Context(), tok.ID, *tok.ContactID, domain.EventClick)
		if err != nil {
			logger.Error("classify click", "error", err.Error(), "link_token_id", tok.ID)
		}
		if err == nil && first && tok.OutreachCampaignID != nil {
			if err := h.recipients.MarkRecipientClicked(r.Context(), *tok.OutreachCampaignID, *tok.ContactID); err != nil {
				logger.Error("mark recipient clicked", "error", err.Error(), "link_token_id", tok.ID)
			}
		}
	}
	if tok.OutreachCampaignID != nil {
		h.pub.PublishRefresh(*tok.OutreachCampaignID)
	}

	http.Redirect(w, r, h.links.Destination(h.destinationBase(r, tok), tok), http.StatusFound)
}

// destinationBase picks where the click lands: the redirect parameter
// when it is a well-formed absolute URL, else the campaign's public
// page, else the configured fallback.
func (h *Handler) destinationBase(r *http.Request, tok *domain.LinkToken) string {
	if raw := r.URL.Query().Get("redirect"); raw != "" {
		if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
			return raw
		}
	}
	if slug, err := h.slugs.Slug(r.Context(), tok.CampaignID); err == nil && slug != "" {
		return h.links.CampaignURL(slug)
	}
	return h.fallback
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelPNG)
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

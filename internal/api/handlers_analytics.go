package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/givebridge/givebridge/internal/auth"
	"github.com/givebridge/givebridge/internal/pkg/httputil"
)

// CampaignAnalytics handles GET /outreach/analytics/{campaignID}.
func (h *Handlers) CampaignAnalytics(w http.ResponseWriter, r *http.Request) {
	out, err := h.analytics.ForCampaign(
		r.Context(), chi.URLParam(r, "campaignID"), auth.OrganizerID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, out)
}

// OrganizerAnalytics handles GET /outreach/analytics.
func (h *Handlers) OrganizerAnalytics(w http.ResponseWriter, r *http.Request) {
	out, err := h.analytics.ForOrganizer(r.Context(), auth.OrganizerID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, out)
}

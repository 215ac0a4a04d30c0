package api

import (
	"net/http"

	"github.com/givebridge/givebridge/internal/auth"
	"github.com/givebridge/givebridge/internal/pkg/httputil"
	"github.com/givebridge/givebridge/internal/service/donation"
)

// AttributeDonation handles POST /donations/attribution. The payment
// flow calls this after completing a donation that arrived through a
// tracked link.
func (h *Handlers) AttributeDonation(w http.ResponseWriter, r *http.Request) {
	var in donation.AttributeInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	d, err := h.donations.Attribute(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(r.Context(), auth.OrganizerID(r.Context()), "donation.attribute", "donation", d.ID,
		map[string]any{"campaign_id": d.CampaignID, "link_token_id": in.LinkTokenID})
	httputil.OK(w, d)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/givebridge/givebridge/internal/auth"
	"github.com/givebridge/givebridge/internal/pkg/httputil"
	"github.com/givebridge/givebridge/internal/service/contact"
)

// CreateSegment handles POST /segments.
func (h *Handlers) CreateSegment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !httputil.Decode(w, r, &in) {
		return
	}

	orgID := auth.OrganizerID(r.Context())
	seg, err := h.contacts.CreateSegment(r.Context(), orgID, in.Name, in.Description)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(r.Context(), orgID, "segment.create", "segment", seg.ID,
		map[string]any{"name": seg.Name})
	httputil.Created(w, seg)
}

// ListSegments handles GET /segments.
func (h *Handlers) ListSegments(w http.ResponseWriter, r *http.Request) {
	segs, err := h.contacts.ListSegments(r.Context(), auth.OrganizerID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"segments": segs})
}

// BulkInsertContacts handles POST /segments/{id}/contacts:bulk.
func (h *Handlers) BulkInsertContacts(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Contacts []contact.ContactInput `json:"contacts"`
	}
	if !httputil.Decode(w, r, &in) {
		return
	}

	orgID := auth.OrganizerID(r.Context())
	segmentID := chi.URLParam(r, "id")
	res, err := h.contacts.BulkInsertContacts(r.Context(), segmentID, orgID, in.Contacts)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(r.Context(), orgID, "segment.bulk_insert_contacts", "segment", segmentID,
		map[string]any{"created": res.CreatedCount, "skipped_existing": res.SkippedExisting, "skipped_invalid": res.SkippedInvalid})
	httputil.OK(w, res)
}

// ListContacts handles GET /segments/{id}/contacts.
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r, 50, 500)
	contacts, total, err := h.contacts.ListContacts(
		r.Context(), chi.URLParam(r, "id"), auth.OrganizerID(r.Context()), p.Limit, p.Offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(contacts, p, int64(total)))
}

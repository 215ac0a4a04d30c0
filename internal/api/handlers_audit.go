package api

import (
	"net/http"

	"github.com/givebridge/givebridge/internal/auth"
	"github.com/givebridge/givebridge/internal/pkg/httputil"
)

// ListAudit handles GET /audit.
func (h *Handlers) ListAudit(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r, 50, 500)
	entries, total, err := h.audit.List(r.Context(), auth.OrganizerID(r.Context()), p.Limit, p.Offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(entries, p, int64(total)))
}

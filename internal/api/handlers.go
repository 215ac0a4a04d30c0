// Package api exposes the HTTP surface: the authenticated /api/v1 routes,
// the public tracking endpoints, and the health check.
package api

import (
	"database/sql"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/givebridge/givebridge/internal/audit"
	"github.com/givebridge/givebridge/internal/pkg/httputil"
	"github.com/givebridge/givebridge/internal/service/analytics"
	"github.com/givebridge/givebridge/internal/service/contact"
	"github.com/givebridge/givebridge/internal/service/donation"
	"github.com/givebridge/givebridge/internal/service/emailevent"
	"github.com/givebridge/givebridge/internal/service/linktoken"
	"github.com/givebridge/givebridge/internal/service/outreach"
	"github.com/givebridge/givebridge/internal/tracking"
)

// Handlers holds every service the HTTP layer dispatches to.
type Handlers struct {
	tokens    *linktoken.Service
	events    *emailevent.Service
	contacts  *contact.Service
	outreach  *outreach.Service
	donations *donation.Service
	analytics *analytics.Service
	audit     *audit.Recorder
	links     tracking.Links

	db  *sql.DB
	rdb *redis.Client
}

// NewHandlers wires the handler set.
func NewHandlers(
	tokens *linktoken.Service,
	events *emailevent.Service,
	contacts *contact.Service,
	outreachSvc *outreach.Service,
	donations *donation.Service,
	analyticsSvc *analytics.Service,
	auditRec *audit.Recorder,
	links tracking.Links,
	db *sql.DB,
	rdb *redis.Client,
) *Handlers {
	return &Handlers{
		tokens:    tokens,
		events:    events,
		contacts:  contacts,
		outreach:  outreachSvc,
		donations: donations,
		analytics: analyticsSvc,
		audit:     auditRec,
		links:     links,
		db:        db,
		rdb:       rdb,
	}
}

// HealthCheck reports service and dependency status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "ok", "redis": "ok"}
	code := http.StatusOK

	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(r.Context()).Err(); err != nil {
			status["status"] = "degraded"
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	httputil.JSON(w, code, status)
}

package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/givebridge/givebridge/internal/auth"
	"github.com/givebridge/givebridge/internal/tracking"
)

// SetupRoutes builds the full router: public health and tracking
// endpoints, and the bearer-authenticated /api/v1 tree. A nil
// authManager leaves /api/v1 open, for tests and local development.
func SetupRoutes(h *Handlers, trackingHandler *tracking.Handler, authManager *auth.Manager, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Mount("/t", trackingHandler.Routes())

	r.Route("/api/v1", func(r chi.Router) {
		if authManager != nil {
			r.Use(authManager.RequireAuth)
		}

		r.Route("/outreach", func(r chi.Router) {
			r.Post("/link-tokens", h.CreateLinkToken)
			r.Post("/share-links", h.CreateShareLink)
			r.Post("/send-email", h.SendEmail)

			r.Get("/analytics", h.OrganizerAnalytics)
			r.Get("/analytics/{campaignID}", h.CampaignAnalytics)

			r.Route("/campaigns", func(r chi.Router) {
				r.Post("/", h.CreateOutreachCampaign)
				r.Get("/", h.ListOutreachCampaigns)
				r.Get("/{id}", h.GetOutreachCampaign)
				r.Patch("/{id}", h.UpdateOutreachCampaign)
				r.Post("/{id}/archive", h.ArchiveOutreachCampaign)
				r.Post("/{id}/recipients", h.AddRecipients)
				r.Get("/{id}/recipients", h.ListRecipients)
				r.Post("/{id}/send-invitations", h.SendInvitations)
				r.Post("/{id}/send-updates", h.SendUpdates)
				r.Post("/{id}/send-thanks", h.SendThanks)
				r.Post("/{id}/resend-failed", h.ResendFailed)
				r.Get("/{id}/events", h.OutreachEvents)
				r.Get("/{id}/stats", h.OutreachStats)
			})
		})

		r.Route("/segments", func(r chi.Router) {
			r.Post("/", h.CreateSegment)
			r.Get("/", h.ListSegments)
			r.Post("/{id}/contacts:bulk", h.BulkInsertContacts)
			r.Get("/{id}/contacts", h.ListContacts)
		})

		r.Post("/donations/attribution", h.AttributeDonation)
		r.Get("/audit", h.ListAudit)
	})

	return r
}

package postgres

import (
	"context"
	"database/sql"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
)

// EmailEventRepo implements emailevent.Repository against PostgreSQL.
type EmailEventRepo struct{ db *sql.DB }

// NewEmailEventRepo creates a Postgres-backed event log repository.
func NewEmailEventRepo(db *sql.DB) *EmailEventRepo { return &EmailEventRepo{db: db} }

// Insert appends one event row.
func (r *EmailEventRepo) Insert(ctx context.Context, e *domain.EmailEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_events (id, link_token_id, contact_id, type, user_agent, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, e.ID, e.LinkTokenID, e.ContactID, e.Type, e.UserAgent, e.IPAddress)
	if err != nil {
		return apperr.FromPG(err, "insert email event")
	}
	return nil
}

// InsertUnique atomically claims the first (token, contact, type) slot.
// The unique index makes the insert race-free: exactly one caller sees
// a new row, every other caller sees zero rows affected.
func (r *EmailEventRepo) InsertUnique(ctx context.Context, linkTokenID, contactID string, t domain.EmailEventType) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO email_event_uniques (link_token_id, contact_id, type, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (link_token_id, contact_id, type) DO NOTHING
	`, linkTokenID, contactID, t)
	if err != nil {
		return false, apperr.FromPG(err, "insert unique email event")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.FromPG(err, "insert unique email event")
	}
	return n > 0, nil
}

// TypeCounts aggregates a campaign's events per type with raw and
// distinct-contact counts.
func (r *EmailEventRepo) TypeCounts(ctx context.Context, campaignID string) ([]domain.EventTypeCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.type, COUNT(*), COUNT(DISTINCT e.contact_id)
		FROM email_events e
		JOIN link_tokens t ON t.id = e.link_token_id
		WHERE t.campaign_id = $1
		GROUP BY e.type
	`, campaignID)
	if err != nil {
		return nil, apperr.FromPG(err, "count events")
	}
	defer rows.Close()

	var out []domain.EventTypeCount
	for rows.Next() {
		var c domain.EventTypeCount
		if err := rows.Scan(&c.Type, &c.Count, &c.UniqueContacts); err != nil {
			return nil, apperr.FromPG(err, "scan event count")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const eventCols = `e.id, e.link_token_id, e.contact_id, e.type,
	       COALESCE(e.user_agent,''), COALESCE(e.ip_address,''), e.created_at`

func (r *EmailEventRepo) listEvents(ctx context.Context, countQ, listQ string, scope string, organizerID string, limit, offset int) ([]domain.EmailEvent, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQ, scope, organizerID).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "count events")
	}

	rows, err := r.db.QueryContext(ctx, listQ, scope, organizerID, limit, offset)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "list events")
	}
	defer rows.Close()

	var out []domain.EmailEvent
	for rows.Next() {
		var e domain.EmailEvent
		if err := rows.Scan(&e.ID, &e.LinkTokenID, &e.ContactID, &e.Type, &e.UserAgent, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, 0, apperr.FromPG(err, "scan event")
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// ListByLinkToken returns a token's events, newest first, ownership-scoped.
func (r *EmailEventRepo) ListByLinkToken(ctx context.Context, linkTokenID, organizerID string, limit, offset int) ([]domain.EmailEvent, int, error) {
	return r.listEvents(ctx, `
		SELECT COUNT(*)
		FROM email_events e
		JOIN link_tokens t ON t.id = e.link_token_id
		JOIN campaigns c ON c.id = t.campaign_id
		WHERE e.link_token_id = $1 AND c.organizer_id = $2`, `
		SELECT `+eventCols+`
		FROM email_events e
		JOIN link_tokens t ON t.id = e.link_token_id
		JOIN campaigns c ON c.id = t.campaign_id
		WHERE e.link_token_id = $1 AND c.organizer_id = $2
		ORDER BY e.created_at DESC LIMIT $3 OFFSET $4`,
		linkTokenID, organizerID, limit, offset)
}

// ListByCampaign returns all events of a funding campaign's tokens.
func (r *EmailEventRepo) ListByCampaign(ctx context.Context, campaignID, organizerID string, limit, offset int) ([]domain.EmailEvent, int, error) {
	return r.listEvents(ctx, `
		SELECT COUNT(*)
		FROM email_events e
		JOIN link_tokens t ON t.id = e.link_token_id
		JOIN campaigns c ON c.id = t.campaign_id
		WHERE t.campaign_id = $1 AND c.organizer_id = $2`, `
		SELECT `+eventCols+`
		FROM email_events e
		JOIN link_tokens t ON t.id = e.link_token_id
		JOIN campaigns c ON c.id = t.campaign_id
		WHERE t.campaign_id = $1 AND c.organizer_id = $2
		ORDER BY e.created_at DESC LIMIT $3 OFFSET $4`,
		campaignID, organizerID, limit, offset)
}

// ListByOutreachCampaign returns all events of one outreach campaign.
func (r *EmailEventRepo) ListByOutreachCampaign(ctx context.Context, outreachCampaignID, organizerID string, limit, offset int) ([]domain.EmailEvent, int, error) {
	return r.listEvents(ctx, `
		SELECT COUNT(*)
		FROM email_events e
		JOIN link_tokens t ON t.id = e.link_token_id
		JOIN campaigns c ON c.id = t.campaign_id
		WHERE t.outreach_campaign_id = $1 AND c.organizer_id = $2`, `
		SELECT `+eventCols+`
		FROM email_events e
		JOIN link_tokens t ON t.id = e.link_token_id
		JOIN campaigns c ON c.id = t.campaign_id
		WHERE t.outreach_campaign_id = $1 AND c.organizer_id = $2
		ORDER BY e.created_at DESC LIMIT $3 OFFSET $4`,
		outreachCampaignID, organizerID, limit, offset)
}

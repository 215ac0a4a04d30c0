package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/service/emailevent"
	"github.com/givebridge/givebridge/internal/service/outreach"
)

// OutreachRepo implements outreach.Repository against PostgreSQL. It also
// carries the engagement-sync queries used by the tracking endpoints and
// the stats-refresh worker.
type OutreachRepo struct{ db *sql.DB }

// NewOutreachRepo creates a Postgres-backed outreach repository.
func NewOutreachRepo(db *sql.DB) *OutreachRepo { return &OutreachRepo{db: db} }

// Create inserts an outreach campaign after verifying campaign ownership.
func (r *OutreachRepo) Create(ctx context.Context, oc *domain.OutreachCampaign, organizerID string) error {
	var owned bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM campaigns WHERE id = $1 AND organizer_id = $2)
	`, oc.CampaignID, organizerID).Scan(&owned); err != nil {
		return apperr.FromPG(err, "verify campaign")
	}
	if !owned {
		return apperr.NotFound("campaign not found")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outreach_campaigns (id, campaign_id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`, oc.ID, oc.CampaignID, oc.Name, oc.Description, oc.Status)
	if err != nil {
		return apperr.FromPG(err, fmt.Sprintf("outreach campaign %q already exists for this campaign", oc.Name))
	}
	return nil
}

const outreachCols = `o.id, o.campaign_id, o.name, COALESCE(o.description,''),
	       o.status, o.created_at, o.updated_at`

// Get returns an outreach campaign scoped to the owning organizer.
func (r *OutreachRepo) Get(ctx context.Context, id, organizerID string) (*domain.OutreachCampaign, error) {
	oc := &domain.OutreachCampaign{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+outreachCols+`
		FROM outreach_campaigns o
		JOIN campaigns c ON c.id = o.campaign_id
		WHERE o.id = $1 AND c.organizer_id = $2
	`, id, organizerID).Scan(&oc.ID, &oc.CampaignID, &oc.Name, &oc.Description,
		&oc.Status, &oc.CreatedAt, &oc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("outreach campaign not found")
	}
	if err != nil {
		return nil, apperr.FromPG(err, "get outreach campaign")
	}
	return oc, nil
}

// ListByCampaign returns a funding campaign's outreach campaigns.
func (r *OutreachRepo) ListByCampaign(ctx context.Context, campaignID, organizerID string, includeArchived bool) ([]domain.OutreachCampaign, error) {
	q := `
		SELECT ` + outreachCols + `
		FROM outreach_campaigns o
		JOIN campaigns c ON c.id = o.campaign_id
		WHERE o.campaign_id = $1 AND c.organizer_id = $2`
	if !includeArchived {
		q += ` AND o.status != 'archived'`
	}
	q += ` ORDER BY o.created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, campaignID, organizerID)
	if err != nil {
		return nil, apperr.FromPG(err, "list outreach campaigns")
	}
	defer rows.Close()

	var out []domain.OutreachCampaign
	for rows.Next() {
		var oc domain.OutreachCampaign
		if err := rows.Scan(&oc.ID, &oc.CampaignID, &oc.Name, &oc.Description,
			&oc.Status, &oc.CreatedAt, &oc.UpdatedAt); err != nil {
			return nil, apperr.FromPG(err, "scan outreach campaign")
		}
		out = append(out, oc)
	}
	return out, rows.Err()
}

// Update applies the set fields and returns the updated row.
func (r *OutreachRepo) Update(ctx context.Context, id, organizerID string, fields outreach.UpdateFields) (*domain.OutreachCampaign, error) {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if fields.Name != nil {
		add("name", *fields.Name)
	}
	if fields.Description != nil {
		add("description", *fields.Description)
	}
	if fields.Status != nil {
		add("status", *fields.Status)
	}
	if len(sets) == 0 {
		return r.Get(ctx, id, organizerID)
	}
	sets = append(sets, "updated_at = NOW()")

	q := fmt.Sprintf(`
		UPDATE outreach_campaigns o SET %s
		WHERE o.id = $%d
		  AND EXISTS (SELECT 1 FROM campaigns c WHERE c.id = o.campaign_id AND c.organizer_id = $%d)`,
		strings.Join(sets, ", "), idx, idx+1)
	args = append(args, id, organizerID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.FromPG(err, "update outreach campaign")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, apperr.NotFound("outreach campaign not found")
	}
	return r.Get(ctx, id, organizerID)
}

// AddRecipients inserts recipient rows, skipping contacts already
// enrolled via the unique index.
func (r *OutreachRepo) AddRecipients(ctx context.Context, outreachCampaignID string, recipients []domain.OutreachRecipient) (int, error) {
	if len(recipients) == 0 {
		return 0, nil
	}

	ids := make([]string, len(recipients))
	contactIDs := make([]string, len(recipients))
	emails := make([]string, len(recipients))
	for i, rec := range recipients {
		ids[i] = rec.ID
		contactIDs[i] = rec.ContactID
		emails[i] = rec.Email
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO outreach_campaign_recipients
			(id, outreach_campaign_id, contact_id, email, status, created_at)
		SELECT unnest($2::text[]), $1, unnest($3::text[]), unnest($4::text[]), 'pending', NOW()
		ON CONFLICT (outreach_campaign_id, contact_id) DO NOTHING
	`, outreachCampaignID, pq.Array(ids), pq.Array(contactIDs), pq.Array(emails))
	if err != nil {
		return 0, apperr.FromPG(err, "add recipients")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.FromPG(err, "add recipients")
	}
	return int(n), nil
}

const recipientCols = `r.id, r.outreach_campaign_id, r.contact_id, r.email, r.status,
	       r.opened, r.clicked, r.donated, r.donated_amount,
	       r.last_send_at, COALESCE(r.failure_reason,''), r.created_at`

func scanRecipients(rows *sql.Rows) ([]domain.OutreachRecipient, error) {
	defer rows.Close()
	var out []domain.OutreachRecipient
	for rows.Next() {
		var rec domain.OutreachRecipient
		if err := rows.Scan(&rec.ID, &rec.OutreachCampaignID, &rec.ContactID, &rec.Email, &rec.Status,
			&rec.Opened, &rec.Clicked, &rec.Donated, &rec.DonatedAmount,
			&rec.LastSendAt, &rec.FailureReason, &rec.CreatedAt); err != nil {
			return nil, apperr.FromPG(err, "scan recipient")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Recipients returns all recipient rows of an owned outreach campaign.
func (r *OutreachRepo) Recipients(ctx context.Context, outreachCampaignID, organizerID string) ([]domain.OutreachRecipient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recipientCols+`
		FROM outreach_campaign_recipients r
		JOIN outreach_campaigns o ON o.id = r.outreach_campaign_id
		JOIN campaigns c ON c.id = o.campaign_id
		WHERE r.outreach_campaign_id = $1 AND c.organizer_id = $2
		ORDER BY r.created_at
	`, outreachCampaignID, organizerID)
	if err != nil {
		return nil, apperr.FromPG(err, "list recipients")
	}
	return scanRecipients(rows)
}

// RecipientsByStatus returns recipient rows in one send state.
func (r *OutreachRepo) RecipientsByStatus(ctx context.Context, outreachCampaignID string, status domain.RecipientStatus) ([]domain.OutreachRecipient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recipientCols+`
		FROM outreach_campaign_recipients r
		WHERE r.outreach_campaign_id = $1 AND r.status = $2
		ORDER BY r.created_at
	`, outreachCampaignID, status)
	if err != nil {
		return nil, apperr.FromPG(err, "recipients by status")
	}
	return scanRecipients(rows)
}

// RecipientsByEngagement filters sent recipients by the cached flags in
// one set-based query.
func (r *OutreachRepo) RecipientsByEngagement(ctx context.Context, outreachCampaignID string, filter domain.EngagementFilter) ([]domain.OutreachRecipient, error) {
	q := `
		SELECT ` + recipientCols + `
		FROM outreach_campaign_recipients r
		WHERE r.outreach_campaign_id = $1 AND r.status = 'sent'`
	switch filter {
	case domain.EngageAll:
	case domain.EngageOpenedNotClicked:
		q += ` AND r.opened AND NOT r.clicked`
	case domain.EngageClickedNotDonated:
		q += ` AND r.clicked AND NOT r.donated`
	case domain.EngageDonated:
		q += ` AND r.donated`
	default:
		return nil, apperr.Validation("invalid engagement filter %q", filter)
	}
	q += ` ORDER BY r.created_at`

	rows, err := r.db.QueryContext(ctx, q, outreachCampaignID)
	if err != nil {
		return nil, apperr.FromPG(err, "recipients by engagement")
	}
	return scanRecipients(rows)
}

// MarkRecipientSent flips a recipient to sent.
func (r *OutreachRepo) MarkRecipientSent(ctx context.Context, recipientID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE outreach_campaign_recipients
		SET status = 'sent', last_send_at = $2, failure_reason = NULL
		WHERE id = $1
	`, recipientID, at)
	if err != nil {
		return apperr.FromPG(err, "mark recipient sent")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("recipient not found")
	}
	return nil
}

// MarkRecipientFailed flips a recipient to failed with the reason.
func (r *OutreachRepo) MarkRecipientFailed(ctx context.Context, recipientID, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE outreach_campaign_recipients
		SET status = 'failed', failure_reason = $2
		WHERE id = $1
	`, recipientID, reason)
	if err != nil {
		return apperr.FromPG(err, "mark recipient failed")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("recipient not found")
	}
	return nil
}

// MarkRecipientDonated sets the donated cache on the contact's row.
// A missing row is not an error; not every donor was an enrolled
// recipient.
func (r *OutreachRepo) MarkRecipientDonated(ctx context.Context, outreachCampaignID, contactID string, amount float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outreach_campaign_recipients
		SET donated = TRUE, donated_amount = donated_amount + $3
		WHERE outreach_campaign_id = $1 AND contact_id = $2
	`, outreachCampaignID, contactID, amount)
	if err != nil {
		return apperr.FromPG(err, "mark recipient donated")
	}
	return nil
}

// MarkRecipientOpened sets the opened cache on the contact's row.
func (r *OutreachRepo) MarkRecipientOpened(ctx context.Context, outreachCampaignID, contactID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outreach_campaign_recipients
		SET opened = TRUE
		WHERE outreach_campaign_id = $1 AND contact_id = $2
	`, outreachCampaignID, contactID)
	if err != nil {
		return apperr.FromPG(err, "mark recipient opened")
	}
	return nil
}

// MarkRecipientClicked sets the clicked (and opened) cache on the
// contact's row. A click implies the email was seen.
func (r *OutreachRepo) MarkRecipientClicked(ctx context.Context, outreachCampaignID, contactID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outreach_campaign_recipients
		SET opened = TRUE, clicked = TRUE
		WHERE outreach_campaign_id = $1 AND contact_id = $2
	`, outreachCampaignID, contactID)
	if err != nil {
		return apperr.FromPG(err, "mark recipient clicked")
	}
	return nil
}

// RefreshEngagement rebuilds every cached engagement column of one
// outreach campaign from the authoritative tables. Used by the worker to
// repair drift; the cache is never trusted as a source of truth.
func (r *OutreachRepo) RefreshEngagement(ctx context.Context, outreachCampaignID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outreach_campaign_recipients r
		SET opened = EXISTS (
		        SELECT 1 FROM email_events e
		        JOIN link_tokens t ON t.id = e.link_token_id
		        WHERE t.outreach_campaign_id = r.outreach_campaign_id
		          AND e.contact_id = r.contact_id AND e.type = 'open'
		    ),
		    clicked = EXISTS (
		        SELECT 1 FROM email_events e
		        JOIN link_tokens t ON t.id = e.link_token_id
		        WHERE t.outreach_campaign_id = r.outreach_campaign_id
		          AND e.contact_id = r.contact_id AND e.type = 'click'
		    ),
		    donated = EXISTS (
		        SELECT 1 FROM donations d
		        WHERE d.contact_id = r.contact_id AND d.status = 'completed'
		          AND d.link_token_id IN (
		              SELECT id FROM link_tokens WHERE outreach_campaign_id = r.outreach_campaign_id
		          )
		    ),
		    donated_amount = COALESCE((
		        SELECT SUM(d.amount) FROM donations d
		        WHERE d.contact_id = r.contact_id AND d.status = 'completed'
		          AND d.link_token_id IN (
		              SELECT id FROM link_tokens WHERE outreach_campaign_id = r.outreach_campaign_id
		          )
		    ), 0)
		WHERE r.outreach_campaign_id = $1
	`, outreachCampaignID)
	if err != nil {
		return apperr.FromPG(err, "refresh engagement")
	}
	return nil
}

// Stats aggregates the recipient rows of an owned outreach campaign.
func (r *OutreachRepo) Stats(ctx context.Context, outreachCampaignID, organizerID string) (*domain.OutreachCampaignStats, error) {
	// the aggregate below yields zeros for an unowned id, not no-rows
	if _, err := r.Get(ctx, outreachCampaignID, organizerID); err != nil {
		return nil, err
	}

	s := &domain.OutreachCampaignStats{OutreachCampaignID: outreachCampaignID}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE r.status = 'sent'),
		       COUNT(*) FILTER (WHERE r.status = 'failed'),
		       COUNT(*) FILTER (WHERE r.opened),
		       COUNT(*) FILTER (WHERE r.clicked),
		       COUNT(*) FILTER (WHERE r.donated),
		       COALESCE(SUM(r.donated_amount), 0)
		FROM outreach_campaign_recipients r
		JOIN outreach_campaigns o ON o.id = r.outreach_campaign_id
		JOIN campaigns c ON c.id = o.campaign_id
		WHERE r.outreach_campaign_id = $1 AND c.organizer_id = $2
	`, outreachCampaignID, organizerID).Scan(
		&s.Recipients, &s.Sends, &s.Failures,
		&s.Opens, &s.Clicks, &s.Donations, &s.DonatedAmount,
	)
	if err != nil {
		return nil, apperr.FromPG(err, "outreach stats")
	}

	s.OpenRate = emailevent.Rate(s.Opens, s.Sends)
	s.ClickRate = emailevent.Rate(s.Clicks, s.Opens)
	s.ConversionRate = emailevent.Rate(s.Donations, s.Clicks)
	return s, nil
}

package postgres

import (
	"context"
	"database/sql"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
)

// CampaignRepo reads funding campaigns. Campaign rows are written by the
// platform's campaign management flow; this backend only reads them.
// Raised amounts come from completed donations, never from a counter.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign reader.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

const campaignSelect = `
	SELECT c.id, c.organizer_id, c.title, COALESCE(c.description,''),
	       c.share_slug, c.status, c.goal_amount,
	       COALESCE(d.total, 0), COALESCE(d.cnt, 0),
	       c.created_at, c.updated_at
	FROM campaigns c
	LEFT JOIN (
		SELECT campaign_id, SUM(amount) AS total, COUNT(*) AS cnt
		FROM donations
		WHERE status = 'completed'
		GROUP BY campaign_id
	) d ON d.campaign_id = c.id`

func scanCampaign(row *sql.Row) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := row.Scan(
		&c.ID, &c.OrganizerID, &c.Title, &c.Description,
		&c.ShareSlug, &c.Status, &c.GoalAmount,
		&c.RaisedAmount, &c.DonationCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("campaign not found")
	}
	if err != nil {
		return nil, apperr.FromPG(err, "get campaign")
	}
	return c, nil
}

// Get returns a campaign only if the organizer owns it.
func (r *CampaignRepo) Get(ctx context.Context, id, organizerID string) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx, campaignSelect+`
	WHERE c.id = $1 AND c.organizer_id = $2`, id, organizerID)
	return scanCampaign(row)
}

// GetBySlug returns a campaign by its public share slug, no ownership.
func (r *CampaignRepo) GetBySlug(ctx context.Context, slug string) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx, campaignSelect+`
	WHERE c.share_slug = $1`, slug)
	return scanCampaign(row)
}

// Slug returns a campaign's public share slug.
func (r *CampaignRepo) Slug(ctx context.Context, campaignID string) (string, error) {
	var slug string
	err := r.db.QueryRowContext(ctx, `
		SELECT share_slug FROM campaigns WHERE id = $1
	`, campaignID).Scan(&slug)
	if err == sql.ErrNoRows {
		return "", apperr.NotFound("campaign not found")
	}
	if err != nil {
		return "", apperr.FromPG(err, "campaign slug")
	}
	return slug, nil
}

// IDs returns the ids of every campaign the organizer owns.
func (r *CampaignRepo) IDs(ctx context.Context, organizerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM campaigns WHERE organizer_id = $1 ORDER BY created_at DESC
	`, organizerID)
	if err != nil {
		return nil, apperr.FromPG(err, "list campaign ids")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.FromPG(err, "scan campaign id")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/service/donation"
)

// DonationRepo implements donation.Repository against PostgreSQL.
type DonationRepo struct{ db *sql.DB }

// NewDonationRepo creates a Postgres-backed donation repository.
func NewDonationRepo(db *sql.DB) *DonationRepo { return &DonationRepo{db: db} }

const donationCols = `d.id, d.campaign_id, d.donor_email, d.amount, d.status,
	       d.link_token_id, d.contact_id, d.created_at, d.completed_at`

// Get returns a donation by id.
func (r *DonationRepo) Get(ctx context.Context, id string) (*domain.Donation, error) {
	d := &domain.Donation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+donationCols+` FROM donations d WHERE d.id = $1
	`, id).Scan(&d.ID, &d.CampaignID, &d.DonorEmail, &d.Amount, &d.Status,
		&d.LinkTokenID, &d.ContactID, &d.CreatedAt, &d.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("donation not found")
	}
	if err != nil {
		return nil, apperr.FromPG(err, "get donation")
	}
	return d, nil
}

// UpdateAttribution stamps link token and contact on a donation.
func (r *DonationRepo) UpdateAttribution(ctx context.Context, donationID string, linkTokenID, contactID *string) (*domain.Donation, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE donations SET link_token_id = $2, contact_id = $3 WHERE id = $1
	`, donationID, linkTokenID, contactID)
	if err != nil {
		return nil, apperr.FromPG(err, "attribute donation")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, apperr.NotFound("donation not found")
	}
	return r.Get(ctx, donationID)
}

// ListByCampaign returns a page of an owned campaign's donations.
func (r *DonationRepo) ListByCampaign(ctx context.Context, campaignID, organizerID string, limit, offset int) ([]domain.Donation, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM donations d
		JOIN campaigns c ON c.id = d.campaign_id
		WHERE d.campaign_id = $1 AND c.organizer_id = $2
	`, campaignID, organizerID).Scan(&total)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "count donations")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+donationCols+`
		FROM donations d
		JOIN campaigns c ON c.id = d.campaign_id
		WHERE d.campaign_id = $1 AND c.organizer_id = $2
		ORDER BY d.created_at DESC LIMIT $3 OFFSET $4
	`, campaignID, organizerID, limit, offset)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "list donations")
	}
	defer rows.Close()

	var out []domain.Donation
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.CampaignID, &d.DonorEmail, &d.Amount, &d.Status,
			&d.LinkTokenID, &d.ContactID, &d.CreatedAt, &d.CompletedAt); err != nil {
			return nil, 0, apperr.FromPG(err, "scan donation")
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// StatsByCampaign aggregates completed donations for one campaign.
func (r *DonationRepo) StatsByCampaign(ctx context.Context, campaignID string) (*donation.CampaignDonationStats, error) {
	s := &donation.CampaignDonationStats{CampaignID: campaignID}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0),
		       COUNT(*) FILTER (WHERE link_token_id IS NOT NULL),
		       COALESCE(SUM(amount) FILTER (WHERE link_token_id IS NOT NULL), 0)
		FROM donations
		WHERE campaign_id = $1 AND status = 'completed'
	`, campaignID).Scan(&s.DonationCount, &s.TotalAmount, &s.AttributedCount, &s.AttributedTotal)
	if err != nil {
		return nil, apperr.FromPG(err, "donation stats")
	}
	return s, nil
}

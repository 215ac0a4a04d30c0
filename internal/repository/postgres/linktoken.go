package postgres

import (
	"context"
	"database/sql"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
)

// LinkTokenRepo implements linktoken.Repository against PostgreSQL.
type LinkTokenRepo struct{ db *sql.DB }

// NewLinkTokenRepo creates a Postgres-backed link token repository.
func NewLinkTokenRepo(db *sql.DB) *LinkTokenRepo { return &LinkTokenRepo{db: db} }

const linkTokenCols = `
	id, campaign_id, contact_id, segment_id, outreach_campaign_id, type,
	prefill_amount, COALESCE(personalized_message,''),
	COALESCE(utm_source,''), COALESCE(utm_medium,''),
	COALESCE(utm_campaign,''), COALESCE(utm_content,''),
	clicks_count, last_clicked_at, created_at`

func scanLinkToken(s interface{ Scan(...interface{}) error }) (*domain.LinkToken, error) {
	t := &domain.LinkToken{}
	err := s.Scan(
		&t.ID, &t.CampaignID, &t.ContactID, &t.SegmentID, &t.OutreachCampaignID, &t.Type,
		&t.PrefillAmount, &t.PersonalizedMsg,
		&t.UTMSource, &t.UTMMedium, &t.UTMCampaign, &t.UTMContent,
		&t.ClicksCount, &t.LastClickedAt, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("link token not found")
	}
	if err != nil {
		return nil, apperr.FromPG(err, "get link token")
	}
	return t, nil
}

// Create inserts a token after verifying, in one transaction, that the
// campaign and the referenced contact or segment belong to the organizer.
func (r *LinkTokenRepo) Create(ctx context.Context, t *domain.LinkToken, organizerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.FromPG(err, "begin create link token")
	}
	defer tx.Rollback()

	var owned bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM campaigns WHERE id = $1 AND organizer_id = $2)
	`, t.CampaignID, organizerID).Scan(&owned); err != nil {
		return apperr.FromPG(err, "verify campaign")
	}
	if !owned {
		return apperr.NotFound("campaign not found")
	}

	if t.ContactID != nil {
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM contacts WHERE id = $1 AND organizer_id = $2)
		`, *t.ContactID, organizerID).Scan(&owned); err != nil {
			return apperr.FromPG(err, "verify contact")
		}
		if !owned {
			return apperr.NotFound("contact not found")
		}
	}
	if t.SegmentID != nil {
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM segments WHERE id = $1 AND organizer_id = $2)
		`, *t.SegmentID, organizerID).Scan(&owned); err != nil {
			return apperr.FromPG(err, "verify segment")
		}
		if !owned {
			return apperr.NotFound("segment not found")
		}
	}

	if err := insertLinkToken(ctx, tx, t); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.FromPG(err, "commit create link token")
	}
	return nil
}

// CreatePublic inserts an organizer-less share token. Campaign existence
// is enforced by the FK and surfaces as not-found.
func (r *LinkTokenRepo) CreatePublic(ctx context.Context, t *domain.LinkToken) error {
	return insertLinkToken(ctx, r.db, t)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertLinkToken(ctx context.Context, db execer, t *domain.LinkToken) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO link_tokens
			(id, campaign_id, contact_id, segment_id, outreach_campaign_id, type,
			 prefill_amount, personalized_message,
			 utm_source, utm_medium, utm_campaign, utm_content,
			 clicks_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, NOW())
	`, t.ID, t.CampaignID, t.ContactID, t.SegmentID, t.OutreachCampaignID, t.Type,
		t.PrefillAmount, t.PersonalizedMsg,
		t.UTMSource, t.UTMMedium, t.UTMCampaign, t.UTMContent)
	if err != nil {
		return apperr.FromPG(err, "create link token")
	}
	return nil
}

// Get returns a token with no ownership check.
func (r *LinkTokenRepo) Get(ctx context.Context, id string) (*domain.LinkToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+linkTokenCols+` FROM link_tokens WHERE id = $1`, id)
	return scanLinkToken(row)
}

// GetForOrganizer returns a token only if its campaign is owned.
func (r *LinkTokenRepo) GetForOrganizer(ctx context.Context, id, organizerID string) (*domain.LinkToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+linkTokenCols+`
		FROM link_tokens t
		WHERE t.id = $1
		  AND EXISTS (SELECT 1 FROM campaigns c WHERE c.id = t.campaign_id AND c.organizer_id = $2)
	`, id, organizerID)
	return scanLinkToken(row)
}

// IncrementClicks bumps clicks_count atomically and stamps the click time.
func (r *LinkTokenRepo) IncrementClicks(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE link_tokens
		SET clicks_count = clicks_count + 1, last_clicked_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return apperr.FromPG(err, "increment clicks")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("link token not found")
	}
	return nil
}

// DeleteUnsafe hard-deletes a token with no ownership check.
func (r *LinkTokenRepo) DeleteUnsafe(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM link_tokens WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "delete link token")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("link token not found")
	}
	return nil
}

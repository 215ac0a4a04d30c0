package postgres

import (
	"context"
	"database/sql"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/service/analytics"
)

// AnalyticsRepo implements analytics.Repository against PostgreSQL.
type AnalyticsRepo struct {
	db        *sql.DB
	campaigns *CampaignRepo
}

// NewAnalyticsRepo creates a Postgres-backed analytics repository.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db, campaigns: NewCampaignRepo(db)}
}

// CampaignIDs returns the ids of every campaign the organizer owns.
func (r *AnalyticsRepo) CampaignIDs(ctx context.Context, organizerID string) ([]string, error) {
	return r.campaigns.IDs(ctx, organizerID)
}

// TokenCounts summarizes a campaign's tokens per type plus total clicks.
func (r *AnalyticsRepo) TokenCounts(ctx context.Context, campaignID string) (*analytics.TokenCounts, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT type, COUNT(*), COALESCE(SUM(clicks_count), 0)
		FROM link_tokens
		WHERE campaign_id = $1
		GROUP BY type
	`, campaignID)
	if err != nil {
		return nil, apperr.FromPG(err, "token counts")
	}
	defer rows.Close()

	tc := &analytics.TokenCounts{ByType: map[domain.LinkTokenType]int{}}
	for rows.Next() {
		var t domain.LinkTokenType
		var count, clicks int
		if err := rows.Scan(&t, &count, &clicks); err != nil {
			return nil, apperr.FromPG(err, "scan token count")
		}
		tc.ByType[t] = count
		tc.Total += count
		tc.TotalClicks += clicks
	}
	return tc, rows.Err()
}

// ShareStats summarizes a campaign's share tokens and their clicks.
func (r *AnalyticsRepo) ShareStats(ctx context.Context, campaignID string) (*analytics.ShareStats, error) {
	s := &analytics.ShareStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(clicks_count), 0)
		FROM link_tokens
		WHERE campaign_id = $1 AND type = 'share'
	`, campaignID).Scan(&s.ShareTokens, &s.ShareClicks)
	if err != nil {
		return nil, apperr.FromPG(err, "share stats")
	}
	return s, nil
}

// TopSegments ranks the organizer's segments by recipient clicks then
// opens, from the cached recipient flags.
func (r *AnalyticsRepo) TopSegments(ctx context.Context, organizerID string, limit int) ([]analytics.SegmentEngagement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, COUNT(DISTINCT c.id),
		       COUNT(*) FILTER (WHERE r.opened),
		       COUNT(*) FILTER (WHERE r.clicked)
		FROM segments s
		JOIN contacts c ON c.segment_id = s.id
		JOIN outreach_campaign_recipients r ON r.contact_id = c.id
		WHERE s.organizer_id = $1
		GROUP BY s.id, s.name
		ORDER BY COUNT(*) FILTER (WHERE r.clicked) DESC,
		         COUNT(*) FILTER (WHERE r.opened) DESC
		LIMIT $2
	`, organizerID, limit)
	if err != nil {
		return nil, apperr.FromPG(err, "top segments")
	}
	defer rows.Close()

	var out []analytics.SegmentEngagement
	for rows.Next() {
		var s analytics.SegmentEngagement
		if err := rows.Scan(&s.SegmentID, &s.SegmentName, &s.Contacts, &s.Opens, &s.Clicks); err != nil {
			return nil, apperr.FromPG(err, "scan segment engagement")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TopContacts ranks the organizer's contacts by clicks then opens from
// the event log.
func (r *AnalyticsRepo) TopContacts(ctx context.Context, organizerID string, limit int) ([]analytics.ContactEngagement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.email,
		       COUNT(*) FILTER (WHERE e.type = 'open'),
		       COUNT(*) FILTER (WHERE e.type = 'click')
		FROM contacts c
		JOIN email_events e ON e.contact_id = c.id
		WHERE c.organizer_id = $1
		GROUP BY c.id, c.name, c.email
		ORDER BY COUNT(*) FILTER (WHERE e.type = 'click') DESC,
		         COUNT(*) FILTER (WHERE e.type = 'open') DESC
		LIMIT $2
	`, organizerID, limit)
	if err != nil {
		return nil, apperr.FromPG(err, "top contacts")
	}
	defer rows.Close()

	var out []analytics.ContactEngagement
	for rows.Next() {
		var c analytics.ContactEngagement
		if err := rows.Scan(&c.ContactID, &c.Name, &c.Email, &c.Opens, &c.Clicks); err != nil {
			return nil, apperr.FromPG(err, "scan contact engagement")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

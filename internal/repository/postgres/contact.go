package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
)

// ContactRepo implements contact.Repository against PostgreSQL.
type ContactRepo struct{ db *sql.DB }

// NewContactRepo creates a Postgres-backed contact repository.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

// CreateSegment inserts a segment.
func (r *ContactRepo) CreateSegment(ctx context.Context, s *domain.Segment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO segments (id, organizer_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, s.ID, s.OrganizerID, s.Name, s.Description)
	if err != nil {
		return apperr.FromPG(err, "create segment")
	}
	return nil
}

// GetSegment returns a segment only if the organizer owns it.
func (r *ContactRepo) GetSegment(ctx context.Context, id, organizerID string) (*domain.Segment, error) {
	s := &domain.Segment{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organizer_id, name, COALESCE(description,''), created_at
		FROM segments WHERE id = $1 AND organizer_id = $2
	`, id, organizerID).Scan(&s.ID, &s.OrganizerID, &s.Name, &s.Description, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("segment not found")
	}
	if err != nil {
		return nil, apperr.FromPG(err, "get segment")
	}
	return s, nil
}

// ListSegments returns all segments of an organizer with contact counts.
func (r *ContactRepo) ListSegments(ctx context.Context, organizerID string) ([]domain.Segment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.organizer_id, s.name, COALESCE(s.description,''),
		       COUNT(c.id), s.created_at
		FROM segments s
		LEFT JOIN contacts c ON c.segment_id = s.id
		WHERE s.organizer_id = $1
		GROUP BY s.id
		ORDER BY s.created_at DESC
	`, organizerID)
	if err != nil {
		return nil, apperr.FromPG(err, "list segments")
	}
	defer rows.Close()

	var out []domain.Segment
	for rows.Next() {
		var s domain.Segment
		if err := rows.Scan(&s.ID, &s.OrganizerID, &s.Name, &s.Description, &s.ContactCount, &s.CreatedAt); err != nil {
			return nil, apperr.FromPG(err, "scan segment")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// BulkInsertContacts inserts contacts, skipping emails already present in
// the segment via the unique index. Runs as one multi-row statement.
func (r *ContactRepo) BulkInsertContacts(ctx context.Context, segmentID string, contacts []domain.Contact) (int, error) {
	if len(contacts) == 0 {
		return 0, nil
	}

	ids := make([]string, len(contacts))
	orgIDs := make([]string, len(contacts))
	names := make([]string, len(contacts))
	emails := make([]string, len(contacts))
	descs := make([]string, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
		orgIDs[i] = c.OrganizerID
		names[i] = c.Name
		emails[i] = c.Email
		descs[i] = c.Description
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactInsertCols+`)
		SELECT unnest($2::text[]), $1, unnest($3::text[]), unnest($4::text[]),
		       unnest($5::text[]), unnest($6::text[]), 0, NOW()
		ON CONFLICT (segment_id, email) DO NOTHING
	`, segmentID, pq.Array(ids), pq.Array(orgIDs), pq.Array(names), pq.Array(emails), pq.Array(descs))
	if err != nil {
		return 0, apperr.FromPG(err, "bulk insert contacts")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.FromPG(err, "bulk insert contacts")
	}
	return int(n), nil
}

const contactInsertCols = `id, segment_id, organizer_id, name, email, description, emails_opened, created_at`

const contactCols = `c.id, c.segment_id, c.organizer_id, c.name, c.email,
	       COALESCE(c.description,''), c.emails_opened, c.last_open_at, c.created_at`

func scanContact(rows *sql.Rows, c *domain.Contact) error {
	return rows.Scan(&c.ID, &c.SegmentID, &c.OrganizerID, &c.Name, &c.Email,
		&c.Description, &c.EmailsOpened, &c.LastOpenAt, &c.CreatedAt)
}

// ListContacts returns a page of an owned segment's contacts.
func (r *ContactRepo) ListContacts(ctx context.Context, segmentID, organizerID string, limit, offset int) ([]domain.Contact, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM contacts c
		WHERE c.segment_id = $1 AND c.organizer_id = $2
	`, segmentID, organizerID).Scan(&total)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "count contacts")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+contactCols+`
		FROM contacts c
		WHERE c.segment_id = $1 AND c.organizer_id = $2
		ORDER BY c.created_at LIMIT $3 OFFSET $4
	`, segmentID, organizerID, limit, offset)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "list contacts")
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := scanContact(rows, &c); err != nil {
			return nil, 0, apperr.FromPG(err, "scan contact")
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// ContactsBySegment returns every contact of one owned segment.
func (r *ContactRepo) ContactsBySegment(ctx context.Context, segmentID, organizerID string) ([]domain.Contact, error) {
	// distinguish an empty segment from a foreign one
	if _, err := r.GetSegment(ctx, segmentID, organizerID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+contactCols+`
		FROM contacts c
		WHERE c.segment_id = $1
		ORDER BY c.created_at
	`, segmentID)
	if err != nil {
		return nil, apperr.FromPG(err, "contacts by segment")
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := scanContact(rows, &c); err != nil {
			return nil, apperr.FromPG(err, "scan contact")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AllContacts returns every contact the organizer owns, one row per email
// across segments (oldest row wins).
func (r *ContactRepo) AllContacts(ctx context.Context, organizerID string) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (c.email) `+contactCols+`
		FROM contacts c
		WHERE c.organizer_id = $1
		ORDER BY c.email, c.created_at
	`, organizerID)
	if err != nil {
		return nil, apperr.FromPG(err, "all contacts")
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := scanContact(rows, &c); err != nil {
			return nil, apperr.FromPG(err, "scan contact")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetContact returns a contact only if the organizer owns it.
func (r *ContactRepo) GetContact(ctx context.Context, id, organizerID string) (*domain.Contact, error) {
	c := &domain.Contact{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+contactCols+`
		FROM contacts c
		WHERE c.id = $1 AND c.organizer_id = $2
	`, id, organizerID).Scan(&c.ID, &c.SegmentID, &c.OrganizerID, &c.Name, &c.Email,
		&c.Description, &c.EmailsOpened, &c.LastOpenAt, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("contact not found")
	}
	if err != nil {
		return nil, apperr.FromPG(err, "get contact")
	}
	return c, nil
}

// IncrementOpens bumps the contact's open counter and stamps the time.
func (r *ContactRepo) IncrementOpens(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts SET emails_opened = emails_opened + 1, last_open_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return apperr.FromPG(err, "increment opens")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("contact not found")
	}
	return nil
}

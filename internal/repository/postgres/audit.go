package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/givebridge/givebridge/internal/apperr"
	"github.com/givebridge/givebridge/internal/domain"
)

// AuditRepo appends and reads the audit log.
type AuditRepo struct{ db *sql.DB }

// NewAuditRepo creates a Postgres-backed audit repository.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Insert appends one audit entry.
func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	var meta []byte
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return apperr.Validation("audit metadata not serializable: %v", err)
		}
		meta = b
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, organizer_id, action, entity_type, entity_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.OrganizerID, e.Action, e.EntityType, e.EntityID, meta)
	if err != nil {
		return apperr.FromPG(err, "insert audit entry")
	}
	return nil
}

// List returns a page of the organizer's audit entries, newest first.
func (r *AuditRepo) List(ctx context.Context, organizerID string, limit, offset int) ([]domain.AuditEntry, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM audit_log WHERE organizer_id = $1
	`, organizerID).Scan(&total)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "count audit entries")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, organizer_id, action, entity_type, entity_id, metadata, created_at
		FROM audit_log
		WHERE organizer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, organizerID, limit, offset)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "list audit entries")
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.OrganizerID, &e.Action, &e.EntityType, &e.EntityID, &meta, &e.CreatedAt); err != nil {
			return nil, 0, apperr.FromPG(err, "scan audit entry")
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &e.Metadata)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

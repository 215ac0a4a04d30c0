package postgres

import (
	"context"
	"database/sql"

	"github.com/givebridge/givebridge/internal/apperr"
)

// APITokenRepo resolves bearer tokens to organizer ids.
type APITokenRepo struct{ db *sql.DB }

// NewAPITokenRepo creates a Postgres-backed API token repository.
func NewAPITokenRepo(db *sql.DB) *APITokenRepo { return &APITokenRepo{db: db} }

// OrganizerIDForToken returns the organizer owning a live token.
func (r *APITokenRepo) OrganizerIDForToken(ctx context.Context, token string) (string, error) {
	var organizerID string
	err := r.db.QueryRowContext(ctx, `
		SELECT organizer_id FROM api_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token).Scan(&organizerID)
	if err == sql.ErrNoRows {
		return "", apperr.NotFound("unknown api token")
	}
	if err != nil {
		return "", apperr.FromPG(err, "resolve api token")
	}
	return organizerID, nil
}

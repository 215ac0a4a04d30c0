// Package audit records who changed what. Recording is best-effort; an
// audit write failure never fails the operation it describes.
package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/givebridge/givebridge/internal/domain"
	"github.com/givebridge/givebridge/internal/pkg/logger"
)

// Store persists audit entries.
type Store interface {
	Insert(ctx context.Context, e *domain.AuditEntry) error
	List(ctx context.Context, organizerID string, limit, offset int) ([]domain.AuditEntry, int, error)
}

// Recorder appends audit entries for authenticated mutations.
type Recorder struct {
	store Store
}

// NewRecorder creates an audit recorder.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends one entry. Failures are logged and dropped.
func (r *Recorder) Record(ctx context.Context, organizerID, action, entityType, entityID string, metadata map[string]any) {
	err := r.store.Insert(ctx, &domain.AuditEntry{
		ID:          uuid.New().String(),
		OrganizerID: organizerID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Metadata:    metadata,
	})
	if err != nil {
		logger.Error("audit record", "error", err.Error(),
			"action", action, "entity_type", entityType, "entity_id", entityID)
	}
}

// List returns a page of the organizer's audit trail.
func (r *Recorder) List(ctx context.Context, organizerID string, limit, offset int) ([]domain.AuditEntry, int, error) {
	return r.store.List(ctx, organizerID, limit, offset)
}

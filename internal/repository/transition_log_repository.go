package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/database"
)

// TransitionLogRepository appends workflow history.
type TransitionLogRepository struct {
	db *sqlx.DB
}

// NewTransitionLogRepository constructs the repository.
func NewTransitionLogRepository(db *sqlx.DB) *TransitionLogRepository {
	return &TransitionLogRepository{db: db}
}

// Insert records a committed transition.
func (r *TransitionLogRepository) Insert(ctx context.Context, entry *models.TransitionLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO workflow_transitions (id, entity_kind, entity_id, from_status, to_status, actor_id, actor_role, reason, created_at)
        VALUES (:id, :entity_kind, :entity_id, :from_status, :to_status, :actor_id, :actor_role, :reason, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, entry); err != nil {
		return wrapWrite("insert transition log", err)
	}
	return nil
}

// ListByEntity returns the history of one record, oldest first.
func (r *TransitionLogRepository) ListByEntity(ctx context.Context, kind, entityID string) ([]models.TransitionLog, error) {
	const query = `SELECT id, entity_kind, entity_id, from_status, to_status, actor_id, actor_role, reason, created_at
        FROM workflow_transitions WHERE entity_kind = $1 AND entity_id = $2 ORDER BY created_at, id`
	var entries []models.TransitionLog
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &entries, query, kind, entityID); err != nil {
		return nil, fmt.Errorf("list transition log: %w", err)
	}
	return entries, nil
}

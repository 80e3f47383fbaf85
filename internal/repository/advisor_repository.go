package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/database"
)

// AdvisorRepository persists advisor assignments.
type AdvisorRepository struct {
	db *sqlx.DB
}

// NewAdvisorRepository constructs the repository.
func NewAdvisorRepository(db *sqlx.DB) *AdvisorRepository {
	return &AdvisorRepository{db: db}
}

// FindByStudent returns the assignment of a student.
func (r *AdvisorRepository) FindByStudent(ctx context.Context, studentID string) (*models.AdvisorAssignment, error) {
	const query = `SELECT student_id, advisor_id, assigned_by, assigned_at, updated_at FROM advisor_assignments WHERE student_id = $1`
	var assignment models.AdvisorAssignment
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &assignment, query, studentID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// List returns assignments matching the filter.
func (r *AdvisorRepository) List(ctx context.Context, filter models.AdvisorAssignmentFilter) ([]models.AdvisorAssignment, error) {
	var conditions []string
	var args []interface{}
	if filter.AdvisorID != "" {
		args = append(args, filter.AdvisorID)
		conditions = append(conditions, fmt.Sprintf("advisor_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	query := `SELECT student_id, advisor_id, assigned_by, assigned_at, updated_at FROM advisor_assignments` +
		whereClause(conditions) + ` ORDER BY student_id`
	var assignments []models.AdvisorAssignment
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list advisor assignments: %w", err)
	}
	return assignments, nil
}

// Upsert assigns or reassigns the advisor of a student.
func (r *AdvisorRepository) Upsert(ctx context.Context, assignment *models.AdvisorAssignment) error {
	now := time.Now().UTC()
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO advisor_assignments (student_id, advisor_id, assigned_by, assigned_at, updated_at)
        VALUES (:student_id, :advisor_id, :assigned_by, :assigned_at, :updated_at)
        ON CONFLICT (student_id) DO UPDATE SET advisor_id = EXCLUDED.advisor_id,
        assigned_by = EXCLUDED.assigned_by, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, assignment); err != nil {
		return wrapWrite("upsert advisor assignment", err)
	}
	return nil
}

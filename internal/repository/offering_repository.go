package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/database"
)

const offeringColumns = `id, course_id, semester_id, faculty_id, department_id, allowed_departments, status, reason,
       proposed_at, reviewed_at, reviewed_by, completed_at, updated_at`

// OfferingRepository persists course offerings.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository constructs the repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

// FindByID fetches an offering by identifier.
func (r *OfferingRepository) FindByID(ctx context.Context, id string) (*models.CourseOffering, error) {
	query := `SELECT ` + offeringColumns + ` FROM course_offerings WHERE id = $1`
	var offering models.CourseOffering
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// List returns offerings matching the filter.
func (r *OfferingRepository) List(ctx context.Context, filter models.OfferingFilter) ([]models.CourseOffering, int, error) {
	var conditions []string
	var args []interface{}
	if filter.SemesterID != "" {
		args = append(args, filter.SemesterID)
		conditions = append(conditions, fmt.Sprintf("semester_id = $%d", len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)))
	}
	if filter.FacultyID != "" {
		args = append(args, filter.FacultyID)
		conditions = append(conditions, fmt.Sprintf("faculty_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	clause := whereClause(conditions)
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	exec := database.Conn(ctx, r.db)
	query := fmt.Sprintf(`SELECT %s FROM course_offerings%s ORDER BY proposed_at DESC LIMIT %d OFFSET %d`, offeringColumns, clause, limit, offset)
	var offerings []models.CourseOffering
	if err := sqlx.SelectContext(ctx, exec, &offerings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list offerings: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, exec, &total, "SELECT COUNT(*) FROM course_offerings"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count offerings: %w", err)
	}
	return offerings, total, nil
}

// ExistsActive reports whether a pending or approved offering exists for the course and semester.
func (r *OfferingRepository) ExistsActive(ctx context.Context, courseID, semesterID string) (bool, error) {
	const query = `SELECT 1 FROM course_offerings WHERE course_id = $1 AND semester_id = $2
        AND status IN ('pending', 'approved') LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &exists, query, courseID, semesterID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active offering: %w", err)
	}
	return true, nil
}

// Create inserts a proposed offering.
func (r *OfferingRepository) Create(ctx context.Context, offering *models.CourseOffering) error {
	now := time.Now().UTC()
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	if offering.Status == "" {
		offering.Status = models.OfferingStatusPending
	}
	if offering.ProposedAt.IsZero() {
		offering.ProposedAt = now
	}
	if offering.AllowedDepartments == nil {
		offering.AllowedDepartments = []string{}
	}
	offering.UpdatedAt = now
	const query = `INSERT INTO course_offerings (id, course_id, semester_id, faculty_id, department_id, allowed_departments,
        status, reason, proposed_at, reviewed_at, reviewed_by, completed_at, updated_at)
        VALUES (:id, :course_id, :semester_id, :faculty_id, :department_id, :allowed_departments,
        :status, :reason, :proposed_at, :reviewed_at, :reviewed_by, :completed_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, offering); err != nil {
		return wrapWrite("create offering", err)
	}
	return nil
}

// OfferingTransition describes a guarded offering status change.
type OfferingTransition struct {
	ID      string
	From    models.OfferingStatus
	To      models.OfferingStatus
	ActorID string
	At      time.Time
	Reason  *string
}

// TransitionStatus moves the offering from From to To. It returns
// sql.ErrNoRows when the row is no longer in From.
func (r *OfferingRepository) TransitionStatus(ctx context.Context, params OfferingTransition) error {
	var query string
	args := []interface{}{params.ID, params.From, params.To, params.At}
	if params.To == models.OfferingStatusCompleted {
		query = `UPDATE course_offerings SET status = $3, completed_at = $4, updated_at = $4
        WHERE id = $1 AND status = $2`
	} else {
		query = `UPDATE course_offerings SET status = $3, reviewed_at = $4, updated_at = $4, reviewed_by = $5, reason = $6
        WHERE id = $1 AND status = $2`
		args = append(args, params.ActorID, params.Reason)
	}
	return execConditional(ctx, database.Conn(ctx, r.db), "transition offering", query, args...)
}

// ListApprovedInLockedSemesters returns ids of approved offerings whose semester is locked.
func (r *OfferingRepository) ListApprovedInLockedSemesters(ctx context.Context) ([]string, error) {
	const query = `SELECT o.id FROM course_offerings o
        JOIN semesters s ON s.id = o.semester_id
        WHERE o.status = 'approved' AND s.locked = TRUE
        ORDER BY o.id`
	var ids []string
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &ids, query); err != nil {
		return nil, fmt.Errorf("list rollover offerings: %w", err)
	}
	return ids, nil
}

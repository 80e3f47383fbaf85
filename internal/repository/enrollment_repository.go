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

const enrollmentColumns = `id, student_id, offering_id, type, status, requested_at, faculty_action_at, advisor_action_at,
       enrolled_at, rejected_at, withdrawn_at, rejection_reason, updated_at`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByIDForUpdate returns an enrollment and row-locks it until the
// surrounding transaction ends.
func (r *EnrollmentRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1 FOR UPDATE`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindLatestByPair resolves a (student, offering) key to the open enrollment,
// falling back to the most recent closed one.
func (r *EnrollmentRepository) FindLatestByPair(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 AND offering_id = $2
	ORDER BY (status IN ('pending_faculty', 'pending_advisor', 'enrolled')) DESC, requested_at DESC LIMIT 1`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &enrollment, query, studentID, offeringID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindOpenByPair returns the non-terminal enrollment of the pair if any.
func (r *EnrollmentRepository) FindOpenByPair(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 AND offering_id = $2
	AND status IN ($3, $4, $5) LIMIT 1`
	args := append([]interface{}{studentID, offeringID}, openEnrollmentStatuses()...)
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &enrollment, query, args...); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.OfferingID != "" {
		args = append(args, filter.OfferingID)
		conditions = append(conditions, fmt.Sprintf("offering_id = $%d", len(args)))
	}
	if filter.SemesterID != "" {
		args = append(args, filter.SemesterID)
		conditions = append(conditions, fmt.Sprintf("offering_id IN (SELECT id FROM course_offerings WHERE semester_id = $%d)", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	clause := whereClause(conditions)
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	exec := database.Conn(ctx, r.db)
	query := fmt.Sprintf(`SELECT %s FROM enrollments%s ORDER BY requested_at DESC LIMIT %d OFFSET %d`, enrollmentColumns, clause, limit, offset)
	var enrollments []models.Enrollment
	if err := sqlx.SelectContext(ctx, exec, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := sqlx.GetContext(ctx, exec, &total, "SELECT COUNT(*) FROM enrollments"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	now := time.Now().UTC()
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.RequestedAt.IsZero() {
		enrollment.RequestedAt = now
	}
	if enrollment.Type == "" {
		enrollment.Type = models.EnrollmentTypeCredit
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusPendingFaculty
	}
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (id, student_id, offering_id, type, status, requested_at, faculty_action_at,
        advisor_action_at, enrolled_at, rejected_at, withdrawn_at, rejection_reason, updated_at)
        VALUES (:id, :student_id, :offering_id, :type, :status, :requested_at, :faculty_action_at,
        :advisor_action_at, :enrolled_at, :rejected_at, :withdrawn_at, :rejection_reason, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, enrollment); err != nil {
		return wrapWrite("create enrollment", err)
	}
	return nil
}

// EnrollmentTransition describes a guarded status change.
type EnrollmentTransition struct {
	ID     string
	From   models.EnrollmentStatus
	To     models.EnrollmentStatus
	At     time.Time
	Reason *string
}

// TransitionStatus moves the enrollment from From to To, stamping the matching
// action column. It returns sql.ErrNoRows when the row is no longer in From.
func (r *EnrollmentRepository) TransitionStatus(ctx context.Context, params EnrollmentTransition) error {
	set := "status = $3, updated_at = $4"
	switch params.To {
	case models.EnrollmentStatusPendingAdvisor:
		set += ", faculty_action_at = $4"
	case models.EnrollmentStatusEnrolled:
		set += ", advisor_action_at = $4, enrolled_at = $4"
	case models.EnrollmentStatusRejected:
		set += ", rejected_at = $4, rejection_reason = $5"
		if params.From == models.EnrollmentStatusPendingFaculty {
			set += ", faculty_action_at = $4"
		} else {
			set += ", advisor_action_at = $4"
		}
	case models.EnrollmentStatusWithdrawn:
		set += ", withdrawn_at = $4"
	}
	args := []interface{}{params.ID, params.From, params.To, params.At}
	if params.To == models.EnrollmentStatusRejected {
		args = append(args, params.Reason)
	}
	query := fmt.Sprintf("UPDATE enrollments SET %s WHERE id = $1 AND status = $2", set)
	return execConditional(ctx, database.Conn(ctx, r.db), "transition enrollment", query, args...)
}

// ListStudentIDsBySemester returns the distinct students with enrollments in the semester.
func (r *EnrollmentRepository) ListStudentIDsBySemester(ctx context.Context, semesterID string) ([]string, error) {
	const query = `SELECT DISTINCT e.student_id FROM enrollments e
        JOIN course_offerings o ON o.id = e.offering_id
        WHERE o.semester_id = $1 ORDER BY e.student_id`
	var ids []string
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &ids, query, semesterID); err != nil {
		return nil, fmt.Errorf("list semester students: %w", err)
	}
	return ids, nil
}

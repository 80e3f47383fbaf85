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

const gradeColumns = `id, student_id, offering_id, attempt, grade, status, submitted_by, submitted_at, approved_by, approved_at`

// GradeRepository manages grade records and the grade scale.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// FindByID fetches a grade record.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.GradeRecord, error) {
	query := `SELECT ` + gradeColumns + ` FROM grade_records WHERE id = $1`
	var record models.GradeRecord
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns grade records matching the filter.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeRecord, error) {
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
	query := `SELECT ` + gradeColumns + ` FROM grade_records` + whereClause(conditions) + ` ORDER BY submitted_at DESC`
	var records []models.GradeRecord
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &records, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return records, nil
}

// Create inserts a submitted grade.
func (r *GradeRepository) Create(ctx context.Context, record *models.GradeRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = models.GradeStatusSubmitted
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grade_records (id, student_id, offering_id, attempt, grade, status, submitted_by, submitted_at, approved_by, approved_at)
        VALUES (:id, :student_id, :offering_id, :attempt, :grade, :status, :submitted_by, :submitted_at, :approved_by, :approved_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Conn(ctx, r.db), query, record); err != nil {
		return wrapWrite("create grade", err)
	}
	return nil
}

// Approve moves a submitted record to approved. It returns sql.ErrNoRows when
// the record is no longer submitted and ErrDuplicate when the attempt already
// has an approved record.
func (r *GradeRepository) Approve(ctx context.Context, id, approvedBy string, at time.Time) error {
	const query = `UPDATE grade_records SET status = $2, approved_by = $3, approved_at = $4 WHERE id = $1 AND status = $5`
	return execConditional(ctx, database.Conn(ctx, r.db), "approve grade", query,
		id, models.GradeStatusApproved, approvedBy, at, models.GradeStatusSubmitted)
}

// CountByPair counts grade records of any status for the student and offering.
func (r *GradeRepository) CountByPair(ctx context.Context, studentID, offeringID string) (int, error) {
	const query = `SELECT COUNT(*) FROM grade_records WHERE student_id = $1 AND offering_id = $2`
	var count int
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &count, query, studentID, offeringID); err != nil {
		return 0, fmt.Errorf("count grades: %w", err)
	}
	return count, nil
}

// MaxApprovedAttempt returns the highest approved attempt or zero.
func (r *GradeRepository) MaxApprovedAttempt(ctx context.Context, studentID, offeringID string) (int, error) {
	const query = `SELECT COALESCE(MAX(attempt), 0) FROM grade_records WHERE student_id = $1 AND offering_id = $2 AND status = 'approved'`
	var attempt int
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &attempt, query, studentID, offeringID); err != nil {
		return 0, fmt.Errorf("max grade attempt: %w", err)
	}
	return attempt, nil
}

// ListScale returns the grade scale ordered from the highest grade.
func (r *GradeRepository) ListScale(ctx context.Context) ([]models.GradeScaleEntry, error) {
	const query = `SELECT grade, points, counts_toward_gpa FROM grade_scale ORDER BY sort_order`
	var entries []models.GradeScaleEntry
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &entries, query); err != nil {
		return nil, fmt.Errorf("list grade scale: %w", err)
	}
	return entries, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/database"
)

const semesterColumns = `id, name, academic_year, start_date, end_date, locked, locked_at, locked_by`

// SemesterRepository persists semesters and their lock.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// FindByID returns a semester.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	query := `SELECT ` + semesterColumns + ` FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

const semesterByOfferingQuery = `SELECT s.id, s.name, s.academic_year, s.start_date, s.end_date, s.locked, s.locked_at, s.locked_by
        FROM semesters s JOIN course_offerings o ON o.semester_id = s.id WHERE o.id = $1`

// FindByOffering returns the semester owning the offering.
func (r *SemesterRepository) FindByOffering(ctx context.Context, offeringID string) (*models.Semester, error) {
	return r.findByOffering(ctx, semesterByOfferingQuery, offeringID)
}

// FindByOfferingForShare is FindByOffering holding a share lock on the
// semester row until the surrounding transaction ends, so Lock waits for
// in-flight writers and writers queued behind Lock see the committed flag.
func (r *SemesterRepository) FindByOfferingForShare(ctx context.Context, offeringID string) (*models.Semester, error) {
	return r.findByOffering(ctx, semesterByOfferingQuery+` FOR SHARE OF s`, offeringID)
}

func (r *SemesterRepository) findByOffering(ctx context.Context, query, offeringID string) (*models.Semester, error) {
	var semester models.Semester
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &semester, query, offeringID); err != nil {
		return nil, err
	}
	return &semester, nil
}

// List returns semesters in chronological order.
func (r *SemesterRepository) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, error) {
	var conditions []string
	var args []interface{}
	if filter.AcademicYear != "" {
		args = append(args, filter.AcademicYear)
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)))
	}
	if filter.Locked != nil {
		args = append(args, *filter.Locked)
		conditions = append(conditions, fmt.Sprintf("locked = $%d", len(args)))
	}
	query := `SELECT ` + semesterColumns + ` FROM semesters` + whereClause(conditions) + ` ORDER BY start_date, id`
	var semesters []models.Semester
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &semesters, query, args...); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// Lock marks the semester locked. It returns sql.ErrNoRows when it was already locked.
func (r *SemesterRepository) Lock(ctx context.Context, id, lockedBy string, at time.Time) error {
	const query = `UPDATE semesters SET locked = TRUE, locked_at = $2, locked_by = $3 WHERE id = $1 AND locked = FALSE`
	return execConditional(ctx, database.Conn(ctx, r.db), "lock semester", query, id, at, lockedBy)
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/database"
)

// StandingRepository reads recomputation inputs and stores standing snapshots.
type StandingRepository struct {
	db *sqlx.DB
}

// NewStandingRepository constructs the repository.
func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

// ListRows returns the enrolled and withdrawn courses of a student joined with
// credits, semester ordering and the approved grade of the highest attempt.
func (r *StandingRepository) ListRows(ctx context.Context, studentID string) ([]models.StandingRow, error) {
	const query = `SELECT e.id AS enrollment_id, e.offering_id, c.code AS course_code, c.title AS course_title, c.credits,
        e.status, s.id AS semester_id, s.name AS semester_name, s.start_date AS semester_start, s.locked AS semester_locked,
        g.grade
        FROM enrollments e
        JOIN course_offerings o ON o.id = e.offering_id
        JOIN courses c ON c.id = o.course_id
        JOIN semesters s ON s.id = o.semester_id
        LEFT JOIN LATERAL (
            SELECT gr.grade FROM grade_records gr
            WHERE gr.student_id = e.student_id AND gr.offering_id = e.offering_id AND gr.status = 'approved'
            ORDER BY gr.attempt DESC LIMIT 1
        ) g ON TRUE
        WHERE e.student_id = $1 AND e.status IN ('enrolled', 'withdrawn')
        ORDER BY s.start_date, s.id, c.code`
	var rows []models.StandingRow
	if err := sqlx.SelectContext(ctx, database.Conn(ctx, r.db), &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list standing rows: %w", err)
	}
	return rows, nil
}

type standingRecord struct {
	StudentID  string    `db:"student_id"`
	CGPA       float64   `db:"cgpa"`
	Credits    float64   `db:"credits"`
	Final      bool      `db:"final"`
	Semesters  []byte    `db:"semesters"`
	ComputedAt time.Time `db:"computed_at"`
}

// Get returns the stored snapshot of a student.
func (r *StandingRepository) Get(ctx context.Context, studentID string) (*models.AcademicStanding, error) {
	const query = `SELECT student_id, cgpa, credits, final, semesters, computed_at FROM student_standings WHERE student_id = $1`
	var record standingRecord
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &record, query, studentID); err != nil {
		return nil, err
	}
	standing := &models.AcademicStanding{
		StudentID:  record.StudentID,
		CGPA:       record.CGPA,
		Credits:    record.Credits,
		Final:      record.Final,
		ComputedAt: record.ComputedAt,
	}
	if err := json.Unmarshal(record.Semesters, &standing.Semesters); err != nil {
		return nil, fmt.Errorf("decode standing semesters: %w", err)
	}
	return standing, nil
}

// Upsert stores the snapshot, replacing any previous one.
func (r *StandingRepository) Upsert(ctx context.Context, standing *models.AcademicStanding) error {
	semesters, err := json.Marshal(standing.Semesters)
	if err != nil {
		return fmt.Errorf("encode standing semesters: %w", err)
	}
	const query = `INSERT INTO student_standings (student_id, cgpa, credits, final, semesters, computed_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (student_id) DO UPDATE SET cgpa = EXCLUDED.cgpa, credits = EXCLUDED.credits,
        final = EXCLUDED.final, semesters = EXCLUDED.semesters, computed_at = EXCLUDED.computed_at`
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query,
		standing.StudentID, standing.CGPA, standing.Credits, standing.Final, semesters, standing.ComputedAt); err != nil {
		return wrapWrite("upsert standing", err)
	}
	return nil
}

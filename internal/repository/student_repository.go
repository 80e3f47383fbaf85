package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/database"
)

const studentColumns = `id, user_id, roll_number, full_name, department_id, active, created_at, updated_at`

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository instance.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return r.findOne(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
}

// FindByUserID returns the student record linked to a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	return r.findOne(ctx, `SELECT `+studentColumns+` FROM students WHERE user_id = $1 LIMIT 1`, userID)
}

// FindByRollNumber returns a student by roll number.
func (r *StudentRepository) FindByRollNumber(ctx context.Context, roll string) (*models.Student, error) {
	return r.findOne(ctx, `SELECT `+studentColumns+` FROM students WHERE roll_number = $1`, roll)
}

func (r *StudentRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.Student, error) {
	var student models.Student
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &student, query, arg); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpsertByRollNumber inserts the student or refreshes the existing row with the
// same roll number. The stored id is written back to student.ID.
func (r *StudentRepository) UpsertByRollNumber(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	const query = `INSERT INTO students (id, user_id, roll_number, full_name, department_id, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
        ON CONFLICT (roll_number) DO UPDATE SET user_id = COALESCE(EXCLUDED.user_id, students.user_id),
        full_name = EXCLUDED.full_name, department_id = EXCLUDED.department_id, updated_at = EXCLUDED.updated_at
        RETURNING id`
	var id string
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &id, query,
		student.ID, student.UserID, student.RollNumber, student.FullName, student.DepartmentID, now); err != nil {
		return wrapWrite("upsert student", err)
	}
	student.ID = id
	student.Active = true
	student.UpdatedAt = now
	return nil
}

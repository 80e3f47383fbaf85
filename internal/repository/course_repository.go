package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/database"
)

// CourseRepository reads the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, title, credits, department_id FROM courses WHERE id = $1`
	var course models.Course
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

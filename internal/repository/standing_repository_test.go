package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-workflow-api/internal/models"
)

func TestStandingListRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStandingRepository(db)

	start := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"enrollment_id", "offering_id", "course_code", "course_title", "credits", "status",
		"semester_id", "semester_name", "semester_start", "semester_locked", "grade"}).
		AddRow("enr-1", "off-1", "CS101", "Intro", 4.0, "enrolled", "sem-1", "Fall", start, true, "A").
		AddRow("enr-2", "off-2", "CS102", "Data", 3.0, "enrolled", "sem-1", "Fall", start, true, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.student_id = $1 AND e.status IN ('enrolled', 'withdrawn')")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	result, err := repo.ListRows(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.NotNil(t, result[0].Grade)
	assert.Equal(t, "A", *result[0].Grade)
	assert.Nil(t, result[1].Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStandingUpsertAndGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStandingRepository(db)

	now := time.Now().UTC()
	standing := &models.AcademicStanding{
		StudentID:  "stu-1",
		CGPA:       8.5,
		Credits:    7,
		Final:      true,
		Semesters:  []models.SemesterStanding{{SemesterID: "sem-1", SGPA: 8.5, Credits: 7, CGPAAsOf: 8.5, Final: true}},
		ComputedAt: now,
	}

	mock.ExpectExec("INSERT INTO student_standings .* ON CONFLICT \\(student_id\\)").
		WithArgs("stu-1", 8.5, 7.0, true, sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Upsert(context.Background(), standing))

	mock.ExpectQuery(regexp.QuoteMeta("FROM student_standings WHERE student_id = $1")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "cgpa", "credits", "final", "semesters", "computed_at"}).
			AddRow("stu-1", 8.5, 7.0, true, []byte(`[{"semester_id":"sem-1","sgpa":8.5,"credits":7,"cgpa_as_of":8.5,"final":true}]`), now))
	stored, err := repo.Get(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, stored.Semesters, 1)
	assert.Equal(t, 8.5, stored.Semesters[0].SGPA)
	assert.NoError(t, mock.ExpectationsWereMet())
}

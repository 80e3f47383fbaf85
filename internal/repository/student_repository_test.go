package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-workflow-api/internal/models"
)

func TestStudentFindByRollNumberMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE roll_number = $1")).
		WithArgs("R-404").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByRollNumber(context.Background(), "R-404")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentUpsertByRollNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("INSERT INTO students .* ON CONFLICT \\(roll_number\\)").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "R-001", "Ana", "CS", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stu-1"))

	student := &models.Student{RollNumber: "R-001", FullName: "Ana", DepartmentID: "CS"}
	require.NoError(t, repo.UpsertByRollNumber(context.Background(), student))
	assert.Equal(t, "stu-1", student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

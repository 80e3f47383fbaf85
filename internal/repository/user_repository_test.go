package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-workflow-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestUserUpsertByEmailKeepsExistingID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users .* ON CONFLICT \\(email\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), "ana@example.edu", "Ana", models.RoleStudent, "hash", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-user"))

	user := &models.User{Email: "ana@example.edu", FullName: "Ana", Role: models.RoleStudent, PasswordHash: "hash"}
	require.NoError(t, repo.UpsertByEmail(context.Background(), user))
	assert.Equal(t, "existing-user", user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "role", "password_hash", "active", "created_at", "updated_at"}).
		AddRow("u1", "fac@example.edu", "Faculty", string(models.RoleFaculty), "hash", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).WithArgs("u1").WillReturnRows(rows)

	user, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleFaculty, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

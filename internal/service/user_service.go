package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

type userUpserter interface {
	UpsertByEmail(ctx context.Context, user *models.User) error
}

type studentUpserter interface {
	UpsertByRollNumber(ctx context.Context, student *models.Student) error
}

// UserServiceConfig configures account provisioning.
type UserServiceConfig struct {
	DefaultPassword string
	BcryptCost      int
}

// UserService provisions student accounts from import rows.
type UserService struct {
	users     userUpserter
	students  studentUpserter
	tx        TxRunner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       UserServiceConfig
	hash      string
}

// NewUserService creates an instance of UserService. The default password is
// hashed once at construction.
func NewUserService(users userUpserter, students studentUpserter, tx TxRunner, validate *validator.Validate, logger *zap.Logger, cfg UserServiceConfig) (*UserService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.DefaultPassword == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "default import password must be set")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultPassword), cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &UserService{
		users:     users,
		students:  students,
		tx:        tx,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		hash:      string(hash),
	}, nil
}

// ImportStudent upserts the login by email and the student by roll number in one transaction.
// Existing passwords are left untouched.
func (s *UserService) ImportStudent(ctx context.Context, actor models.Actor, item dto.ImportStudentItem) (*models.Student, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrTransitionUnauthorized, "only admins may import users")
	}
	item.Email = strings.ToLower(strings.TrimSpace(item.Email))
	item.RollNumber = strings.TrimSpace(item.RollNumber)
	if err := s.validator.Struct(item); err != nil {
		return nil, validationError(err, "invalid import row")
	}

	user := &models.User{
		Email:        item.Email,
		FullName:     item.FullName,
		Role:         models.RoleStudent,
		PasswordHash: s.hash,
	}
	student := &models.Student{
		RollNumber:   item.RollNumber,
		FullName:     item.FullName,
		DepartmentID: item.DepartmentID,
	}
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.users.UpsertByEmail(txCtx, user); err != nil {
			return err
		}
		student.UserID = &user.ID
		return s.students.UpsertByRollNumber(txCtx, student)
	})
	if err != nil {
		s.logger.Error("student import failed", zap.String("roll_number", item.RollNumber), zap.Error(err))
		return nil, writeError(err, "failed to import student")
	}
	s.logger.Debug("student imported", zap.String("student_id", student.ID), zap.String("user_id", user.ID))
	return student, nil
}

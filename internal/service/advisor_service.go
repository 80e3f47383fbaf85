package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

type advisorRepository interface {
	FindByStudent(ctx context.Context, studentID string) (*models.AdvisorAssignment, error)
	List(ctx context.Context, filter models.AdvisorAssignmentFilter) ([]models.AdvisorAssignment, error)
	Upsert(ctx context.Context, assignment *models.AdvisorAssignment) error
}

type advisorStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByRollNumber(ctx context.Context, roll string) (*models.Student, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AdvisorService maintains the student to advisor mapping used for second-stage approvals.
type AdvisorService struct {
	repo      advisorRepository
	students  advisorStudentReader
	users     userReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAdvisorService constructs AdvisorService. users may be nil to skip advisor checks.
func NewAdvisorService(repo advisorRepository, students advisorStudentReader, users userReader, validate *validator.Validate, logger *zap.Logger) *AdvisorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisorService{
		repo:      repo,
		students:  students,
		users:     users,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns assignments. Advisors only see their own advisees.
func (s *AdvisorService) List(ctx context.Context, actor models.Actor, filter models.AdvisorAssignmentFilter) ([]models.AdvisorAssignment, error) {
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAdvisor:
		filter.AdvisorID = actor.UserID
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only advisors and admins may list assignments")
	}
	assignments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list advisor assignments")
	}
	return assignments, nil
}

// Assign sets the advisor of a student, replacing any previous one.
// Assigning the current advisor again succeeds without change.
func (s *AdvisorService) Assign(ctx context.Context, actor models.Actor, req dto.AssignAdvisorRequest) (*models.AdvisorAssignment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrTransitionUnauthorized, "only admins may assign advisors")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid advisor assignment")
	}

	student, err := s.resolveStudent(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAdvisor(ctx, req.AdvisorID); err != nil {
		return nil, err
	}

	current, err := s.repo.FindByStudent(ctx, student.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to load advisor assignment")
	}
	if current != nil && current.AdvisorID == req.AdvisorID {
		return current, nil
	}

	assignment := &models.AdvisorAssignment{
		StudentID:  student.ID,
		AdvisorID:  req.AdvisorID,
		AssignedBy: actor.UserID,
		AssignedAt: s.now(),
	}
	if err := s.repo.Upsert(ctx, assignment); err != nil {
		return nil, writeError(err, "failed to assign advisor")
	}
	s.logger.Info("advisor assigned",
		zap.String("student_id", student.ID),
		zap.String("advisor_id", req.AdvisorID),
		zap.String("actor_id", actor.UserID),
	)
	return assignment, nil
}

func (s *AdvisorService) resolveStudent(ctx context.Context, req dto.AssignAdvisorRequest) (*models.Student, error) {
	var (
		student *models.Student
		err     error
	)
	if req.StudentID != "" {
		student, err = s.students.FindByID(ctx, req.StudentID)
	} else {
		student, err = s.students.FindByRollNumber(ctx, req.RollNumber)
	}
	if err != nil {
		return nil, lookupError(err, appErrors.ErrStudentNotFound, "student not found")
	}
	return student, nil
}

func (s *AdvisorService) ensureAdvisor(ctx context.Context, advisorID string) error {
	if s.users == nil {
		return nil
	}
	user, err := s.users.FindByID(ctx, advisorID)
	if err != nil {
		return lookupError(err, appErrors.ErrNotFound, "advisor not found")
	}
	if user.Role != models.RoleAdvisor || !user.Active {
		return appErrors.Clone(appErrors.ErrValidation, "user is not an active advisor")
	}
	return nil
}

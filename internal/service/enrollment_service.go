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
	"github.com/noah-isme/academic-workflow-api/internal/workflow"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindOpenByPair(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

type offeringReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseOffering, error)
}

type enrollmentStudentReader interface {
	studentLookup
	FindByRollNumber(ctx context.Context, roll string) (*models.Student, error)
}

// EnrollmentService creates and reads enrollments. Status changes go through TransitionService.
type EnrollmentService struct {
	repo      enrollmentRepository
	offerings offeringReader
	semesters semesterLookup
	students  enrollmentStudentReader
	logs      transitionLogStore
	standings StandingUpdater
	tx        TxRunner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, offerings offeringReader, semesters semesterLookup, students enrollmentStudentReader, logs transitionLogStore, standings StandingUpdater, tx TxRunner, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:      repo,
		offerings: offerings,
		semesters: semesters,
		students:  students,
		logs:      logs,
		standings: standings,
		tx:        tx,
		validator: validate,
		logger:    logger,
	}
}

// List returns enrollments with pagination metadata. Students only see their own.
func (s *EnrollmentService) List(ctx context.Context, actor models.Actor, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	if actor.Role == models.RoleStudent {
		student, err := ownStudent(ctx, s.students, actor)
		if err != nil {
			return nil, nil, err
		}
		filter.StudentID = student.ID
	}
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list enrollments")
	}
	return enrollments, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one enrollment.
func (s *EnrollmentService) Get(ctx context.Context, actor models.Actor, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "enrollment not found")
	}
	if actor.Role == models.RoleStudent {
		student, err := ownStudent(ctx, s.students, actor)
		if err != nil {
			return nil, err
		}
		if student.ID != enrollment.StudentID {
			return nil, appErrors.ErrForbidden
		}
	}
	return enrollment, nil
}

// Request files a new enrollment in pending_faculty.
func (s *EnrollmentService) Request(ctx context.Context, actor models.Actor, req dto.RequestEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	graph, _ := workflow.For(workflow.KindEnrollment)
	if err := graph.CheckCreate(string(models.EnrollmentStatusPendingFaculty), actor.Role); err != nil {
		return nil, err
	}

	student, err := s.requestingStudent(ctx, actor, req.StudentID)
	if err != nil {
		return nil, err
	}
	offering, err := s.openOffering(ctx, req.OfferingID)
	if err != nil {
		return nil, err
	}
	if !offering.AllowsDepartment(student.DepartmentID) {
		return nil, appErrors.Clone(appErrors.ErrTransitionUnauthorized, "offering is not open to the student's department")
	}
	if open, err := s.findOpen(ctx, student.ID, offering.ID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateRequest, "an active enrollment request already exists")
	}

	enrollment := &models.Enrollment{
		StudentID:  student.ID,
		OfferingID: offering.ID,
		Type:       req.Type,
		Status:     models.EnrollmentStatusPendingFaculty,
	}
	if err := s.create(ctx, actor, enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// EnrollByRoll places the student with the roll number directly into
// enrolled. An existing enrolled record counts as success.
func (s *EnrollmentService) EnrollByRoll(ctx context.Context, actor models.Actor, offeringID string, kind models.EnrollmentType, roll string) (*models.Enrollment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	graph, _ := workflow.For(workflow.KindEnrollment)
	if err := graph.CheckCreate(string(models.EnrollmentStatusEnrolled), actor.Role); err != nil {
		return nil, err
	}
	student, err := s.students.FindByRollNumber(ctx, roll)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrStudentNotFound, "student not found")
	}
	offering, err := s.openOffering(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	open, err := s.findOpen(ctx, student.ID, offering.ID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		if open.Status == models.EnrollmentStatusEnrolled {
			return open, nil
		}
		return nil, appErrors.Clone(appErrors.ErrDuplicateRequest, "a pending enrollment request already exists")
	}

	now := time.Now().UTC()
	if kind == "" {
		kind = models.EnrollmentTypeCredit
	}
	enrollment := &models.Enrollment{
		StudentID:  student.ID,
		OfferingID: offering.ID,
		Type:       kind,
		Status:     models.EnrollmentStatusEnrolled,
		EnrolledAt: &now,
	}
	if err := s.create(ctx, actor, enrollment); err != nil {
		if appErrors.CodeOf(err) != appErrors.ErrDuplicateRequest.Code {
			return nil, err
		}
		// A concurrent writer opened the pair first; its enrolled record is ours too.
		winner, findErr := s.findOpen(ctx, student.ID, offering.ID)
		if findErr != nil {
			return nil, findErr
		}
		if winner == nil || winner.Status != models.EnrollmentStatusEnrolled {
			return nil, err
		}
		return winner, nil
	}
	return enrollment, nil
}

func (s *EnrollmentService) create(ctx context.Context, actor models.Actor, enrollment *models.Enrollment) error {
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := requireOpenSemester(txCtx, s.semesters, enrollment.OfferingID); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, enrollment); err != nil {
			return err
		}
		entry := newTransitionLog(workflow.KindEnrollment, enrollment.ID, nil, string(enrollment.Status), actor, nil, enrollment.RequestedAt)
		if err := s.logs.Insert(txCtx, entry); err != nil {
			return err
		}
		if enrollment.Status == models.EnrollmentStatusEnrolled {
			if _, err := s.standings.Recompute(txCtx, enrollment.StudentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		mapped := writeError(err, "failed to create enrollment")
		if appErrors.CodeOf(mapped) == appErrors.ErrInternal.Code {
			s.logger.Error("enrollment create failed", zap.String("student_id", enrollment.StudentID), zap.Error(err))
		}
		return mapped
	}
	if enrollment.Status == models.EnrollmentStatusEnrolled {
		s.standings.Invalidate(ctx, enrollment.StudentID)
	}
	return nil
}

func (s *EnrollmentService) requestingStudent(ctx context.Context, actor models.Actor, studentID string) (*models.Student, error) {
	if actor.Role == models.RoleStudent {
		student, err := ownStudent(ctx, s.students, actor)
		if err != nil {
			return nil, err
		}
		if studentID != "" && studentID != student.ID {
			return nil, appErrors.Clone(appErrors.ErrTransitionUnauthorized, "students may only request for themselves")
		}
		return student, nil
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrStudentNotFound, "student not found")
	}
	return student, nil
}

func (s *EnrollmentService) openOffering(ctx context.Context, offeringID string) (*models.CourseOffering, error) {
	offering, err := s.offerings.FindByID(ctx, offeringID)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "offering not found")
	}
	if offering.Status != models.OfferingStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "offering is not open for enrollment")
	}
	return offering, nil
}

func (s *EnrollmentService) findOpen(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error) {
	open, err := s.repo.FindOpenByPair(ctx, studentID, offeringID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, internalError(err, "failed to check existing enrollment")
	}
	return open, nil
}

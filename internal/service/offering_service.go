package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/internal/workflow"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

type offeringRepository interface {
	FindByID(ctx context.Context, id string) (*models.CourseOffering, error)
	List(ctx context.Context, filter models.OfferingFilter) ([]models.CourseOffering, int, error)
	ExistsActive(ctx context.Context, courseID, semesterID string) (bool, error)
	Create(ctx context.Context, offering *models.CourseOffering) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type semesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

// OfferingService handles course offering proposals and reads.
type OfferingService struct {
	repo      offeringRepository
	courses   courseReader
	semesters semesterReader
	logs      transitionLogStore
	tx        TxRunner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOfferingService constructs OfferingService.
func NewOfferingService(repo offeringRepository, courses courseReader, semesters semesterReader, logs transitionLogStore, tx TxRunner, validate *validator.Validate, logger *zap.Logger) *OfferingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferingService{repo: repo, courses: courses, semesters: semesters, logs: logs, tx: tx, validator: validate, logger: logger}
}

// List returns offerings with pagination metadata.
func (s *OfferingService) List(ctx context.Context, filter models.OfferingFilter) ([]models.CourseOffering, *models.Pagination, error) {
	offerings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list offerings")
	}
	return offerings, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one offering.
func (s *OfferingService) Get(ctx context.Context, id string) (*models.CourseOffering, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "offering not found")
	}
	return offering, nil
}

// Propose files a pending offering. Faculty propose for themselves; admins name the faculty.
func (s *OfferingService) Propose(ctx context.Context, actor models.Actor, req dto.ProposeOfferingRequest) (*models.CourseOffering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid offering payload")
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	graph, _ := workflow.For(workflow.KindOffering)
	if err := graph.CheckCreate(string(models.OfferingStatusPending), actor.Role); err != nil {
		return nil, err
	}

	facultyID := req.FacultyID
	if actor.Role == models.RoleFaculty {
		if facultyID != "" && facultyID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrTransitionUnauthorized, "faculty may only propose their own offerings")
		}
		facultyID = actor.UserID
	}
	if facultyID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "faculty_id is required")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "course not found")
	}
	semester, err := s.semesters.FindByID(ctx, req.SemesterID)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "semester not found")
	}
	if semester.Locked {
		return nil, appErrors.Clone(appErrors.ErrSemesterLocked, "semester is locked")
	}
	exists, err := s.repo.ExistsActive(ctx, req.CourseID, req.SemesterID)
	if err != nil {
		return nil, internalError(err, "failed to check existing offering")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateRequest, "course already offered in this semester")
	}

	offering := &models.CourseOffering{
		CourseID:           req.CourseID,
		SemesterID:         req.SemesterID,
		FacultyID:          facultyID,
		DepartmentID:       req.DepartmentID,
		AllowedDepartments: req.AllowedDepartments,
		Status:             models.OfferingStatusPending,
	}
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, offering); err != nil {
			return err
		}
		return s.logs.Insert(txCtx, newTransitionLog(workflow.KindOffering, offering.ID, nil, string(offering.Status), actor, nil, offering.ProposedAt))
	})
	if err != nil {
		mapped := writeError(err, "failed to create offering")
		if appErrors.CodeOf(mapped) == appErrors.ErrInternal.Code {
			s.logger.Error("offering create failed", zap.String("course_id", req.CourseID), zap.Error(err))
		}
		return nil, mapped
	}
	return offering, nil
}

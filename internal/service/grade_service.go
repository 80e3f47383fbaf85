package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/internal/workflow"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeRecord, error)
	Create(ctx context.Context, record *models.GradeRecord) error
	CountByPair(ctx context.Context, studentID, offeringID string) (int, error)
	MaxApprovedAttempt(ctx context.Context, studentID, offeringID string) (int, error)
	ListScale(ctx context.Context) ([]models.GradeScaleEntry, error)
}

type gradeEnrollmentReader interface {
	FindLatestByPair(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error)
	FindByIDForUpdate(ctx context.Context, id string) (*models.Enrollment, error)
}

// GradeService records grade submissions and serves grade listings.
type GradeService struct {
	repo        gradeRepository
	enrollments gradeEnrollmentReader
	offerings   offeringReader
	semesters   semesterLookup
	students    studentLookup
	logs        transitionLogStore
	tx          TxRunner
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService builds GradeService.
func NewGradeService(repo gradeRepository, enrollments gradeEnrollmentReader, offerings offeringReader, semesters semesterLookup, students studentLookup, logs transitionLogStore, tx TxRunner, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		repo:        repo,
		enrollments: enrollments,
		offerings:   offerings,
		semesters:   semesters,
		students:    students,
		logs:        logs,
		tx:          tx,
		validator:   validate,
		logger:      logger,
	}
}

// List returns grade records. Students only see their own.
func (s *GradeService) List(ctx context.Context, actor models.Actor, filter models.GradeFilter) ([]models.GradeRecord, error) {
	if actor.Role == models.RoleStudent {
		student, err := ownStudent(ctx, s.students, actor)
		if err != nil {
			return nil, err
		}
		filter.StudentID = student.ID
	}
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list grades")
	}
	return records, nil
}

// Submit records a grade in submitted status for an enrolled student.
func (s *GradeService) Submit(ctx context.Context, actor models.Actor, req dto.SubmitGradeRequest) (*models.GradeRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	graph, _ := workflow.For(workflow.KindGrade)
	if err := graph.CheckCreate(string(models.GradeStatusSubmitted), actor.Role); err != nil {
		return nil, err
	}

	offering, err := s.offerings.FindByID(ctx, req.OfferingID)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "offering not found")
	}
	if actor.Role == models.RoleFaculty && offering.FacultyID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrTransitionUnauthorized, "faculty does not teach this offering")
	}
	semester, err := s.semesters.FindByOffering(ctx, offering.ID)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "semester not found")
	}
	if semester.Locked {
		return nil, appErrors.Clone(appErrors.ErrSemesterLocked, fmt.Sprintf("semester %s is locked", semester.Name))
	}

	entries, err := s.repo.ListScale(ctx)
	if err != nil {
		return nil, internalError(err, "failed to load grade scale")
	}
	if _, ok := models.NewGradeScale(entries)[req.Grade]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade %q is not on the grade scale", req.Grade))
	}

	enrollment, err := s.enrollments.FindLatestByPair(ctx, req.StudentID, offering.ID)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "enrollment not found")
	}
	if err := s.checkGradable(ctx, enrollment); err != nil {
		return nil, err
	}

	attempt := req.Attempt
	if attempt == 0 {
		latest, err := s.repo.MaxApprovedAttempt(ctx, req.StudentID, offering.ID)
		if err != nil {
			return nil, internalError(err, "failed to resolve attempt")
		}
		attempt = latest + 1
	}

	record := &models.GradeRecord{
		StudentID:   req.StudentID,
		OfferingID:  offering.ID,
		Attempt:     attempt,
		Grade:       req.Grade,
		Status:      models.GradeStatusSubmitted,
		SubmittedBy: actor.UserID,
	}
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		current, err := s.enrollments.FindByIDForUpdate(txCtx, enrollment.ID)
		if err != nil {
			return lookupError(err, appErrors.ErrNotFound, "enrollment not found")
		}
		if err := s.checkGradable(txCtx, current); err != nil {
			return err
		}
		if err := requireOpenSemester(txCtx, s.semesters, offering.ID); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, record); err != nil {
			return err
		}
		return s.logs.Insert(txCtx, newTransitionLog(workflow.KindGrade, record.ID, nil, string(record.Status), actor, nil, record.SubmittedAt))
	})
	if err != nil {
		mapped := writeError(err, "failed to submit grade")
		if appErrors.CodeOf(mapped) == appErrors.ErrInternal.Code {
			s.logger.Error("grade submit failed", zap.String("student_id", req.StudentID), zap.Error(err))
		}
		return nil, mapped
	}
	return record, nil
}

// checkGradable accepts enrolled students and withdrawn students that were already graded.
func (s *GradeService) checkGradable(ctx context.Context, enrollment *models.Enrollment) error {
	switch enrollment.Status {
	case models.EnrollmentStatusEnrolled:
		return nil
	case models.EnrollmentStatusWithdrawn:
		count, err := s.repo.CountByPair(ctx, enrollment.StudentID, enrollment.OfferingID)
		if err != nil {
			return internalError(err, "failed to check grades")
		}
		if count > 0 {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition, "student is not enrolled in this offering")
}

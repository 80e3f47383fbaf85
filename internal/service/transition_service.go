package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/internal/repository"
	"github.com/noah-isme/academic-workflow-api/internal/workflow"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

type transitionEnrollmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByIDForUpdate(ctx context.Context, id string) (*models.Enrollment, error)
	FindLatestByPair(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error)
	TransitionStatus(ctx context.Context, params repository.EnrollmentTransition) error
}

type transitionOfferingStore interface {
	FindByID(ctx context.Context, id string) (*models.CourseOffering, error)
	TransitionStatus(ctx context.Context, params repository.OfferingTransition) error
}

type transitionGradeStore interface {
	FindByID(ctx context.Context, id string) (*models.GradeRecord, error)
	Approve(ctx context.Context, id, approvedBy string, at time.Time) error
	CountByPair(ctx context.Context, studentID, offeringID string) (int, error)
}

// StandingUpdater recomputes standings inside a transition and drops cached copies after commit.
type StandingUpdater interface {
	Recompute(ctx context.Context, studentID string) (*models.AcademicStanding, error)
	Invalidate(ctx context.Context, studentID string)
}

// TransitionConfig tunes rule variations.
type TransitionConfig struct {
	RequireRejectionReason bool
}

// TransitionService is the single entry point for status changes of
// enrollments, offerings and grades.
type TransitionService struct {
	enrollments transitionEnrollmentStore
	offerings   transitionOfferingStore
	grades      transitionGradeStore
	semesters   semesterLookup
	advisors    advisorLookup
	students    studentLookup
	logs        transitionLogStore
	standings   StandingUpdater
	tx          TxRunner
	metrics     *MetricsService
	logger      *zap.Logger
	config      TransitionConfig
	now         func() time.Time
}

// TransitionServiceOption configures the service.
type TransitionServiceOption func(*TransitionService)

// WithTransitionMetrics attaches prometheus counters.
func WithTransitionMetrics(metrics *MetricsService) TransitionServiceOption {
	return func(s *TransitionService) {
		s.metrics = metrics
	}
}

// WithTransitionClock overrides the clock used for action timestamps.
func WithTransitionClock(now func() time.Time) TransitionServiceOption {
	return func(s *TransitionService) {
		if now != nil {
			s.now = now
		}
	}
}

// TransitionDeps groups the collaborators of TransitionService.
type TransitionDeps struct {
	Enrollments transitionEnrollmentStore
	Offerings   transitionOfferingStore
	Grades      transitionGradeStore
	Semesters   semesterLookup
	Advisors    advisorLookup
	Students    studentLookup
	Logs        transitionLogStore
	Standings   StandingUpdater
	Tx          TxRunner
}

// NewTransitionService constructs the transition engine.
func NewTransitionService(deps TransitionDeps, config TransitionConfig, logger *zap.Logger, opts ...TransitionServiceOption) *TransitionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &TransitionService{
		enrollments: deps.Enrollments,
		offerings:   deps.Offerings,
		grades:      deps.Grades,
		semesters:   deps.Semesters,
		advisors:    deps.Advisors,
		students:    deps.Students,
		logs:        deps.Logs,
		standings:   deps.Standings,
		tx:          deps.Tx,
		logger:      logger,
		config:      config,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Transition validates and commits one status change. Preconditions are
// checked in order: record exists, edge exists, actor may traverse it,
// semester unlocked.
func (s *TransitionService) Transition(ctx context.Context, req dto.TransitionRequest) (*dto.TransitionResult, error) {
	result, err := s.transition(ctx, req)
	s.record(req, result, err)
	return result, err
}

func (s *TransitionService) transition(ctx context.Context, req dto.TransitionRequest) (*dto.TransitionResult, error) {
	if err := requireActor(req.Actor); err != nil {
		return nil, err
	}
	graph, err := workflow.For(req.Kind)
	if err != nil {
		return nil, err
	}
	if req.Key.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entity key is required")
	}
	if !graph.HasStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown %s status %q", req.Kind, req.Status))
	}
	if s.isRejection(req.Status) && s.config.RequireRejectionReason && strings.TrimSpace(req.Reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required when rejecting")
	}

	switch req.Kind {
	case workflow.KindEnrollment:
		return s.transitionEnrollment(ctx, graph, req)
	case workflow.KindOffering:
		return s.transitionOffering(ctx, graph, req)
	default:
		return s.transitionGrade(ctx, graph, req)
	}
}

func (s *TransitionService) isRejection(status string) bool {
	return status == string(models.EnrollmentStatusRejected) || status == string(models.OfferingStatusRejected)
}

func (s *TransitionService) loadEnrollment(ctx context.Context, key dto.EntityKey) (*models.Enrollment, error) {
	var (
		enrollment *models.Enrollment
		err        error
	)
	if key.ID != "" {
		enrollment, err = s.enrollments.FindByID(ctx, key.ID)
	} else {
		enrollment, err = s.enrollments.FindLatestByPair(ctx, key.StudentID, key.OfferingID)
	}
	if err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "enrollment not found")
	}
	return enrollment, nil
}

func (s *TransitionService) transitionEnrollment(ctx context.Context, graph *workflow.Graph, req dto.TransitionRequest) (*dto.TransitionResult, error) {
	enrollment, err := s.loadEnrollment(ctx, req.Key)
	if err != nil {
		return nil, err
	}
	from := string(enrollment.Status)
	if req.AcceptCurrent && from == req.Status {
		return unchanged(req.Kind, enrollment.ID, from, enrollment), nil
	}
	if err := graph.Check(from, req.Status, req.Actor.Role); err != nil {
		return nil, err
	}
	if err := s.authorizeEnrollment(ctx, req.Actor, enrollment); err != nil {
		return nil, err
	}
	to := models.EnrollmentStatus(req.Status)
	at := s.now()
	reason := optionalString(req.Reason)
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.lockEnrollment(txCtx, enrollment, to); err != nil {
			return err
		}
		if err := s.enrollments.TransitionStatus(txCtx, repository.EnrollmentTransition{
			ID:     enrollment.ID,
			From:   enrollment.Status,
			To:     to,
			At:     at,
			Reason: reason,
		}); err != nil {
			return err
		}
		if err := s.logs.Insert(txCtx, newTransitionLog(req.Kind, enrollment.ID, &from, req.Status, req.Actor, reason, at)); err != nil {
			return err
		}
		if to == models.EnrollmentStatusEnrolled {
			if _, err := s.standings.Recompute(txCtx, enrollment.StudentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.afterStale(ctx, req, enrollment.ID, err, func() (string, interface{}, error) {
			fresh, loadErr := s.loadEnrollment(ctx, dto.EntityKey{ID: enrollment.ID})
			if loadErr != nil {
				return "", nil, loadErr
			}
			return string(fresh.Status), fresh, nil
		})
	}
	s.standings.Invalidate(ctx, enrollment.StudentID)

	applyEnrollmentTransition(enrollment, to, at, reason)
	return &dto.TransitionResult{Kind: req.Kind, ID: enrollment.ID, From: from, To: req.Status, Changed: true, Entity: enrollment}, nil
}

// lockEnrollment row-locks the enrollment, then share-locks its semester, and
// re-checks the state the transition depends on. Grade submission takes the
// same enrollment lock, so a withdrawal and a new grade cannot both commit.
func (s *TransitionService) lockEnrollment(ctx context.Context, enrollment *models.Enrollment, to models.EnrollmentStatus) error {
	current, err := s.enrollments.FindByIDForUpdate(ctx, enrollment.ID)
	if err != nil {
		return err
	}
	if current.Status != enrollment.Status {
		return sql.ErrNoRows
	}
	if err := requireOpenSemester(ctx, s.semesters, enrollment.OfferingID); err != nil {
		return err
	}
	if to != models.EnrollmentStatusWithdrawn {
		return nil
	}
	count, err := s.grades.CountByPair(ctx, enrollment.StudentID, enrollment.OfferingID)
	if err != nil {
		return internalError(err, "failed to check grades")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "grade already assigned")
	}
	return nil
}

// authorizeEnrollment checks that the actor holds the relationship the edge
// requires. Admins bypass ownership.
func (s *TransitionService) authorizeEnrollment(ctx context.Context, actor models.Actor, enrollment *models.Enrollment) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleFaculty:
		offering, err := s.offerings.FindByID(ctx, enrollment.OfferingID)
		if err != nil {
			return lookupError(err, appErrors.ErrNotFound, "offering not found")
		}
		if offering.FacultyID != actor.UserID {
			return appErrors.Clone(appErrors.ErrTransitionUnauthorized, "faculty does not teach this offering")
		}
	case models.RoleAdvisor:
		assignment, err := s.advisors.FindByStudent(ctx, enrollment.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrTransitionUnauthorized, "student has no assigned advisor")
			}
			return internalError(err, "failed to load advisor assignment")
		}
		if assignment.AdvisorID != actor.UserID {
			return appErrors.Clone(appErrors.ErrTransitionUnauthorized, "advisor is not assigned to this student")
		}
	case models.RoleStudent:
		student, err := s.students.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrTransitionUnauthorized, "actor has no student record")
			}
			return internalError(err, "failed to load student")
		}
		if student.ID != enrollment.StudentID {
			return appErrors.Clone(appErrors.ErrTransitionUnauthorized, "enrollment belongs to another student")
		}
	default:
		return appErrors.ErrTransitionUnauthorized
	}
	return nil
}

func applyEnrollmentTransition(enrollment *models.Enrollment, to models.EnrollmentStatus, at time.Time, reason *string) {
	from := enrollment.Status
	enrollment.Status = to
	enrollment.UpdatedAt = at
	switch to {
	case models.EnrollmentStatusPendingAdvisor:
		enrollment.FacultyActionAt = &at
	case models.EnrollmentStatusEnrolled:
		enrollment.AdvisorActionAt = &at
		enrollment.EnrolledAt = &at
	case models.EnrollmentStatusRejected:
		enrollment.RejectedAt = &at
		enrollment.RejectionReason = reason
		if from == models.EnrollmentStatusPendingFaculty {
			enrollment.FacultyActionAt = &at
		} else {
			enrollment.AdvisorActionAt = &at
		}
	case models.EnrollmentStatusWithdrawn:
		enrollment.WithdrawnAt = &at
	}
}

func (s *TransitionService) transitionOffering(ctx context.Context, graph *workflow.Graph, req dto.TransitionRequest) (*dto.TransitionResult, error) {
	if req.Key.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offering id is required")
	}
	offering, err := s.offerings.FindByID(ctx, req.Key.ID)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "offering not found")
	}
	from := string(offering.Status)
	if req.AcceptCurrent && from == req.Status {
		return unchanged(req.Kind, offering.ID, from, offering), nil
	}
	if err := graph.Check(from, req.Status, req.Actor.Role); err != nil {
		return nil, err
	}

	at := s.now()
	reason := optionalString(req.Reason)
	to := models.OfferingStatus(req.Status)
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.offerings.TransitionStatus(txCtx, repository.OfferingTransition{
			ID:      offering.ID,
			From:    offering.Status,
			To:      to,
			ActorID: req.Actor.UserID,
			At:      at,
			Reason:  reason,
		}); err != nil {
			return err
		}
		return s.logs.Insert(txCtx, newTransitionLog(req.Kind, offering.ID, &from, req.Status, req.Actor, reason, at))
	})
	if err != nil {
		return s.afterStale(ctx, req, offering.ID, err, func() (string, interface{}, error) {
			fresh, loadErr := s.offerings.FindByID(ctx, offering.ID)
			if loadErr != nil {
				return "", nil, loadErr
			}
			return string(fresh.Status), fresh, nil
		})
	}

	offering.Status = to
	offering.UpdatedAt = at
	if to == models.OfferingStatusCompleted {
		offering.CompletedAt = &at
	} else {
		offering.ReviewedAt = &at
		offering.ReviewedBy = &req.Actor.UserID
		offering.Reason = reason
	}
	return &dto.TransitionResult{Kind: req.Kind, ID: offering.ID, From: from, To: req.Status, Changed: true, Entity: offering}, nil
}

func (s *TransitionService) transitionGrade(ctx context.Context, graph *workflow.Graph, req dto.TransitionRequest) (*dto.TransitionResult, error) {
	if req.Key.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade id is required")
	}
	record, err := s.grades.FindByID(ctx, req.Key.ID)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "grade not found")
	}
	from := string(record.Status)
	if req.AcceptCurrent && from == req.Status {
		return unchanged(req.Kind, record.ID, from, record), nil
	}
	if err := graph.Check(from, req.Status, req.Actor.Role); err != nil {
		return nil, err
	}

	at := s.now()
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := requireOpenSemester(txCtx, s.semesters, record.OfferingID); err != nil {
			return err
		}
		if err := s.grades.Approve(txCtx, record.ID, req.Actor.UserID, at); err != nil {
			return err
		}
		if err := s.logs.Insert(txCtx, newTransitionLog(req.Kind, record.ID, &from, req.Status, req.Actor, optionalString(req.Reason), at)); err != nil {
			return err
		}
		_, err := s.standings.Recompute(txCtx, record.StudentID)
		return err
	})
	if err != nil {
		return s.afterStale(ctx, req, record.ID, err, func() (string, interface{}, error) {
			fresh, loadErr := s.grades.FindByID(ctx, record.ID)
			if loadErr != nil {
				return "", nil, loadErr
			}
			return string(fresh.Status), fresh, nil
		})
	}
	s.standings.Invalidate(ctx, record.StudentID)

	record.Status = models.GradeStatusApproved
	record.ApprovedBy = &req.Actor.UserID
	record.ApprovedAt = &at
	return &dto.TransitionResult{Kind: req.Kind, ID: record.ID, From: from, To: req.Status, Changed: true, Entity: record}, nil
}

// afterStale maps a failed commit. A lost conditional update becomes
// INVALID_TRANSITION unless the caller accepts the record already sitting in
// the requested status.
func (s *TransitionService) afterStale(ctx context.Context, req dto.TransitionRequest, id string, err error, reload func() (string, interface{}, error)) (*dto.TransitionResult, error) {
	if !errors.Is(err, sql.ErrNoRows) {
		mapped := writeError(err, "failed to commit transition")
		if appErrors.CodeOf(mapped) == appErrors.ErrInternal.Code {
			s.logger.Error("transition commit failed",
				zap.String("kind", string(req.Kind)),
				zap.String("id", id),
				zap.Error(err))
		}
		return nil, mapped
	}
	if req.AcceptCurrent {
		if current, entity, loadErr := reload(); loadErr == nil && current == req.Status {
			return unchanged(req.Kind, id, current, entity), nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "record changed concurrently")
}

func unchanged(kind workflow.Kind, id, status string, entity interface{}) *dto.TransitionResult {
	return &dto.TransitionResult{Kind: kind, ID: id, From: status, To: status, Changed: false, Entity: entity}
}

func (s *TransitionService) record(req dto.TransitionRequest, result *dto.TransitionResult, err error) {
	outcome := "committed"
	switch {
	case err != nil:
		outcome = strings.ToLower(appErrors.CodeOf(err))
	case !result.Changed:
		outcome = "unchanged"
	}
	s.metrics.RecordTransition(string(req.Kind), req.Status, outcome)
	if err == nil && result.Changed {
		s.logger.Info("workflow transition committed",
			zap.String("kind", string(req.Kind)),
			zap.String("id", result.ID),
			zap.String("from", result.From),
			zap.String("to", result.To),
			zap.String("actor_id", req.Actor.UserID),
			zap.String("actor_role", string(req.Actor.Role)))
	}
}

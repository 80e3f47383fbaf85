package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/internal/workflow"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
	"github.com/noah-isme/academic-workflow-api/pkg/jobs"
)

// FinalizeJobType tags standing finalisation jobs.
const FinalizeJobType = "standing.finalize"

const semesterLogKind workflow.Kind = "semester"

type semesterRepository interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, error)
	Lock(ctx context.Context, id, lockedBy string, at time.Time) error
}

type semesterStudentLister interface {
	ListStudentIDsBySemester(ctx context.Context, semesterID string) ([]string, error)
}

// JobEnqueuer accepts background jobs.
type JobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SemesterService lists semesters and applies the irreversible semester lock.
type SemesterService struct {
	repo      semesterRepository
	students  semesterStudentLister
	logs      transitionLogStore
	tx        TxRunner
	finalizer JobEnqueuer
	logger    *zap.Logger
	now       func() time.Time
}

// NewSemesterService constructs SemesterService. finalizer may be nil.
func NewSemesterService(repo semesterRepository, students semesterStudentLister, logs transitionLogStore, tx TxRunner, finalizer JobEnqueuer, logger *zap.Logger) *SemesterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{
		repo:      repo,
		students:  students,
		logs:      logs,
		tx:        tx,
		finalizer: finalizer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns semesters in chronological order.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, error) {
	semesters, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list semesters")
	}
	return semesters, nil
}

// Lock freezes the semester's grades and queues finalisation of every
// affected student's standing.
func (s *SemesterService) Lock(ctx context.Context, actor models.Actor, id string) (*models.Semester, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrTransitionUnauthorized, "only admins may lock a semester")
	}
	semester, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrNotFound, "semester not found")
	}
	if semester.Locked {
		return nil, appErrors.Clone(appErrors.ErrSemesterLocked, "semester already locked")
	}

	at := s.now()
	from := "unlocked"
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Lock(txCtx, id, actor.UserID, at); err != nil {
			return err
		}
		return s.logs.Insert(txCtx, newTransitionLog(semesterLogKind, id, &from, "locked", actor, nil, at))
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSemesterLocked, "semester already locked")
		}
		s.logger.Error("semester lock failed", zap.String("semester_id", id), zap.Error(err))
		return nil, internalError(err, "failed to lock semester")
	}

	semester.Locked = true
	semester.LockedAt = &at
	semester.LockedBy = &actor.UserID
	s.logger.Info("semester locked", zap.String("semester_id", id), zap.String("actor_id", actor.UserID))
	s.enqueueFinalization(ctx, id)
	return semester, nil
}

func (s *SemesterService) enqueueFinalization(ctx context.Context, semesterID string) {
	if s.finalizer == nil {
		return
	}
	studentIDs, err := s.students.ListStudentIDsBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Warn("failed to list students for finalisation", zap.String("semester_id", semesterID), zap.Error(err))
		return
	}
	for _, studentID := range studentIDs {
		job := jobs.Job{
			ID:      fmt.Sprintf("finalize:%s:%s", semesterID, studentID),
			Type:    FinalizeJobType,
			Payload: studentID,
		}
		if err := s.finalizer.Enqueue(job); err != nil && !errors.Is(err, jobs.ErrDuplicateJob) {
			s.logger.Warn("failed to enqueue standing finalisation", zap.String("student_id", studentID), zap.Error(err))
		}
	}
}

type standingFinalizer interface {
	Finalize(ctx context.Context, studentID string) error
}

// FinalizeHandler adapts standing finalisation to the jobs queue.
func FinalizeHandler(standings standingFinalizer, metrics *MetricsService) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		studentID, ok := job.Payload.(string)
		if !ok || studentID == "" {
			metrics.RecordFinalizeJob(false)
			return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
		}
		err := standings.Finalize(ctx, studentID)
		metrics.RecordFinalizeJob(err == nil)
		return err
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

type transitioner interface {
	Transition(ctx context.Context, req dto.TransitionRequest) (*dto.TransitionResult, error)
}

type rollEnroller interface {
	EnrollByRoll(ctx context.Context, actor models.Actor, offeringID string, kind models.EnrollmentType, roll string) (*models.Enrollment, error)
}

type advisorAssigner interface {
	Assign(ctx context.Context, actor models.Actor, req dto.AssignAdvisorRequest) (*models.AdvisorAssignment, error)
}

type studentImporter interface {
	ImportStudent(ctx context.Context, actor models.Actor, item dto.ImportStudentItem) (*models.Student, error)
}

// BulkConfig bounds bulk execution.
type BulkConfig struct {
	Workers           int
	MaxItems          int
	MaxReportedErrors int
}

// BulkDeps groups the per-item executors used by BulkService.
type BulkDeps struct {
	Transitions transitioner
	Enrollments rollEnroller
	Advisors    advisorAssigner
	Importer    studentImporter
}

// BulkService applies one operation over many items with per-item outcomes.
type BulkService struct {
	deps    BulkDeps
	cfg     BulkConfig
	locks   *keyedMutex
	metrics *MetricsService
	logger  *zap.Logger
}

// NewBulkService constructs BulkService.
func NewBulkService(deps BulkDeps, cfg BulkConfig, metrics *MetricsService, logger *zap.Logger) *BulkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 1000
	}
	if cfg.MaxReportedErrors <= 0 {
		cfg.MaxReportedErrors = 100
	}
	return &BulkService{
		deps:    deps,
		cfg:     cfg,
		locks:   newKeyedMutex(),
		metrics: metrics,
		logger:  logger,
	}
}

// Apply runs the same transition for every key. Keys already in the target
// status count as successes.
func (s *BulkService) Apply(ctx context.Context, req dto.BulkTransitionRequest) (*dto.BulkResult, error) {
	if err := s.precheck(req.Actor, len(req.Keys)); err != nil {
		return nil, err
	}
	keys := make([]string, len(req.Keys))
	for i, key := range req.Keys {
		keys[i] = key.String()
	}
	operation := "transition_" + string(req.Kind)
	return s.run(ctx, operation, keys, func(ctx context.Context, row int) error {
		_, err := s.deps.Transitions.Transition(ctx, dto.TransitionRequest{
			Kind:          req.Kind,
			Key:           req.Keys[row],
			Actor:         req.Actor,
			Status:        req.Status,
			Reason:        req.Reason,
			AcceptCurrent: true,
		})
		return err
	}), nil
}

// EnrollByRollNumbers enrolls each student directly into the offering.
func (s *BulkService) EnrollByRollNumbers(ctx context.Context, actor models.Actor, offeringID string, kind models.EnrollmentType, rolls []string) (*dto.BulkResult, error) {
	if err := s.precheck(actor, len(rolls)); err != nil {
		return nil, err
	}
	return s.run(ctx, "enroll_by_roll", rolls, func(ctx context.Context, row int) error {
		_, err := s.deps.Enrollments.EnrollByRoll(ctx, actor, offeringID, kind, rolls[row])
		return err
	}), nil
}

// AssignAdvisors upserts advisor assignments. Re-running a batch reports every row as a success.
func (s *BulkService) AssignAdvisors(ctx context.Context, actor models.Actor, items []dto.AssignAdvisorRequest) (*dto.BulkResult, error) {
	if err := s.precheck(actor, len(items)); err != nil {
		return nil, err
	}
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = item.Key()
	}
	return s.run(ctx, "assign_advisor", keys, func(ctx context.Context, row int) error {
		_, err := s.deps.Advisors.Assign(ctx, actor, items[row])
		return err
	}), nil
}

// ImportStudents upserts user accounts and student records.
func (s *BulkService) ImportStudents(ctx context.Context, actor models.Actor, items []dto.ImportStudentItem) (*dto.BulkResult, error) {
	if err := s.precheck(actor, len(items)); err != nil {
		return nil, err
	}
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = item.RollNumber
	}
	return s.run(ctx, "import_students", keys, func(ctx context.Context, row int) error {
		_, err := s.deps.Importer.ImportStudent(ctx, actor, items[row])
		return err
	}), nil
}

func (s *BulkService) precheck(actor models.Actor, count int) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if count == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one item is required")
	}
	if count > s.cfg.MaxItems {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("bulk request exceeds %d items", s.cfg.MaxItems))
	}
	return nil
}

// run executes fn for every row with bounded parallelism. Rows sharing a key
// run one at a time. Outcomes are reported in input order.
func (s *BulkService) run(ctx context.Context, operation string, keys []string, fn func(ctx context.Context, row int) error) *dto.BulkResult {
	started := time.Now()
	outcomes := make([]error, len(keys))

	var group errgroup.Group
	group.SetLimit(s.cfg.Workers)
	for i := range keys {
		row := i
		if err := ctx.Err(); err != nil {
			outcomes[row] = err
			continue
		}
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[row] = err
				return nil
			}
			unlock := s.locks.Lock(keys[row])
			defer unlock()
			outcomes[row] = fn(ctx, row)
			return nil
		})
	}
	_ = group.Wait()

	result := &dto.BulkResult{Failed: []dto.BulkFailure{}}
	for row, err := range outcomes {
		if err == nil {
			result.SuccessCount++
			continue
		}
		result.FailedCount++
		failure := s.failure(row, keys[row], err)
		if len(result.Failed) < s.cfg.MaxReportedErrors {
			result.Failed = append(result.Failed, failure)
		}
		if failure.Code == appErrors.ErrInternal.Code {
			s.logger.Error("bulk item failed", zap.String("operation", operation), zap.Int("row", row), zap.String("key", keys[row]), zap.Error(err))
		}
	}

	duration := time.Since(started)
	s.metrics.RecordBulk(operation, result.SuccessCount, result.FailedCount, duration)
	s.logger.Info("bulk operation finished",
		zap.String("operation", operation),
		zap.Int("items", len(keys)),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailedCount),
		zap.Duration("duration", duration),
	)
	return result
}

func (s *BulkService) failure(row int, key string, err error) dto.BulkFailure {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dto.BulkFailure{Row: row, Key: key, Code: appErrors.ErrInternal.Code, Message: err.Error()}
	}
	appErr := appErrors.FromError(err)
	return dto.BulkFailure{Row: row, Key: key, Code: appErr.Code, Message: appErr.Message}
}

// keyedMutex serialises work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

// Lock blocks until key is free and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &refLock{}
		k.locks[key] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()
		k.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

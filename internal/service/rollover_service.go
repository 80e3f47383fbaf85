package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/internal/workflow"
)

// RolloverActorID identifies the scheduler in transition logs.
const RolloverActorID = "system:rollover"

const rolloverBatchSize = 200

type completableOfferingLister interface {
	ListApprovedInLockedSemesters(ctx context.Context) ([]string, error)
}

type bulkApplier interface {
	Apply(ctx context.Context, req dto.BulkTransitionRequest) (*dto.BulkResult, error)
}

// RolloverService completes approved offerings whose semester has been locked.
type RolloverService struct {
	offerings completableOfferingLister
	bulk      bulkApplier
	logger    *zap.Logger
	schedule  string

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewRolloverService constructs the scheduler. schedule uses the six field cron syntax.
func NewRolloverService(offerings completableOfferingLister, bulk bulkApplier, schedule string, logger *zap.Logger) *RolloverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RolloverService{
		offerings: offerings,
		bulk:      bulk,
		logger:    logger,
		schedule:  schedule,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Start registers the schedule and starts the cron runner.
func (s *RolloverService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("rollover scheduler already running")
	}
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("rollover run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid rollover schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("rollover scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the runner and waits for an in-flight run.
func (s *RolloverService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

// RunOnce completes every eligible offering in batches. Rows in the merged
// result refer to positions in the eligible list.
func (s *RolloverService) RunOnce(ctx context.Context) (*dto.BulkResult, error) {
	ids, err := s.offerings.ListApprovedInLockedSemesters(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list completable offerings")
	}
	total := &dto.BulkResult{Failed: []dto.BulkFailure{}}
	actor := models.Actor{UserID: RolloverActorID, Role: models.RoleAdmin}

	for start := 0; start < len(ids); start += rolloverBatchSize {
		end := start + rolloverBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		keys := make([]dto.EntityKey, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, dto.EntityKey{ID: id})
		}
		result, err := s.bulk.Apply(ctx, dto.BulkTransitionRequest{
			Kind:   workflow.KindOffering,
			Keys:   keys,
			Actor:  actor,
			Status: string(models.OfferingStatusCompleted),
		})
		if err != nil {
			return total, err
		}
		total.SuccessCount += result.SuccessCount
		total.FailedCount += result.FailedCount
		for _, failure := range result.Failed {
			failure.Row += start
			total.Failed = append(total.Failed, failure)
		}
	}

	if len(ids) > 0 {
		s.logger.Info("offering rollover finished",
			zap.Int("eligible", len(ids)),
			zap.Int("completed", total.SuccessCount),
			zap.Int("failed", total.FailedCount),
		)
	}
	return total, nil
}

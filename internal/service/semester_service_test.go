package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
	"github.com/noah-isme/academic-workflow-api/pkg/jobs"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, existing := range q.jobs {
		if existing.ID == job.ID {
			return jobs.ErrDuplicateJob
		}
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestSemesterLockQueuesFinalization(t *testing.T) {
	f := newWorkflowFixture()
	f.seedEnrollment("e1", "s1", models.EnrollmentStatusEnrolled)
	f.seedEnrollment("e2", "s2", models.EnrollmentStatusEnrolled)
	queue := &recordingQueue{}
	svc := NewSemesterService(f.semesters, f.enrollments, f.logs, f.tx, queue, nil)

	semester, err := svc.Lock(context.Background(), adminActor, "sem-open")
	require.NoError(t, err)
	assert.True(t, semester.Locked)
	require.NotNil(t, semester.LockedBy)
	assert.Equal(t, "admin-1", *semester.LockedBy)

	require.Len(t, queue.jobs, 2)
	assert.Equal(t, "finalize:sem-open:s1", queue.jobs[0].ID)
	assert.Equal(t, FinalizeJobType, queue.jobs[0].Type)
	assert.Equal(t, "s2", queue.jobs[1].Payload)

	require.Equal(t, 1, f.logs.count())
	assert.Equal(t, "semester", f.logs.entries[0].EntityKind)
	assert.Equal(t, "locked", f.logs.entries[0].ToStatus)
}

func TestSemesterLockIsIrreversible(t *testing.T) {
	f := newWorkflowFixture()
	svc := NewSemesterService(f.semesters, f.enrollments, f.logs, f.tx, nil, nil)

	_, err := svc.Lock(context.Background(), adminActor, "sem-locked")
	assert.Equal(t, appErrors.ErrSemesterLocked.Code, appErrors.CodeOf(err))

	_, err = svc.Lock(context.Background(), facultyActor, "sem-open")
	assert.Equal(t, appErrors.ErrTransitionUnauthorized.Code, appErrors.CodeOf(err))

	_, err = svc.Lock(context.Background(), adminActor, "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.CodeOf(err))
	assert.Zero(t, f.logs.count())
}

func TestSemesterLockRace(t *testing.T) {
	f := newWorkflowFixture()
	svc := NewSemesterService(f.semesters, f.enrollments, f.logs, f.tx, nil, nil)
	// the row was locked between the read and the conditional update
	f.tx.before = func() {
		_ = f.semesters.Lock(context.Background(), "sem-open", "admin-2", f.semesters.items["sem-open"].StartDate)
	}

	_, err := svc.Lock(context.Background(), adminActor, "sem-open")
	assert.Equal(t, appErrors.ErrSemesterLocked.Code, appErrors.CodeOf(err))
}

func TestSemesterLockFault(t *testing.T) {
	f := newWorkflowFixture()
	f.semesters.lockErr = errors.New("connection reset")
	svc := NewSemesterService(f.semesters, f.enrollments, f.logs, f.tx, nil, nil)

	_, err := svc.Lock(context.Background(), adminActor, "sem-open")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.CodeOf(err))
}

func TestSemesterListChronological(t *testing.T) {
	f := newWorkflowFixture()
	svc := NewSemesterService(f.semesters, f.enrollments, f.logs, f.tx, nil, nil)
	semesters, err := svc.List(context.Background(), models.SemesterFilter{})
	require.NoError(t, err)
	require.Len(t, semesters, 2)
	assert.Equal(t, "sem-locked", semesters[0].ID)
}

type finalizerFunc func(ctx context.Context, studentID string) error

func (f finalizerFunc) Finalize(ctx context.Context, studentID string) error {
	return f(ctx, studentID)
}

func TestFinalizeHandler(t *testing.T) {
	var seen []string
	handler := FinalizeHandler(finalizerFunc(func(ctx context.Context, studentID string) error {
		seen = append(seen, studentID)
		return nil
	}), NewMetricsService())

	require.NoError(t, handler(context.Background(), jobs.Job{ID: "j1", Payload: "s1"}))
	assert.Error(t, handler(context.Background(), jobs.Job{ID: "j2", Payload: 42}))
	assert.Equal(t, []string{"s1"}, seen)
}

package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

func TestEnrollmentRequestRules(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate open request", func(t *testing.T) {
		f := newWorkflowFixture()
		f.seedEnrollment("e1", "s1", models.EnrollmentStatusPendingAdvisor)
		_, err := f.enrollmentService().Request(ctx, studentActor, dto.RequestEnrollmentRequest{OfferingID: "off-1"})
		assert.Equal(t, appErrors.ErrDuplicateRequest.Code, appErrors.CodeOf(err))
	})

	t.Run("re-request after rejection keeps history", func(t *testing.T) {
		f := newWorkflowFixture()
		f.seedEnrollment("e1", "s1", models.EnrollmentStatusRejected)
		enrollment, err := f.enrollmentService().Request(ctx, studentActor, dto.RequestEnrollmentRequest{OfferingID: "off-1"})
		require.NoError(t, err)
		assert.NotEqual(t, "e1", enrollment.ID)
		assert.Equal(t, models.EnrollmentStatusRejected, f.enrollments.status("e1"))
	})

	t.Run("department not allowed", func(t *testing.T) {
		f := newWorkflowFixture()
		f.offerings.put(models.CourseOffering{ID: "off-cs", SemesterID: "sem-open", FacultyID: "faculty-1", DepartmentID: "CS", AllowedDepartments: pq.StringArray{"MA"}, Status: models.OfferingStatusApproved})
		_, err := f.enrollmentService().Request(ctx, student2Actor, dto.RequestEnrollmentRequest{OfferingID: "off-cs"})
		assert.Equal(t, appErrors.ErrTransitionUnauthorized.Code, appErrors.CodeOf(err))
	})

	t.Run("offering not approved", func(t *testing.T) {
		f := newWorkflowFixture()
		f.offerings.put(models.CourseOffering{ID: "off-p", Status: models.OfferingStatusPending})
		_, err := f.enrollmentService().Request(ctx, studentActor, dto.RequestEnrollmentRequest{OfferingID: "off-p"})
		assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.CodeOf(err))
	})

	t.Run("student requesting for another", func(t *testing.T) {
		f := newWorkflowFixture()
		_, err := f.enrollmentService().Request(ctx, studentActor, dto.RequestEnrollmentRequest{StudentID: "s2", OfferingID: "off-1"})
		assert.Equal(t, appErrors.ErrTransitionUnauthorized.Code, appErrors.CodeOf(err))
	})

	t.Run("faculty cannot create", func(t *testing.T) {
		f := newWorkflowFixture()
		_, err := f.enrollmentService().Request(ctx, facultyActor, dto.RequestEnrollmentRequest{StudentID: "s1", OfferingID: "off-1"})
		assert.Equal(t, appErrors.ErrTransitionUnauthorized.Code, appErrors.CodeOf(err))
	})

	t.Run("admin on behalf of student", func(t *testing.T) {
		f := newWorkflowFixture()
		enrollment, err := f.enrollmentService().Request(ctx, adminActor, dto.RequestEnrollmentRequest{StudentID: "s2", OfferingID: "off-1"})
		require.NoError(t, err)
		assert.Equal(t, "s2", enrollment.StudentID)
		assert.Equal(t, 1, f.logs.count())
	})
}

func TestEnrollmentListScopesStudents(t *testing.T) {
	f := newWorkflowFixture()
	f.seedEnrollment("e1", "s1", models.EnrollmentStatusEnrolled)
	f.seedEnrollment("e2", "s2", models.EnrollmentStatusEnrolled)
	svc := f.enrollmentService()

	items, page, err := svc.List(context.Background(), studentActor, models.EnrollmentFilter{StudentID: "s2"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "e1", items[0].ID)
	assert.Equal(t, 20, page.PageSize)

	_, err = svc.Get(context.Background(), studentActor, "e2")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	items, _, err = svc.List(context.Background(), adminActor, models.EnrollmentFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestEnrollmentCreateInLockedSemester(t *testing.T) {
	ctx := context.Background()

	t.Run("request", func(t *testing.T) {
		f := newWorkflowFixture()
		_, err := f.enrollmentService().Request(ctx, studentActor, dto.RequestEnrollmentRequest{OfferingID: "off-old"})
		assert.Equal(t, appErrors.ErrSemesterLocked.Code, appErrors.CodeOf(err))
		assert.Zero(t, f.logs.count())
	})

	t.Run("enroll by roll", func(t *testing.T) {
		f := newWorkflowFixture()
		_, err := f.enrollmentService().EnrollByRoll(ctx, adminActor, "off-old", models.EnrollmentTypeCredit, "R1")
		assert.Equal(t, appErrors.ErrSemesterLocked.Code, appErrors.CodeOf(err))
		assert.Empty(t, f.standings.recomputed)
	})
}

func TestEnrollByRollConcurrentWinnerCountsAsSuccess(t *testing.T) {
	f := newWorkflowFixture()
	f.tx.before = func() {
		f.seedEnrollment("e-winner", "s1", models.EnrollmentStatusEnrolled)
	}

	enrollment, err := f.enrollmentService().EnrollByRoll(context.Background(), adminActor, "off-1", models.EnrollmentTypeCredit, "R1")
	require.NoError(t, err)
	assert.Equal(t, "e-winner", enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
}

func TestEnrollByRollConcurrentPendingStaysDuplicate(t *testing.T) {
	f := newWorkflowFixture()
	f.tx.before = func() {
		f.seedEnrollment("e-pending", "s1", models.EnrollmentStatusPendingFaculty)
	}

	_, err := f.enrollmentService().EnrollByRoll(context.Background(), adminActor, "off-1", models.EnrollmentTypeCredit, "R1")
	assert.Equal(t, appErrors.ErrDuplicateRequest.Code, appErrors.CodeOf(err))
}

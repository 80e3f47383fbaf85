package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

func (f *workflowFixture) advisorService() *AdvisorService {
	return NewAdvisorService(f.advisors, f.students, f.users, nil, nil)
}

func TestAdvisorAssignByRollNumber(t *testing.T) {
	f := newWorkflowFixture()
	assignment, err := f.advisorService().Assign(context.Background(), adminActor, dto.AssignAdvisorRequest{RollNumber: "R2", AdvisorID: "advisor-2"})
	require.NoError(t, err)
	assert.Equal(t, "s2", assignment.StudentID)
	assert.Equal(t, "admin-1", assignment.AssignedBy)
	assert.Equal(t, 1, f.advisors.upserts)
}

func TestAdvisorAssignRules(t *testing.T) {
	ctx := context.Background()
	cases := map[string]struct {
		actor models.Actor
		req   dto.AssignAdvisorRequest
		code  string
	}{
		"non admin":       {actor: advisorActor, req: dto.AssignAdvisorRequest{StudentID: "s2", AdvisorID: "advisor-1"}, code: appErrors.ErrTransitionUnauthorized.Code},
		"no student key":  {actor: adminActor, req: dto.AssignAdvisorRequest{AdvisorID: "advisor-1"}, code: appErrors.ErrValidation.Code},
		"unknown student": {actor: adminActor, req: dto.AssignAdvisorRequest{RollNumber: "R99", AdvisorID: "advisor-1"}, code: appErrors.ErrStudentNotFound.Code},
		"not an advisor":  {actor: adminActor, req: dto.AssignAdvisorRequest{StudentID: "s2", AdvisorID: "faculty-1"}, code: appErrors.ErrValidation.Code},
		"unknown advisor": {actor: adminActor, req: dto.AssignAdvisorRequest{StudentID: "s2", AdvisorID: "ghost"}, code: appErrors.ErrNotFound.Code},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newWorkflowFixture()
			_, err := f.advisorService().Assign(ctx, tc.actor, tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.CodeOf(err))
			assert.Zero(t, f.advisors.upserts)
		})
	}
}

func TestAdvisorList(t *testing.T) {
	f := newWorkflowFixture()
	f.advisors.items["s2"] = &models.AdvisorAssignment{StudentID: "s2", AdvisorID: "advisor-2"}
	svc := f.advisorService()

	all, err := svc.List(context.Background(), adminActor, models.AdvisorAssignmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.List(context.Background(), otherAdvisor, models.AdvisorAssignmentFilter{AdvisorID: "advisor-1"})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "s2", own[0].StudentID)

	_, err = svc.List(context.Background(), studentActor, models.AdvisorAssignmentFilter{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/workflow"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

type transitionServiceMock struct {
	lastReq dto.TransitionRequest
	called  bool
	result  *dto.TransitionResult
	err     error
}

func (m *transitionServiceMock) Transition(ctx context.Context, req dto.TransitionRequest) (*dto.TransitionResult, error) {
	m.called = true
	m.lastReq = req
	return m.result, m.err
}

type bulkServiceMock struct {
	lastApply   dto.BulkTransitionRequest
	lastRolls   []string
	lastOffer   string
	lastItems   []dto.AssignAdvisorRequest
	lastImports []dto.ImportStudentItem
	result      *dto.BulkResult
	err         error
}

func (m *bulkServiceMock) Apply(ctx context.Context, req dto.BulkTransitionRequest) (*dto.BulkResult, error) {
	m.lastApply = req
	return m.result, m.err
}

func TestWorkflowTransition(t *testing.T) {
	svc := &transitionServiceMock{result: &dto.TransitionResult{Kind: workflow.KindEnrollment, ID: "e1", From: "pending_faculty", To: "pending_advisor", Changed: true}}
	h := NewWorkflowHandler(svc, &bulkServiceMock{})

	c, w := newTestContext(http.MethodPost, "/workflow/enrollments/e1/transitions", `{"status":"pending_advisor"}`, adminClaims,
		gin.Param{Key: "kind", Value: "enrollments"}, gin.Param{Key: "id", Value: "e1"})
	h.Transition(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, workflow.KindEnrollment, svc.lastReq.Kind)
	assert.Equal(t, "e1", svc.lastReq.Key.ID)
	assert.Equal(t, "admin-1", svc.lastReq.Actor.UserID)
	assert.Equal(t, "pending_advisor", svc.lastReq.Status)
	assert.False(t, svc.lastReq.AcceptCurrent)
}

func TestWorkflowTransitionErrors(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		svc := &transitionServiceMock{}
		c, w := newTestContext(http.MethodPost, "/", `{"status":"approved"}`, adminClaims, gin.Param{Key: "kind", Value: "courses"}, gin.Param{Key: "id", Value: "x"})
		NewWorkflowHandler(svc, nil).Transition(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, svc.called)
	})

	t.Run("no claims", func(t *testing.T) {
		svc := &transitionServiceMock{}
		c, w := newTestContext(http.MethodPost, "/", `{"status":"approved"}`, nil, gin.Param{Key: "kind", Value: "grade"}, gin.Param{Key: "id", Value: "g1"})
		NewWorkflowHandler(svc, nil).Transition(c)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, svc.called)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := &transitionServiceMock{}
		c, w := newTestContext(http.MethodPost, "/", `{"status":`, adminClaims, gin.Param{Key: "kind", Value: "grade"}, gin.Param{Key: "id", Value: "g1"})
		NewWorkflowHandler(svc, nil).Transition(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, svc.called)
	})

	t.Run("locked semester", func(t *testing.T) {
		svc := &transitionServiceMock{err: appErrors.Clone(appErrors.ErrSemesterLocked, "semester 2024 Even is locked")}
		c, w := newTestContext(http.MethodPost, "/", `{"status":"approved"}`, adminClaims, gin.Param{Key: "kind", Value: "grade"}, gin.Param{Key: "id", Value: "g1"})
		NewWorkflowHandler(svc, nil).Transition(c)
		assert.Equal(t, http.StatusLocked, w.Code)
		assert.Equal(t, "SEMESTER_LOCKED", decode(t, w).Error.Code)
	})
}

func TestWorkflowBulk(t *testing.T) {
	bulk := &bulkServiceMock{result: &dto.BulkResult{SuccessCount: 2, FailedCount: 1, Failed: []dto.BulkFailure{{Row: 2, Key: "s2/off-1", Code: "INVALID_TRANSITION"}}}}
	h := NewWorkflowHandler(&transitionServiceMock{}, bulk)

	body := `{"ids":["e1","e2"],"keys":[{"student_id":"s2","offering_id":"off-1"}],"status":"enrolled"}`
	c, w := newTestContext(http.MethodPost, "/workflow/enrollment/bulk", body, adminClaims, gin.Param{Key: "kind", Value: "enrollment"})
	h.Bulk(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, bulk.lastApply.Keys, 3)
	assert.Equal(t, "e1", bulk.lastApply.Keys[0].ID)
	assert.Equal(t, "s2/off-1", bulk.lastApply.Keys[2].String())
	assert.Equal(t, "enrolled", bulk.lastApply.Status)
	assert.Contains(t, w.Body.String(), `"failed_count":1`)
}

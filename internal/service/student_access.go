package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

// StudentAccess decides whether an actor may read a student's academic records.
// Students read their own, advisors read their advisees, admins read everyone.
type StudentAccess struct {
	students studentLookup
	advisors advisorLookup
}

// NewStudentAccess constructs StudentAccess.
func NewStudentAccess(students studentLookup, advisors advisorLookup) *StudentAccess {
	return &StudentAccess{students: students, advisors: advisors}
}

// Check returns nil when actor may read the records of studentID.
func (a *StudentAccess) Check(ctx context.Context, actor models.Actor, studentID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStudent:
		own, err := ownStudent(ctx, a.students, actor)
		if err != nil {
			return err
		}
		if own.ID != studentID {
			return appErrors.Clone(appErrors.ErrForbidden, "students may only view their own records")
		}
		return nil
	case models.RoleAdvisor:
		assignment, err := a.advisors.FindByStudent(ctx, studentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrForbidden, "student is not your advisee")
			}
			return internalError(err, "failed to load advisor assignment")
		}
		if assignment.AdvisorID != actor.UserID {
			return appErrors.Clone(appErrors.ErrForbidden, "student is not your advisee")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role may not view student records")
	}
}

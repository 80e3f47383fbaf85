package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/internal/repository"
	"github.com/noah-isme/academic-workflow-api/internal/workflow"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

// TxRunner executes fn inside one database transaction carried on the context.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type transitionLogStore interface {
	Insert(ctx context.Context, entry *models.TransitionLog) error
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type advisorLookup interface {
	FindByStudent(ctx context.Context, studentID string) (*models.AdvisorAssignment, error)
}

type semesterLookup interface {
	FindByOffering(ctx context.Context, offeringID string) (*models.Semester, error)
	FindByOfferingForShare(ctx context.Context, offeringID string) (*models.Semester, error)
}

// requireOpenSemester fails with SEMESTER_LOCKED when the offering's semester
// is locked. Call it inside the write transaction: the share lock it takes
// keeps the semester from locking until the write commits.
func requireOpenSemester(ctx context.Context, semesters semesterLookup, offeringID string) error {
	semester, err := semesters.FindByOfferingForShare(ctx, offeringID)
	if err != nil {
		return lookupError(err, appErrors.ErrNotFound, "semester not found")
	}
	if semester.Locked {
		return appErrors.Clone(appErrors.ErrSemesterLocked, fmt.Sprintf("semester %s is locked", semester.Name))
	}
	return nil
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// lookupError maps a missing row onto notFound and anything else onto an internal error.
func lookupError(err error, notFound *appErrors.Error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(notFound, message)
	}
	return internalError(err, "failed to load "+strings.TrimSuffix(message, " not found"))
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// writeError maps repository write failures onto workflow errors.
func writeError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Clone(appErrors.ErrDuplicateRequest, "an active record already exists")
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "record changed concurrently")
	}
	return internalError(err, message)
}

func newTransitionLog(kind workflow.Kind, entityID string, from *string, to string, actor models.Actor, reason *string, at time.Time) *models.TransitionLog {
	return &models.TransitionLog{
		EntityKind: string(kind),
		EntityID:   entityID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Reason:     reason,
		CreatedAt:  at,
	}
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}

func requireActor(actor models.Actor) error {
	if actor.UserID == "" || !actor.Role.Valid() {
		return appErrors.ErrUnauthorized
	}
	return nil
}

// ownStudent resolves the student record behind a STUDENT actor.
func ownStudent(ctx context.Context, students studentLookup, actor models.Actor) (*models.Student, error) {
	student, err := students.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, lookupError(err, appErrors.ErrStudentNotFound, "student not found")
	}
	return student, nil
}

func pagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

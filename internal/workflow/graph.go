// Package workflow holds the approval state graphs for enrollments, course
// offerings and grades. It performs no I/O.
package workflow

import (
	"fmt"
	"sort"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

// Kind names an entity governed by a state graph.
type Kind string

const (
	KindEnrollment Kind = "enrollment"
	KindOffering   Kind = "offering"
	KindGrade      Kind = "grade"
)

// ParseKind accepts both singular and plural path segments.
func ParseKind(raw string) (Kind, error) {
	switch raw {
	case "enrollment", "enrollments":
		return KindEnrollment, nil
	case "offering", "offerings":
		return KindOffering, nil
	case "grade", "grades":
		return KindGrade, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown entity kind %q", raw))
}

// Graph is the set of legal status edges of one entity kind and the roles
// allowed to traverse each of them.
type Graph struct {
	kind     Kind
	statuses []string
	edges    map[string]map[string][]models.UserRole
	creation map[string][]models.UserRole
}

type edge struct {
	from, to string
	roles    []models.UserRole
}

func newGraph(kind Kind, statuses []string, edges []edge, creation map[string][]models.UserRole) *Graph {
	g := &Graph{
		kind:     kind,
		statuses: statuses,
		edges:    make(map[string]map[string][]models.UserRole, len(statuses)),
		creation: creation,
	}
	for _, e := range edges {
		if g.edges[e.from] == nil {
			g.edges[e.from] = make(map[string][]models.UserRole)
		}
		g.edges[e.from][e.to] = e.roles
	}
	return g
}

var (
	enrollmentGraph = newGraph(KindEnrollment,
		[]string{
			string(models.EnrollmentStatusPendingFaculty),
			string(models.EnrollmentStatusPendingAdvisor),
			string(models.EnrollmentStatusEnrolled),
			string(models.EnrollmentStatusRejected),
			string(models.EnrollmentStatusWithdrawn),
		},
		[]edge{
			{string(models.EnrollmentStatusPendingFaculty), string(models.EnrollmentStatusPendingAdvisor), []models.UserRole{models.RoleFaculty, models.RoleAdmin}},
			{string(models.EnrollmentStatusPendingFaculty), string(models.EnrollmentStatusRejected), []models.UserRole{models.RoleFaculty, models.RoleAdmin}},
			{string(models.EnrollmentStatusPendingAdvisor), string(models.EnrollmentStatusEnrolled), []models.UserRole{models.RoleAdvisor, models.RoleAdmin}},
			{string(models.EnrollmentStatusPendingAdvisor), string(models.EnrollmentStatusRejected), []models.UserRole{models.RoleAdvisor, models.RoleAdmin}},
			{string(models.EnrollmentStatusEnrolled), string(models.EnrollmentStatusWithdrawn), []models.UserRole{models.RoleStudent}},
		},
		map[string][]models.UserRole{
			string(models.EnrollmentStatusPendingFaculty): {models.RoleStudent, models.RoleAdmin},
			string(models.EnrollmentStatusEnrolled):       {models.RoleAdmin},
		},
	)

	offeringGraph = newGraph(KindOffering,
		[]string{
			string(models.OfferingStatusPending),
			string(models.OfferingStatusApproved),
			string(models.OfferingStatusRejected),
			string(models.OfferingStatusCompleted),
		},
		[]edge{
			{string(models.OfferingStatusPending), string(models.OfferingStatusApproved), []models.UserRole{models.RoleAdmin}},
			{string(models.OfferingStatusPending), string(models.OfferingStatusRejected), []models.UserRole{models.RoleAdmin}},
			{string(models.OfferingStatusApproved), string(models.OfferingStatusCompleted), []models.UserRole{models.RoleAdmin}},
		},
		map[string][]models.UserRole{
			string(models.OfferingStatusPending): {models.RoleFaculty, models.RoleAdmin},
		},
	)

	gradeGraph = newGraph(KindGrade,
		[]string{
			string(models.GradeStatusSubmitted),
			string(models.GradeStatusApproved),
		},
		[]edge{
			{string(models.GradeStatusSubmitted), string(models.GradeStatusApproved), []models.UserRole{models.RoleAdmin}},
		},
		map[string][]models.UserRole{
			string(models.GradeStatusSubmitted): {models.RoleFaculty, models.RoleAdmin},
		},
	)
)

// For returns the graph governing kind.
func For(kind Kind) (*Graph, error) {
	switch kind {
	case KindEnrollment:
		return enrollmentGraph, nil
	case KindOffering:
		return offeringGraph, nil
	case KindGrade:
		return gradeGraph, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown entity kind %q", kind))
}

// Kind reports the entity kind of the graph.
func (g *Graph) Kind() Kind { return g.kind }

// Statuses lists every status of the graph.
func (g *Graph) Statuses() []string {
	out := make([]string, len(g.statuses))
	copy(out, g.statuses)
	return out
}

// HasStatus reports whether status belongs to the graph.
func (g *Graph) HasStatus(status string) bool {
	for _, s := range g.statuses {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransition reports whether from -> to is an edge.
func (g *Graph) CanTransition(from, to string) bool {
	_, ok := g.edges[from][to]
	return ok
}

// AllowedTransitions returns the sorted targets reachable from status.
func (g *Graph) AllowedTransitions(from string) []string {
	targets := make([]string, 0, len(g.edges[from]))
	for to := range g.edges[from] {
		targets = append(targets, to)
	}
	sort.Strings(targets)
	return targets
}

// Terminal reports whether no edge leaves status.
func (g *Graph) Terminal(status string) bool {
	return len(g.edges[status]) == 0
}

// Check validates the edge first and the role second, matching the order
// callers report errors in.
func (g *Graph) Check(from, to string, role models.UserRole) error {
	roles, ok := g.edges[from][to]
	if !ok {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("%s cannot move from %s to %s", g.kind, from, to))
	}
	if !containsRole(roles, role) {
		return appErrors.Clone(appErrors.ErrTransitionUnauthorized, fmt.Sprintf("role %s cannot move %s from %s to %s", role, g.kind, from, to))
	}
	return nil
}

// CheckCreate validates that role may create a record directly in status.
func (g *Graph) CheckCreate(status string, role models.UserRole) error {
	roles, ok := g.creation[status]
	if !ok {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("%s cannot be created as %s", g.kind, status))
	}
	if !containsRole(roles, role) {
		return appErrors.Clone(appErrors.ErrTransitionUnauthorized, fmt.Sprintf("role %s cannot create %s as %s", role, g.kind, status))
	}
	return nil
}

func containsRole(roles []models.UserRole, role models.UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

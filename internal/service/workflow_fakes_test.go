package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/internal/repository"
)

type fakeTx struct {
	before func()
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.before != nil {
		f.before()
	}
	return fn(ctx)
}

type mockEnrollmentRepo struct {
	mu         sync.Mutex
	items      map[string]*models.Enrollment
	semesterOf map[string]string
	seq        int
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{items: map[string]*models.Enrollment{}, semesterOf: map[string]string{}}
}

func (m *mockEnrollmentRepo) put(e models.Enrollment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[e.ID] = &e
}

func (m *mockEnrollmentRepo) status(id string) models.EnrollmentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Status
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *e
	return &out, nil
}

func (m *mockEnrollmentRepo) FindByIDForUpdate(ctx context.Context, id string) (*models.Enrollment, error) {
	return m.FindByID(ctx, id)
}

func (m *mockEnrollmentRepo) pair(studentID, offeringID string, openOnly bool) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *models.Enrollment
	for _, e := range m.items {
		if e.StudentID != studentID || e.OfferingID != offeringID {
			continue
		}
		if openOnly && !e.Status.Open() {
			continue
		}
		if best == nil || (e.Status.Open() && !best.Status.Open()) ||
			(e.Status.Open() == best.Status.Open() && e.RequestedAt.After(best.RequestedAt)) {
			best = e
		}
	}
	if best == nil {
		return nil, sql.ErrNoRows
	}
	out := *best
	return &out, nil
}

func (m *mockEnrollmentRepo) FindLatestByPair(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error) {
	return m.pair(studentID, offeringID, false)
}

func (m *mockEnrollmentRepo) FindOpenByPair(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error) {
	return m.pair(studentID, offeringID, true)
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Enrollment
	for _, e := range m.items {
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.StudentID == enrollment.StudentID && e.OfferingID == enrollment.OfferingID && e.Status.Open() {
			return repository.ErrDuplicate
		}
	}
	m.seq++
	enrollment.ID = fmt.Sprintf("enr-new-%d", m.seq)
	enrollment.RequestedAt = time.Now().UTC()
	enrollment.UpdatedAt = enrollment.RequestedAt
	stored := *enrollment
	m.items[enrollment.ID] = &stored
	return nil
}

func (m *mockEnrollmentRepo) TransitionStatus(ctx context.Context, params repository.EnrollmentTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[params.ID]
	if !ok || e.Status != params.From {
		return sql.ErrNoRows
	}
	e.Status = params.To
	e.UpdatedAt = params.At
	if params.To == models.EnrollmentStatusRejected {
		e.RejectionReason = params.Reason
	}
	return nil
}

func (m *mockEnrollmentRepo) ListStudentIDsBySemester(ctx context.Context, semesterID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, e := range m.items {
		if m.semesterOf[e.OfferingID] != semesterID || seen[e.StudentID] {
			continue
		}
		seen[e.StudentID] = true
		ids = append(ids, e.StudentID)
	}
	sort.Strings(ids)
	return ids, nil
}

type mockOfferingRepo struct {
	mu    sync.Mutex
	items map[string]*models.CourseOffering
	seq   int
}

func newMockOfferingRepo() *mockOfferingRepo {
	return &mockOfferingRepo{items: map[string]*models.CourseOffering{}}
}

func (m *mockOfferingRepo) put(o models.CourseOffering) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[o.ID] = &o
}

func (m *mockOfferingRepo) FindByID(ctx context.Context, id string) (*models.CourseOffering, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *o
	return &out, nil
}

func (m *mockOfferingRepo) List(ctx context.Context, filter models.OfferingFilter) ([]models.CourseOffering, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CourseOffering
	for _, o := range m.items {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *mockOfferingRepo) ExistsActive(ctx context.Context, courseID, semesterID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.items {
		if o.CourseID == courseID && o.SemesterID == semesterID && o.Status != models.OfferingStatusRejected {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockOfferingRepo) Create(ctx context.Context, offering *models.CourseOffering) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	offering.ID = fmt.Sprintf("off-new-%d", m.seq)
	offering.ProposedAt = time.Now().UTC()
	stored := *offering
	m.items[offering.ID] = &stored
	return nil
}

func (m *mockOfferingRepo) TransitionStatus(ctx context.Context, params repository.OfferingTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[params.ID]
	if !ok || o.Status != params.From {
		return sql.ErrNoRows
	}
	o.Status = params.To
	return nil
}

type mockGradeRepo struct {
	mu    sync.Mutex
	items map[string]*models.GradeRecord
	scale []models.GradeScaleEntry
	seq   int
}

func newMockGradeRepo() *mockGradeRepo {
	return &mockGradeRepo{
		items: map[string]*models.GradeRecord{},
		scale: []models.GradeScaleEntry{
			{Grade: "A", Points: 4, CountsTowardGPA: true},
			{Grade: "B", Points: 3, CountsTowardGPA: true},
			{Grade: "C", Points: 2, CountsTowardGPA: true},
			{Grade: "W", Points: 0, CountsTowardGPA: false},
		},
	}
}

func (m *mockGradeRepo) put(g models.GradeRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[g.ID] = &g
}

func (m *mockGradeRepo) FindByID(ctx context.Context, id string) (*models.GradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *g
	return &out, nil
}

func (m *mockGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GradeRecord
	for _, g := range m.items {
		if filter.StudentID != "" && g.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *g)
	}
	return out, nil
}

func (m *mockGradeRepo) Create(ctx context.Context, record *models.GradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.items {
		if g.StudentID == record.StudentID && g.OfferingID == record.OfferingID && g.Attempt == record.Attempt {
			return repository.ErrDuplicate
		}
	}
	m.seq++
	record.ID = fmt.Sprintf("grade-new-%d", m.seq)
	record.SubmittedAt = time.Now().UTC()
	stored := *record
	m.items[record.ID] = &stored
	return nil
}

func (m *mockGradeRepo) Approve(ctx context.Context, id, approvedBy string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.items[id]
	if !ok || g.Status != models.GradeStatusSubmitted {
		return sql.ErrNoRows
	}
	g.Status = models.GradeStatusApproved
	g.ApprovedBy = &approvedBy
	g.ApprovedAt = &at
	return nil
}

func (m *mockGradeRepo) CountByPair(ctx context.Context, studentID, offeringID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, g := range m.items {
		if g.StudentID == studentID && g.OfferingID == offeringID {
			count++
		}
	}
	return count, nil
}

func (m *mockGradeRepo) MaxApprovedAttempt(ctx context.Context, studentID, offeringID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, g := range m.items {
		if g.StudentID == studentID && g.OfferingID == offeringID && g.Status == models.GradeStatusApproved && g.Attempt > max {
			max = g.Attempt
		}
	}
	return max, nil
}

func (m *mockGradeRepo) ListScale(ctx context.Context) ([]models.GradeScaleEntry, error) {
	return m.scale, nil
}

type mockSemesterRepo struct {
	mu         sync.Mutex
	items      map[string]*models.Semester
	offeringOf map[string]string
	lockErr    error
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{items: map[string]*models.Semester{}, offeringOf: map[string]string{}}
}

func (m *mockSemesterRepo) put(s models.Semester) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = &s
}

func (m *mockSemesterRepo) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *s
	return &out, nil
}

func (m *mockSemesterRepo) FindByOffering(ctx context.Context, offeringID string) (*models.Semester, error) {
	m.mu.Lock()
	id, ok := m.offeringOf[offeringID]
	m.mu.Unlock()
	if !ok {
		return nil, sql.ErrNoRows
	}
	return m.FindByID(ctx, id)
}

func (m *mockSemesterRepo) FindByOfferingForShare(ctx context.Context, offeringID string) (*models.Semester, error) {
	return m.FindByOffering(ctx, offeringID)
}

func (m *mockSemesterRepo) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Semester
	for _, s := range m.items {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *mockSemesterRepo) Lock(ctx context.Context, id, lockedBy string, at time.Time) error {
	if m.lockErr != nil {
		return m.lockErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok || s.Locked {
		return sql.ErrNoRows
	}
	s.Locked = true
	s.LockedAt = &at
	s.LockedBy = &lockedBy
	return nil
}

type mockStudentRepo struct {
	mu    sync.Mutex
	items map[string]*models.Student
}

func newMockStudentRepo(students ...models.Student) *mockStudentRepo {
	m := &mockStudentRepo{items: map[string]*models.Student{}}
	for i := range students {
		s := students[i]
		m.items[s.ID] = &s
	}
	return m
}

func (m *mockStudentRepo) find(match func(*models.Student) bool) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.items {
		if match(s) {
			out := *s
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return m.find(func(s *models.Student) bool { return s.ID == id })
}

func (m *mockStudentRepo) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	return m.find(func(s *models.Student) bool { return s.UserID != nil && *s.UserID == userID })
}

func (m *mockStudentRepo) FindByRollNumber(ctx context.Context, roll string) (*models.Student, error) {
	return m.find(func(s *models.Student) bool { return s.RollNumber == roll })
}

func (m *mockStudentRepo) UpsertByRollNumber(ctx context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.items {
		if s.RollNumber == student.RollNumber {
			student.ID = s.ID
			s.FullName = student.FullName
			s.DepartmentID = student.DepartmentID
			if student.UserID != nil {
				s.UserID = student.UserID
			}
			return nil
		}
	}
	student.ID = "stu-" + student.RollNumber
	stored := *student
	m.items[student.ID] = &stored
	return nil
}

type mockAdvisorRepo struct {
	mu      sync.Mutex
	items   map[string]*models.AdvisorAssignment
	upserts int
}

func newMockAdvisorRepo() *mockAdvisorRepo {
	return &mockAdvisorRepo{items: map[string]*models.AdvisorAssignment{}}
}

func (m *mockAdvisorRepo) FindByStudent(ctx context.Context, studentID string) (*models.AdvisorAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *a
	return &out, nil
}

func (m *mockAdvisorRepo) List(ctx context.Context, filter models.AdvisorAssignmentFilter) ([]models.AdvisorAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AdvisorAssignment
	for _, a := range m.items {
		if filter.AdvisorID != "" && a.AdvisorID != filter.AdvisorID {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (m *mockAdvisorRepo) Upsert(ctx context.Context, assignment *models.AdvisorAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	stored := *assignment
	m.items[assignment.StudentID] = &stored
	return nil
}

type mockUserRepo struct {
	mu      sync.Mutex
	items   map[string]*models.User
	upserts int
}

func newMockUserRepo(users ...models.User) *mockUserRepo {
	m := &mockUserRepo{items: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		m.items[u.ID] = &u
	}
	return m
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *u
	return &out, nil
}

func (m *mockUserRepo) UpsertByEmail(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	for _, u := range m.items {
		if u.Email == user.Email {
			user.ID = u.ID
			u.FullName = user.FullName
			return nil
		}
	}
	user.ID = "user-" + user.Email
	stored := *user
	m.items[user.ID] = &stored
	return nil
}

type mockLogStore struct {
	mu      sync.Mutex
	entries []models.TransitionLog
	err     error
}

func (m *mockLogStore) Insert(ctx context.Context, entry *models.TransitionLog) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockLogStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type mockStandings struct {
	mu          sync.Mutex
	recomputed  []string
	invalidated []string
	err         error
}

func (m *mockStandings) Recompute(ctx context.Context, studentID string) (*models.AcademicStanding, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputed = append(m.recomputed, studentID)
	return &models.AcademicStanding{StudentID: studentID}, nil
}

func (m *mockStandings) Invalidate(ctx context.Context, studentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, studentID)
}

// workflowFixture wires two students, one faculty member, two advisors, an
// open and a locked semester, and one approved offering in each.
type workflowFixture struct {
	enrollments *mockEnrollmentRepo
	offerings   *mockOfferingRepo
	grades      *mockGradeRepo
	semesters   *mockSemesterRepo
	students    *mockStudentRepo
	advisors    *mockAdvisorRepo
	users       *mockUserRepo
	logs        *mockLogStore
	standings   *mockStandings
	tx          *fakeTx
}

var (
	adminActor    = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	facultyActor  = models.Actor{UserID: "faculty-1", Role: models.RoleFaculty}
	otherFaculty  = models.Actor{UserID: "faculty-2", Role: models.RoleFaculty}
	advisorActor  = models.Actor{UserID: "advisor-1", Role: models.RoleAdvisor}
	otherAdvisor  = models.Actor{UserID: "advisor-2", Role: models.RoleAdvisor}
	studentActor  = models.Actor{UserID: "user-s1", Role: models.RoleStudent}
	student2Actor = models.Actor{UserID: "user-s2", Role: models.RoleStudent}
)

func strPtr(v string) *string { return &v }

func newWorkflowFixture() *workflowFixture {
	f := &workflowFixture{
		enrollments: newMockEnrollmentRepo(),
		offerings:   newMockOfferingRepo(),
		grades:      newMockGradeRepo(),
		semesters:   newMockSemesterRepo(),
		students: newMockStudentRepo(
			models.Student{ID: "s1", UserID: strPtr("user-s1"), RollNumber: "R1", FullName: "Ana", DepartmentID: "CS", Active: true},
			models.Student{ID: "s2", UserID: strPtr("user-s2"), RollNumber: "R2", FullName: "Budi", DepartmentID: "EE", Active: true},
		),
		advisors: newMockAdvisorRepo(),
		users: newMockUserRepo(
			models.User{ID: "advisor-1", Role: models.RoleAdvisor, Active: true},
			models.User{ID: "advisor-2", Role: models.RoleAdvisor, Active: true},
			models.User{ID: "faculty-1", Role: models.RoleFaculty, Active: true},
		),
		logs:      &mockLogStore{},
		standings: &mockStandings{},
		tx:        &fakeTx{},
	}

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	f.semesters.put(models.Semester{ID: "sem-open", Name: "2025 Odd", StartDate: start})
	f.semesters.put(models.Semester{ID: "sem-locked", Name: "2024 Even", StartDate: start.AddDate(0, -6, 0), Locked: true})

	f.offerings.put(models.CourseOffering{ID: "off-1", CourseID: "c1", SemesterID: "sem-open", FacultyID: "faculty-1", DepartmentID: "CS", Status: models.OfferingStatusApproved})
	f.offerings.put(models.CourseOffering{ID: "off-old", CourseID: "c2", SemesterID: "sem-locked", FacultyID: "faculty-1", DepartmentID: "CS", Status: models.OfferingStatusApproved})
	f.semesters.offeringOf["off-1"] = "sem-open"
	f.semesters.offeringOf["off-old"] = "sem-locked"
	f.enrollments.semesterOf["off-1"] = "sem-open"
	f.enrollments.semesterOf["off-old"] = "sem-locked"

	f.advisors.items["s1"] = &models.AdvisorAssignment{StudentID: "s1", AdvisorID: "advisor-1", AssignedBy: "admin-1"}
	return f
}

func (f *workflowFixture) transitionService(config TransitionConfig) *TransitionService {
	return NewTransitionService(TransitionDeps{
		Enrollments: f.enrollments,
		Offerings:   f.offerings,
		Grades:      f.grades,
		Semesters:   f.semesters,
		Advisors:    f.advisors,
		Students:    f.students,
		Logs:        f.logs,
		Standings:   f.standings,
		Tx:          f.tx,
	}, config, nil)
}

func (f *workflowFixture) enrollmentService() *EnrollmentService {
	return NewEnrollmentService(f.enrollments, f.offerings, f.semesters, f.students, f.logs, f.standings, f.tx, nil, nil)
}

func (f *workflowFixture) seedEnrollment(id, studentID string, status models.EnrollmentStatus) {
	f.enrollments.put(models.Enrollment{
		ID:          id,
		StudentID:   studentID,
		OfferingID:  "off-1",
		Type:        models.EnrollmentTypeCredit,
		Status:      status,
		RequestedAt: time.Now().UTC(),
	})
}
